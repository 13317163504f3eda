package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/utils"
)

// ItemLote e uma entrega individual dentro de um lote (mesma nota fiscal).
type ItemLote struct {
	PedidoID   uint
	Quantidade decimal.Decimal
}

// EntregaService reconcilia entregas contra pedidos. Entregas nunca
// tocam o saldo reservavel do item: alteram apenas o estado de
// cumprimento da quantidade ja reservada.
type EntregaService struct {
	db *gorm.DB
}

func NewEntregaService(db *gorm.DB) *EntregaService {
	return &EntregaService{db: db}
}

// RegistrarEntrega aplica uma entrega avulsa a um pedido.
func (s *EntregaService) RegistrarEntrega(pedidoID uint, quantidade decimal.Decimal, dataEntrega time.Time, notaFiscal string) (*models.Pedido, error) {
	var pedido models.Pedido
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, e := aplicarEntregaTx(tx, pedidoID, quantidade, dataEntrega, notaFiscal)
		if e != nil {
			return e
		}
		pedido = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Entrega registrada: pedido %d recebeu +%s (NF %s), status %s",
		pedido.ID, quantidade.StringFixed(2), notaFiscal, pedido.StatusEntrega)
	return &pedido, nil
}

// RegistrarEntregaLote aplica varias entregas sob a mesma nota fiscal
// como uma unica transacao: qualquer item invalido derruba o lote
// inteiro e o chamador recebe a lista completa de falhas.
func (s *EntregaService) RegistrarEntregaLote(dataEntrega time.Time, notaFiscal string, itens []ItemLote) ([]models.Pedido, error) {
	if len(itens) == 0 {
		return nil, fmt.Errorf("%w: lote de entrega vazio", ErrValidacao)
	}
	if notaFiscal == "" {
		return nil, fmt.Errorf("%w: nota_fiscal obrigatoria", ErrValidacao)
	}

	var atualizados []models.Pedido
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var falhas []FalhaItemLote
		carregados := make(map[uint]*models.Pedido, len(itens))
		ordem := make([]*models.Pedido, 0, len(itens))
		var registros []models.EntregaRegistro

		// Valida e acumula em memoria; nada e gravado enquanto houver
		// chance de falha em qualquer item do lote.
		for _, it := range itens {
			if !it.Quantidade.GreaterThan(decimal.Zero) {
				falhas = append(falhas, FalhaItemLote{PedidoID: it.PedidoID, Motivo: "quantidade deve ser maior que zero"})
				continue
			}

			pedido, ok := carregados[it.PedidoID]
			if !ok {
				var p models.Pedido
				if err := lockForUpdate(tx).First(&p, it.PedidoID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						falhas = append(falhas, FalhaItemLote{PedidoID: it.PedidoID, Motivo: "pedido nao encontrado"})
						continue
					}
					return err
				}
				pedido = &p
				carregados[it.PedidoID] = pedido
				ordem = append(ordem, pedido)
			}

			if pedido.StatusEntrega == models.StatusEntregaCancelado {
				falhas = append(falhas, FalhaItemLote{PedidoID: it.PedidoID, Motivo: "pedido cancelado nao recebe entregas"})
				continue
			}

			restante := pedido.QuantidadeRestante()
			if it.Quantidade.GreaterThan(restante) {
				falhas = append(falhas, FalhaItemLote{
					PedidoID: it.PedidoID,
					Motivo: fmt.Sprintf("quantidade %s excede o restante %s",
						it.Quantidade.StringFixed(2), restante.StringFixed(2)),
				})
				continue
			}

			pedido.QuantidadeEntregue = pedido.QuantidadeEntregue.Add(it.Quantidade)
			pedido.StatusEntrega = models.DerivarStatusEntrega(pedido.QuantidadePedida, pedido.QuantidadeEntregue)
			pedido.DataUltimaEntrega = &dataEntrega
			nf := notaFiscal
			pedido.NotaFiscal = &nf

			registros = append(registros, models.EntregaRegistro{
				PedidoID:    pedido.ID,
				Quantidade:  it.Quantidade,
				DataEntrega: dataEntrega,
				NotaFiscal:  notaFiscal,
			})
		}

		if len(falhas) > 0 {
			return &ErrLoteInvalido{Falhas: falhas}
		}

		for _, pedido := range ordem {
			if err := tx.Save(pedido).Error; err != nil {
				return err
			}
			atualizados = append(atualizados, *pedido)
		}
		if len(registros) > 0 {
			if err := tx.Create(&registros).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Lote de entrega aplicado: %d pedido(s) sob a NF %s", len(atualizados), notaFiscal)
	return atualizados, nil
}

// HistoricoEntregas lista os registros de entrega de um pedido.
func (s *EntregaService) HistoricoEntregas(pedidoID uint) ([]models.EntregaRegistro, error) {
	var registros []models.EntregaRegistro
	if err := s.db.Where("pedido_id = ?", pedidoID).Order("id").Find(&registros).Error; err != nil {
		return nil, err
	}
	return registros, nil
}

func aplicarEntregaTx(tx *gorm.DB, pedidoID uint, quantidade decimal.Decimal, dataEntrega time.Time, notaFiscal string) (*models.Pedido, error) {
	if !quantidade.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: quantidade da entrega deve ser maior que zero", ErrValidacao)
	}
	if notaFiscal == "" {
		return nil, fmt.Errorf("%w: nota_fiscal obrigatoria", ErrValidacao)
	}

	var pedido models.Pedido
	if err := lockForUpdate(tx).First(&pedido, pedidoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ErrNaoEncontrado{Recurso: "pedido", ID: pedidoID}
		}
		return nil, err
	}

	if pedido.StatusEntrega == models.StatusEntregaCancelado {
		return nil, fmt.Errorf("%w: pedido %d cancelado nao recebe entregas", ErrValidacao, pedidoID)
	}

	restante := pedido.QuantidadeRestante()
	if quantidade.GreaterThan(restante) {
		return nil, &ErrEntregaExcedente{PedidoID: pedidoID, Solicitado: quantidade, Restante: restante}
	}

	pedido.QuantidadeEntregue = pedido.QuantidadeEntregue.Add(quantidade)
	pedido.StatusEntrega = models.DerivarStatusEntrega(pedido.QuantidadePedida, pedido.QuantidadeEntregue)
	pedido.DataUltimaEntrega = &dataEntrega
	pedido.NotaFiscal = &notaFiscal

	if err := tx.Save(&pedido).Error; err != nil {
		return nil, err
	}

	registro := models.EntregaRegistro{
		PedidoID:    pedido.ID,
		Quantidade:  quantidade,
		DataEntrega: dataEntrega,
		NotaFiscal:  notaFiscal,
	}
	if err := tx.Create(&registro).Error; err != nil {
		return nil, err
	}

	return &pedido, nil
}
