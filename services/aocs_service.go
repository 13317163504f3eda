package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/utils"
)

// AocsDados sao os campos mestres de uma AOCS vindos da fronteira.
type AocsDados struct {
	NumeroAocs          string
	UnidadeRequisitante string
	Justificativa       string
	DotacaoOrcamentaria string
	LocalEntrega        string
	AgenteResponsavel   string
	DataCriacao         time.Time
	NumeroPedido        *string
	Empenho             *string
}

// LinhaPedido e uma linha do carrinho ja convertida para o dominio.
type LinhaPedido struct {
	ItemContratoID   uint
	QuantidadePedida decimal.Decimal
}

// AocsService cria AOCS com seus pedidos como unidade atomica contra um
// unico contrato. As reservas sao adquiridas em ordem crescente de id de
// item para fixar uma ordem global de travamento entre submissoes
// concorrentes.
type AocsService struct {
	db     *gorm.DB
	ledger *LedgerService
}

func NewAocsService(db *gorm.DB) *AocsService {
	return &AocsService{db: db, ledger: NewLedgerService(db)}
}

func (s *AocsService) Ledger() *LedgerService {
	return s.ledger
}

// CriarAocsMestre persiste apenas o registro mestre (sem pedidos).
// O contrato fica indefinido ate o primeiro pedido ser adicionado.
func (s *AocsService) CriarAocsMestre(dados AocsDados) (*models.Aocs, error) {
	if err := validarDadosMestre(dados); err != nil {
		return nil, err
	}

	aocs := novaAocs(dados, nil)
	if err := s.db.Create(aocs).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("AOCS %s criada (ID %d)", aocs.NumeroAocs, aocs.ID)
	return aocs, nil
}

// CriarAocs cria a AOCS e todos os seus pedidos em uma unica transacao.
// Qualquer falha (saldo, contrato cruzado, quantidade) desfaz tudo;
// nada e persistido em caso de erro.
func (s *AocsService) CriarAocs(dados AocsDados, linhas []LinhaPedido) (*models.Aocs, error) {
	var aocs *models.Aocs
	err := comRetryConflito(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			a, e := s.CriarAocsTx(tx, dados, linhas)
			if e != nil {
				return e
			}
			aocs = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("AOCS %s criada com %d pedido(s) (contrato %d)",
		aocs.NumeroAocs, len(aocs.Pedidos), *aocs.ContratoID)
	return aocs, nil
}

// CriarAocsTx e o corpo de CriarAocs executado na transacao recebida;
// o orquestrador de carrinho o reutiliza no modo tudo-ou-nada.
func (s *AocsService) CriarAocsTx(tx *gorm.DB, dados AocsDados, linhas []LinhaPedido) (*models.Aocs, error) {
	if err := validarDadosMestre(dados); err != nil {
		return nil, err
	}
	if len(linhas) == 0 {
		return nil, fmt.Errorf("%w: a AOCS precisa de ao menos um pedido", ErrValidacao)
	}

	vistos := make(map[uint]bool, len(linhas))
	for _, linha := range linhas {
		if !linha.QuantidadePedida.GreaterThan(decimal.Zero) {
			return nil, &ErrQuantidadeInvalida{ItemContratoID: linha.ItemContratoID, Quantidade: linha.QuantidadePedida}
		}
		if vistos[linha.ItemContratoID] {
			return nil, fmt.Errorf("%w: item de contrato %d repetido na AOCS", ErrValidacao, linha.ItemContratoID)
		}
		vistos[linha.ItemContratoID] = true
	}

	contratoID, err := contratoUnicoDasLinhas(tx, linhas)
	if err != nil {
		return nil, err
	}

	aocs := novaAocs(dados, &contratoID)
	if err := tx.Create(aocs).Error; err != nil {
		return nil, err
	}

	// Ordem crescente de id de item: ordem global de travamento.
	ordenadas := make([]LinhaPedido, len(linhas))
	copy(ordenadas, linhas)
	sort.Slice(ordenadas, func(i, j int) bool {
		return ordenadas[i].ItemContratoID < ordenadas[j].ItemContratoID
	})

	for _, linha := range ordenadas {
		if _, err := s.ledger.ReservarTx(tx, linha.ItemContratoID, linha.QuantidadePedida); err != nil {
			return nil, err
		}

		pedido := models.Pedido{
			AocsID:             aocs.ID,
			ItemContratoID:     linha.ItemContratoID,
			QuantidadePedida:   linha.QuantidadePedida,
			QuantidadeEntregue: decimal.Zero,
			StatusEntrega:      models.StatusEntregaPendente,
		}
		if err := tx.Create(&pedido).Error; err != nil {
			return nil, err
		}
		aocs.Pedidos = append(aocs.Pedidos, pedido)
	}

	return aocs, nil
}

// AdicionarPedido acrescenta uma linha a uma AOCS existente, reservando
// saldo. O primeiro pedido fixa o contrato da AOCS; os seguintes devem
// pertencer ao mesmo contrato.
func (s *AocsService) AdicionarPedido(aocsID uint, itemID uint, quantidade decimal.Decimal) (*models.Pedido, error) {
	var pedido *models.Pedido
	err := comRetryConflito(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var aocs models.Aocs
			if err := lockForUpdate(tx).First(&aocs, aocsID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ErrNaoEncontrado{Recurso: "AOCS", ID: aocsID}
				}
				return err
			}

			var item models.ItemContrato
			if err := tx.First(&item, itemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ErrNaoEncontrado{Recurso: "item de contrato", ID: itemID}
				}
				return err
			}
			if !item.Ativo {
				return fmt.Errorf("%w: item de contrato %d inativo nao recebe novos pedidos", ErrValidacao, item.ID)
			}

			if aocs.ContratoID == nil {
				if err := tx.Model(&aocs).Update("contrato_id", item.ContratoID).Error; err != nil {
					return err
				}
			} else if *aocs.ContratoID != item.ContratoID {
				return &ErrContratoCruzado{Contratos: []uint{*aocs.ContratoID, item.ContratoID}}
			}

			if _, err := s.ledger.ReservarTx(tx, item.ID, quantidade); err != nil {
				return err
			}

			p := models.Pedido{
				AocsID:             aocs.ID,
				ItemContratoID:     item.ID,
				QuantidadePedida:   quantidade,
				QuantidadeEntregue: decimal.Zero,
				StatusEntrega:      models.StatusEntregaPendente,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			pedido = &p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Pedido %d (item %d, qtd %s) adicionado a AOCS %d",
		pedido.ID, itemID, quantidade.StringFixed(2), aocsID)
	return pedido, nil
}

// CancelarPedido marca a linha como cancelada e devolve a quantidade ao
// saldo do item. So e permitido antes de qualquer entrega.
func (s *AocsService) CancelarPedido(pedidoID uint) (*models.Pedido, error) {
	var pedido models.Pedido
	err := comRetryConflito(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := lockForUpdate(tx).First(&pedido, pedidoID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ErrNaoEncontrado{Recurso: "pedido", ID: pedidoID}
				}
				return err
			}

			if pedido.StatusEntrega == models.StatusEntregaCancelado {
				return fmt.Errorf("%w: pedido %d ja esta cancelado", ErrValidacao, pedidoID)
			}
			if !pedido.QuantidadeEntregue.IsZero() {
				return fmt.Errorf("%w: pedido %d ja possui entregas e nao pode ser cancelado", ErrValidacao, pedidoID)
			}

			if _, err := s.ledger.LiberarTx(tx, pedido.ItemContratoID, pedido.QuantidadePedida); err != nil {
				return err
			}

			pedido.StatusEntrega = models.StatusEntregaCancelado
			return tx.Model(&pedido).Update("status_entrega", models.StatusEntregaCancelado).Error
		})
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Pedido %d cancelado, saldo do item %d liberado", pedido.ID, pedido.ItemContratoID)
	return &pedido, nil
}

func validarDadosMestre(dados AocsDados) error {
	faltando := ""
	switch {
	case dados.NumeroAocs == "":
		faltando = "numero_aocs"
	case dados.UnidadeRequisitante == "":
		faltando = "unidade_requisitante_nome"
	case dados.Justificativa == "":
		faltando = "justificativa"
	case dados.DotacaoOrcamentaria == "":
		faltando = "dotacao_info_orcamentaria"
	case dados.LocalEntrega == "":
		faltando = "local_entrega_descricao"
	case dados.AgenteResponsavel == "":
		faltando = "agente_responsavel_nome"
	}
	if faltando != "" {
		return fmt.Errorf("%w: campo %s obrigatorio", ErrValidacao, faltando)
	}
	return nil
}

func novaAocs(dados AocsDados, contratoID *uint) *models.Aocs {
	data := dados.DataCriacao
	if data.IsZero() {
		data = time.Now()
	}
	return &models.Aocs{
		NumeroAocs:          dados.NumeroAocs,
		ContratoID:          contratoID,
		UnidadeRequisitante: dados.UnidadeRequisitante,
		Justificativa:       dados.Justificativa,
		DotacaoOrcamentaria: dados.DotacaoOrcamentaria,
		LocalEntrega:        dados.LocalEntrega,
		AgenteResponsavel:   dados.AgenteResponsavel,
		DataCriacao:         data,
		NumeroPedido:        dados.NumeroPedido,
		Empenho:             dados.Empenho,
	}
}

// contratoUnicoDasLinhas carrega os itens e garante que todos pertencem
// ao mesmo contrato e estao ativos.
func contratoUnicoDasLinhas(tx *gorm.DB, linhas []LinhaPedido) (uint, error) {
	ids := make([]uint, 0, len(linhas))
	for _, l := range linhas {
		ids = append(ids, l.ItemContratoID)
	}

	var itens []models.ItemContrato
	if err := tx.Where("id IN ?", ids).Find(&itens).Error; err != nil {
		return 0, err
	}

	porID := make(map[uint]models.ItemContrato, len(itens))
	for _, it := range itens {
		porID[it.ID] = it
	}

	contratos := make([]uint, 0, 1)
	for _, l := range linhas {
		item, ok := porID[l.ItemContratoID]
		if !ok {
			return 0, &ErrNaoEncontrado{Recurso: "item de contrato", ID: l.ItemContratoID}
		}
		if !item.Ativo {
			return 0, fmt.Errorf("%w: item de contrato %d inativo nao recebe novos pedidos", ErrValidacao, item.ID)
		}
		repetido := false
		for _, c := range contratos {
			if c == item.ContratoID {
				repetido = true
				break
			}
		}
		if !repetido {
			contratos = append(contratos, item.ContratoID)
		}
	}

	if len(contratos) > 1 {
		return 0, &ErrContratoCruzado{Contratos: contratos}
	}
	return contratos[0], nil
}
