package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gestao-compras/gestao-contratos/models"
)

// Tentativas de Reservar/Liberar antes de desistir com ErrConflito.
const maxTentativasConflito = 3

// LedgerService e a unica autoridade sobre o saldo reservavel dos itens
// de contrato. Toda mutacao do contador quantidade_reservada passa por
// aqui, dentro de uma transacao, com a linha do item travada.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// lockForUpdate aplica SELECT ... FOR UPDATE quando o dialeto suporta.
// SQLite nao aceita a clausula, mas serializa escritores por transacao,
// o que da a mesma garantia nos testes.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// comRetryConflito reexecuta a operacao inteira quando a escrita
// condicional do contador perde a corrida, ate o limite de tentativas.
func comRetryConflito(op func() error) error {
	var err error
	for i := 0; i < maxTentativasConflito; i++ {
		err = op()
		if !errors.Is(err, ErrConflito) {
			return err
		}
	}
	return err
}

// ReservarTx registra uma reserva dentro da transacao corrente e retorna
// o novo saldo disponivel. A escrita e condicionada ao valor lido do
// contador; se outra transacao o alterou no intervalo, ErrConflito.
func (s *LedgerService) ReservarTx(tx *gorm.DB, itemID uint, quantidade decimal.Decimal) (decimal.Decimal, error) {
	if !quantidade.GreaterThan(decimal.Zero) {
		return decimal.Zero, &ErrQuantidadeInvalida{ItemContratoID: itemID, Quantidade: quantidade}
	}

	var item models.ItemContrato
	if err := lockForUpdate(tx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, &ErrNaoEncontrado{Recurso: "item de contrato", ID: itemID}
		}
		return decimal.Zero, err
	}

	saldo := item.SaldoDisponivel()
	if quantidade.GreaterThan(saldo) {
		return decimal.Zero, &ErrSaldoInsuficiente{
			ItemContratoID: itemID,
			Solicitado:     quantidade,
			Disponivel:     saldo,
		}
	}

	novaReserva := item.QuantidadeReservada.Add(quantidade)
	res := tx.Model(&models.ItemContrato{}).
		Where("id = ? AND quantidade_reservada = ?", item.ID, item.QuantidadeReservada).
		Update("quantidade_reservada", novaReserva)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ErrConflito
	}

	return item.QuantidadeContratada.Sub(novaReserva), nil
}

// LiberarTx desfaz uma reserva (cancelamento de pedido sem entregas).
func (s *LedgerService) LiberarTx(tx *gorm.DB, itemID uint, quantidade decimal.Decimal) (decimal.Decimal, error) {
	if !quantidade.GreaterThan(decimal.Zero) {
		return decimal.Zero, &ErrQuantidadeInvalida{ItemContratoID: itemID, Quantidade: quantidade}
	}

	var item models.ItemContrato
	if err := lockForUpdate(tx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, &ErrNaoEncontrado{Recurso: "item de contrato", ID: itemID}
		}
		return decimal.Zero, err
	}

	if quantidade.GreaterThan(item.QuantidadeReservada) {
		return decimal.Zero, &ErrLiberacaoInvalida{
			ItemContratoID: itemID,
			Solicitado:     quantidade,
			Reservado:      item.QuantidadeReservada,
		}
	}

	novaReserva := item.QuantidadeReservada.Sub(quantidade)
	res := tx.Model(&models.ItemContrato{}).
		Where("id = ? AND quantidade_reservada = ?", item.ID, item.QuantidadeReservada).
		Update("quantidade_reservada", novaReserva)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ErrConflito
	}

	return item.QuantidadeContratada.Sub(novaReserva), nil
}

// Reservar executa uma reserva avulsa em transacao propria.
func (s *LedgerService) Reservar(itemID uint, quantidade decimal.Decimal) (decimal.Decimal, error) {
	var saldo decimal.Decimal
	err := comRetryConflito(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var e error
			saldo, e = s.ReservarTx(tx, itemID, quantidade)
			return e
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return saldo, nil
}

// Liberar executa uma liberacao avulsa em transacao propria.
func (s *LedgerService) Liberar(itemID uint, quantidade decimal.Decimal) (decimal.Decimal, error) {
	var saldo decimal.Decimal
	err := comRetryConflito(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var e error
			saldo, e = s.LiberarTx(tx, itemID, quantidade)
			return e
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return saldo, nil
}

// Saldo retorna o saldo disponivel refletindo apenas reservas
// confirmadas. Leitura pura, sem efeitos colaterais.
func (s *LedgerService) Saldo(itemID uint) (decimal.Decimal, error) {
	var item models.ItemContrato
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, &ErrNaoEncontrado{Recurso: "item de contrato", ID: itemID}
		}
		return decimal.Zero, err
	}
	return item.SaldoDisponivel(), nil
}
