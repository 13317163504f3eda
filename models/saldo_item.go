package models

import (
	"github.com/shopspring/decimal"
)

// VSaldoItemContrato mapeia a view v_saldo_itens_contrato (somente leitura).
// O saldo aqui e recomputado dos pedidos nao cancelados, independente do
// contador mantido pelo ledger; os dois devem sempre coincidir.
type VSaldoItemContrato struct {
	IDItemContrato uint   `gorm:"primaryKey;column:id_item_contrato" json:"id_item_contrato"`
	IDContrato     uint   `gorm:"column:id_contrato" json:"id_contrato"`
	NomeItem       string `gorm:"column:nome_item" json:"nome_item"`

	QuantidadeContratada decimal.Decimal `gorm:"column:quantidade_contratada" json:"quantidade_contratada"`
	TotalConsumido       decimal.Decimal `gorm:"column:total_consumido" json:"total_consumido"`
	SaldoDisponivel      decimal.Decimal `gorm:"column:saldo_disponivel" json:"saldo_disponivel"`
}

func (VSaldoItemContrato) TableName() string {
	return "v_saldo_itens_contrato"
}
