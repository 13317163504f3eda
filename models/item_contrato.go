package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemContrato e um item licitado dentro de um contrato.
// QuantidadeContratada e fixada na assinatura do contrato e nunca muda;
// QuantidadeReservada e o contador transacional mantido exclusivamente
// pelo LedgerService (reserva/liberacao) - nenhum outro codigo escreve nele.
type ItemContrato struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ContratoID uint     `gorm:"not null;index" json:"id_contrato"`
	Contrato   Contrato `gorm:"foreignKey:ContratoID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	NumeroItem    int     `gorm:"not null" json:"numero_item"`
	Descricao     string  `gorm:"type:text;not null" json:"descricao"`
	Marca         *string `gorm:"type:varchar(100)" json:"marca,omitempty"`
	UnidadeMedida string  `gorm:"type:varchar(20);not null" json:"unidade_medida"`

	QuantidadeContratada decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"quantidade_contratada"`
	QuantidadeReservada  decimal.Decimal `gorm:"type:decimal(15,3);not null;default:0" json:"quantidade_reservada"`
	ValorUnitario        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"valor_unitario"`

	Ativo     bool      `gorm:"not null;default:true" json:"ativo"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ItemContrato) TableName() string {
	return "itens_contrato"
}

// SaldoDisponivel calcula o saldo reservavel a partir do contador comprometido.
func (i *ItemContrato) SaldoDisponivel() decimal.Decimal {
	return i.QuantidadeContratada.Sub(i.QuantidadeReservada)
}
