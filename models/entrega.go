package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntregaRegistro e o historico append-only de entregas de um pedido.
// Registros nunca sao alterados nem removidos; a soma das quantidades
// de um pedido reconstitui a sua QuantidadeEntregue.
type EntregaRegistro struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PedidoID uint   `gorm:"not null;index" json:"id_pedido"`
	Pedido   Pedido `gorm:"foreignKey:PedidoID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	Quantidade  decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"quantidade"`
	DataEntrega time.Time       `gorm:"not null" json:"data_entrega"`
	NotaFiscal  string          `gorm:"type:varchar(100);not null" json:"nota_fiscal"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (EntregaRegistro) TableName() string {
	return "entregas"
}
