package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status de entrega de um pedido.
const (
	StatusEntregaPendente  = "Pendente"
	StatusEntregaParcial   = "Parcial"
	StatusEntregaEntregue  = "Entregue"
	StatusEntregaCancelado = "Cancelado"
)

// Pedido e a reserva de quantidade de um item de contrato dentro de uma AOCS.
// QuantidadePedida e imutavel apos a criacao (exceto via cancelamento);
// QuantidadeEntregue so cresce, e somente o EntregaService a altera.
type Pedido struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	AocsID uint `gorm:"not null;index" json:"id_aocs"`
	// Omitido do JSON para evitar aninhamento recursivo
	Aocs           Aocs         `gorm:"foreignKey:AocsID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ItemContratoID uint         `gorm:"not null;index" json:"id_item_contrato"`
	ItemContrato   ItemContrato `gorm:"foreignKey:ItemContratoID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"item_contrato"`

	QuantidadePedida   decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"quantidade_pedida"`
	QuantidadeEntregue decimal.Decimal `gorm:"type:decimal(15,3);not null;default:0" json:"quantidade_entregue"`
	StatusEntrega      string          `gorm:"type:varchar(20);not null;default:'Pendente'" json:"status_entrega"`

	DataUltimaEntrega *time.Time `json:"data_ultima_entrega,omitempty"`
	NotaFiscal        *string    `gorm:"type:varchar(100)" json:"nota_fiscal,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// QuantidadeRestante retorna quanto ainda falta entregar deste pedido.
func (p *Pedido) QuantidadeRestante() decimal.Decimal {
	return p.QuantidadePedida.Sub(p.QuantidadeEntregue)
}

// DerivarStatusEntrega calcula o status a partir das duas quantidades.
// Invariante: 0 <= entregue <= pedida (garantido pelo EntregaService).
func DerivarStatusEntrega(pedida, entregue decimal.Decimal) string {
	switch {
	case entregue.IsZero():
		return StatusEntregaPendente
	case entregue.GreaterThanOrEqual(pedida):
		return StatusEntregaEntregue
	default:
		return StatusEntregaParcial
	}
}
