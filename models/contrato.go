package models

import (
	"time"
)

// Contrato agrupa os itens licitados de um unico fornecedor.
// Os saldos sao controlados por item (ItemContrato), nunca pelo contrato.
type Contrato struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	NumeroContrato string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"numero_contrato"`
	Fornecedor     string         `gorm:"type:varchar(255);not null" json:"fornecedor"`
	Objeto         string         `gorm:"type:text" json:"objeto"`
	DataInicio     *time.Time     `json:"data_inicio,omitempty"`
	DataFim        *time.Time     `json:"data_fim,omitempty"`
	Ativo          bool           `gorm:"not null;default:true" json:"ativo"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	Itens          []ItemContrato `gorm:"foreignKey:ContratoID" json:"itens"`
}
