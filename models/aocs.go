package models

import (
	"time"
)

// Aocs (Autorizacao de Compra/Servico) agrupa um ou mais pedidos
// contra itens de um unico contrato. Imutavel apos a criacao, exceto
// pelos campos de entrega dos seus pedidos.
//
// ContratoID e nulo enquanto a AOCS nao tem pedidos; o primeiro pedido
// fixa o contrato e os demais precisam pertencer ao mesmo.
type Aocs struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	NumeroAocs string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"numero_aocs"`
	ContratoID *uint     `gorm:"index" json:"id_contrato,omitempty"`
	Contrato   *Contrato `gorm:"foreignKey:ContratoID;references:ID" json:"-"`

	UnidadeRequisitante string `gorm:"type:varchar(255);not null" json:"unidade_requisitante_nome"`
	Justificativa       string `gorm:"type:text;not null" json:"justificativa"`
	DotacaoOrcamentaria string `gorm:"type:varchar(255);not null" json:"dotacao_info_orcamentaria"`
	LocalEntrega        string `gorm:"type:varchar(255);not null" json:"local_entrega_descricao"`
	AgenteResponsavel   string `gorm:"type:varchar(255);not null" json:"agente_responsavel_nome"`

	DataCriacao  time.Time `gorm:"not null" json:"data_criacao"`
	NumeroPedido *string   `gorm:"type:varchar(50)" json:"numero_pedido,omitempty"`
	Empenho      *string   `gorm:"type:varchar(50)" json:"empenho,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Pedidos []Pedido `gorm:"foreignKey:AocsID" json:"pedidos"`
}

func (Aocs) TableName() string {
	return "aocs"
}
