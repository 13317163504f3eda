package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidacao marca erros de entrada recuperaveis pelo chamador
// (campo ausente ou malformado). Nunca ha escrita parcial.
var ErrValidacao = errors.New("erro de validacao")

// ErrConflito indica esgotamento das tentativas de atualizacao
// otimista do contador de reserva.
var ErrConflito = errors.New("conflito de concorrencia ao atualizar o saldo do item, tente novamente")

// ErrSaldoInsuficiente: a reserva excederia o saldo disponivel do item.
type ErrSaldoInsuficiente struct {
	ItemContratoID uint
	Solicitado     decimal.Decimal
	Disponivel     decimal.Decimal
}

func (e *ErrSaldoInsuficiente) Error() string {
	return fmt.Sprintf("saldo insuficiente para o item %d: solicitado %s, disponivel %s",
		e.ItemContratoID, e.Solicitado.StringFixed(2), e.Disponivel.StringFixed(2))
}

// ErrEntregaExcedente: a entrega excederia o restante (pedida - entregue).
type ErrEntregaExcedente struct {
	PedidoID   uint
	Solicitado decimal.Decimal
	Restante   decimal.Decimal
}

func (e *ErrEntregaExcedente) Error() string {
	return fmt.Sprintf("entrega excede o saldo do pedido %d: solicitado %s, restante %s",
		e.PedidoID, e.Solicitado.StringFixed(2), e.Restante.StringFixed(2))
}

// ErrContratoCruzado: os pedidos de uma AOCS abrangem mais de um contrato.
type ErrContratoCruzado struct {
	Contratos []uint
}

func (e *ErrContratoCruzado) Error() string {
	return fmt.Sprintf("uma AOCS nao pode misturar itens de contratos diferentes (contratos %v)", e.Contratos)
}

// ErrQuantidadeInvalida: quantidade zero ou negativa.
type ErrQuantidadeInvalida struct {
	ItemContratoID uint
	Quantidade     decimal.Decimal
}

func (e *ErrQuantidadeInvalida) Error() string {
	return fmt.Sprintf("quantidade invalida %s para o item %d: deve ser maior que zero",
		e.Quantidade.StringFixed(2), e.ItemContratoID)
}

// ErrLiberacaoInvalida: liberacao maior que a quantidade reservada.
type ErrLiberacaoInvalida struct {
	ItemContratoID uint
	Solicitado     decimal.Decimal
	Reservado      decimal.Decimal
}

func (e *ErrLiberacaoInvalida) Error() string {
	return fmt.Sprintf("liberacao invalida para o item %d: solicitado %s, reservado %s",
		e.ItemContratoID, e.Solicitado.StringFixed(2), e.Reservado.StringFixed(2))
}

// ErrNaoEncontrado: item, AOCS ou pedido inexistente.
type ErrNaoEncontrado struct {
	Recurso string
	ID      uint
}

func (e *ErrNaoEncontrado) Error() string {
	return fmt.Sprintf("%s %d nao encontrado", e.Recurso, e.ID)
}

// FalhaItemLote descreve a rejeicao de um item dentro de um lote de entrega.
type FalhaItemLote struct {
	PedidoID uint   `json:"id_pedido"`
	Motivo   string `json:"motivo"`
}

// ErrLoteInvalido carrega todas as falhas de um lote; nenhum item do
// lote e aplicado quando ele ocorre.
type ErrLoteInvalido struct {
	Falhas []FalhaItemLote
}

func (e *ErrLoteInvalido) Error() string {
	return fmt.Sprintf("lote de entrega rejeitado: %d item(ns) com falha", len(e.Falhas))
}
