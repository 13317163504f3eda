package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gestao-compras/gestao-contratos/services"
	"github.com/gestao-compras/gestao-contratos/utils"
)

// bindJSON faz o bind do corpo e responde sozinho em caso de falha:
// 400 para JSON malformado, 422 para campo ausente/invalido.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			utils.RespondError(c, http.StatusBadRequest, err)
		} else {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
		}
		return false
	}
	return true
}

// respondServiceError traduz a taxonomia de erros do motor para HTTP.
// Nenhum desses erros deixa escrita parcial no banco.
func respondServiceError(c *gin.Context, err error) {
	var (
		saldo   *services.ErrSaldoInsuficiente
		exced   *services.ErrEntregaExcedente
		cruzado *services.ErrContratoCruzado
		qtd     *services.ErrQuantidadeInvalida
		lib     *services.ErrLiberacaoInvalida
		naoEnc  *services.ErrNaoEncontrado
		lote    *services.ErrLoteInvalido
	)

	switch {
	case errors.As(err, &naoEnc):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &saldo), errors.Is(err, services.ErrConflito):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.As(err, &lote):
		// O lote e atomico: a lista cobre todas as falhas e nada foi aplicado
		utils.RespondJSON(c, http.StatusUnprocessableEntity, err.Error(), gin.H{"falhas": lote.Falhas})
	case errors.As(err, &exced), errors.As(err, &cruzado), errors.As(err, &qtd),
		errors.As(err, &lib), errors.Is(err, services.ErrValidacao):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
	case isIntegrityError(err):
		utils.RespondError(c, http.StatusConflict, err)
	default:
		utils.ErrorLogger.Printf("erro interno: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// isIntegrityError reconhece violacoes de unicidade do MySQL e do SQLite.
func isIntegrityError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}
