package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/utils"
)

// TabelasController atende as consultas de tabelas do sistema,
// em particular a view de saldos dos itens de contrato.
type TabelasController struct {
	DB *gorm.DB
}

func NewTabelasController(db *gorm.DB) *TabelasController {
	return &TabelasController{DB: db}
}

// GetSaldoItem -> saldo de um item refletindo apenas reservas
// confirmadas (a view recomputa dos pedidos nao cancelados)
func (tc *TabelasController) GetSaldoItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var saldo models.VSaldoItemContrato
	if err := tc.DB.Where("id_item_contrato = ?", id).First(&saldo).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Saldo do item", saldo)
}

// GetSaldosContrato -> saldos de todos os itens de um contrato
func (tc *TabelasController) GetSaldosContrato(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("contrato_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var saldos []models.VSaldoItemContrato
	if err := tc.DB.Where("id_contrato = ?", id).Order("id_item_contrato").Find(&saldos).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Saldos do contrato", saldos)
}
