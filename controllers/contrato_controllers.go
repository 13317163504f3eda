package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/utils"
)

type ContratoController struct {
	DB *gorm.DB
}

func NewContratoController(db *gorm.DB) *ContratoController {
	return &ContratoController{DB: db}
}

type itemContratoReq struct {
	NumeroItem           int     `json:"numero_item" binding:"required"`
	Descricao            string  `json:"descricao" binding:"required"`
	Marca                *string `json:"marca"`
	UnidadeMedida        string  `json:"unidade_medida" binding:"required"`
	QuantidadeContratada string  `json:"quantidade_contratada" binding:"required"`
	ValorUnitario        string  `json:"valor_unitario" binding:"required"`
}

type contratoCreateReq struct {
	NumeroContrato string            `json:"numero_contrato" binding:"required"`
	Fornecedor     string            `json:"fornecedor" binding:"required"`
	Objeto         string            `json:"objeto"`
	DataInicio     string            `json:"data_inicio"`
	DataFim        string            `json:"data_fim"`
	Itens          []itemContratoReq `json:"itens" binding:"required"`
}

// CreateContrato -> registra o contrato e seus itens em uma transacao.
// A quantidade contratada de cada item fica fixada aqui.
func (cc *ContratoController) CreateContrato(c *gin.Context) {
	var req contratoCreateReq
	if !bindJSON(c, &req) {
		return
	}

	contrato := models.Contrato{
		NumeroContrato: req.NumeroContrato,
		Fornecedor:     req.Fornecedor,
		Objeto:         req.Objeto,
		Ativo:          true,
	}

	var err error
	if contrato.DataInicio, err = parseDataOpcional(req.DataInicio); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}
	if contrato.DataFim, err = parseDataOpcional(req.DataFim); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	for _, it := range req.Itens {
		qtd, err := utils.ParseQuantia(it.QuantidadeContratada)
		if err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return
		}
		valor, err := utils.ParseQuantia(it.ValorUnitario)
		if err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return
		}

		contrato.Itens = append(contrato.Itens, models.ItemContrato{
			NumeroItem:           it.NumeroItem,
			Descricao:            it.Descricao,
			Marca:                it.Marca,
			UnidadeMedida:        it.UnidadeMedida,
			QuantidadeContratada: qtd,
			ValorUnitario:        valor,
			Ativo:                true,
		})
	}

	if err := cc.DB.Create(&contrato).Error; err != nil {
		if isIntegrityError(err) {
			utils.RespondError(c, http.StatusConflict, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Contrato %s registrado com %d item(ns)", contrato.NumeroContrato, len(contrato.Itens))
	utils.RespondJSON(c, http.StatusCreated, "Contrato registrado", contrato)
}

// GetAllContratos -> lista contratos com seus itens
func (cc *ContratoController) GetAllContratos(c *gin.Context) {
	var contratos []models.Contrato
	if err := cc.DB.Preload("Itens").Order("id").Find(&contratos).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Lista de contratos", contratos)
}

// GetContratoByID -> detalhe de um contrato
func (cc *ContratoController) GetContratoByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("contrato_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var contrato models.Contrato
	if err := cc.DB.Preload("Itens").First(&contrato, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalhe do contrato", contrato)
}

// AtualizarAtivoItem -> PATCH /itens/:item_id/ativo; unico campo mutavel
// de um item de contrato
func (cc *ContratoController) AtualizarAtivoItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Ativo *bool `json:"ativo" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	var item models.ItemContrato
	if err := cc.DB.First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := cc.DB.Model(&item).Update("ativo", *req.Ativo).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Item de contrato %d: ativo=%v", item.ID, *req.Ativo)
	utils.RespondJSON(c, http.StatusOK, "Item atualizado", item)
}

func parseDataOpcional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := utils.ParseData(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
