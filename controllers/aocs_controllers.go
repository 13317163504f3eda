package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/services"
	"github.com/gestao-compras/gestao-contratos/utils"
)

type AocsController struct {
	DB      *gorm.DB
	service *services.AocsService
}

func NewAocsController(db *gorm.DB) *AocsController {
	return &AocsController{DB: db, service: services.NewAocsService(db)}
}

type pedidoReq struct {
	ItemContratoID   uint   `json:"item_contrato_id" binding:"required"`
	QuantidadePedida string `json:"quantidade_pedida" binding:"required"`
}

type aocsCreateReq struct {
	NumeroAocs          string  `json:"numero_aocs" binding:"required"`
	UnidadeRequisitante string  `json:"unidade_requisitante_nome" binding:"required"`
	Justificativa       string  `json:"justificativa" binding:"required"`
	DotacaoOrcamentaria string  `json:"dotacao_info_orcamentaria" binding:"required"`
	LocalEntrega        string  `json:"local_entrega_descricao" binding:"required"`
	AgenteResponsavel   string  `json:"agente_responsavel_nome" binding:"required"`
	DataCriacao         string  `json:"data_criacao"`
	NumeroPedido        *string `json:"numero_pedido"`
	Empenho             *string `json:"empenho"`
	// Opcional: cria a AOCS ja com seus pedidos em uma unica transacao
	Pedidos []pedidoReq `json:"pedidos"`
}

func (r aocsCreateReq) dados(c *gin.Context) (services.AocsDados, bool) {
	dados := services.AocsDados{
		NumeroAocs:          r.NumeroAocs,
		UnidadeRequisitante: r.UnidadeRequisitante,
		Justificativa:       r.Justificativa,
		DotacaoOrcamentaria: r.DotacaoOrcamentaria,
		LocalEntrega:        r.LocalEntrega,
		AgenteResponsavel:   r.AgenteResponsavel,
		NumeroPedido:        r.NumeroPedido,
		Empenho:             r.Empenho,
	}
	if r.DataCriacao != "" {
		data, err := utils.ParseData(r.DataCriacao)
		if err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return dados, false
		}
		dados.DataCriacao = data
	}
	return dados, true
}

// CreateAocs -> cria a AOCS; com "pedidos" no corpo, reserva o saldo de
// todas as linhas como unidade atomica
func (ac *AocsController) CreateAocs(c *gin.Context) {
	var req aocsCreateReq
	if !bindJSON(c, &req) {
		return
	}

	dados, ok := req.dados(c)
	if !ok {
		return
	}

	if len(req.Pedidos) == 0 {
		aocs, err := ac.service.CriarAocsMestre(dados)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusCreated, "AOCS criada", aocs)
		return
	}

	linhas := make([]services.LinhaPedido, 0, len(req.Pedidos))
	for _, p := range req.Pedidos {
		qtd, err := utils.ParseQuantia(p.QuantidadePedida)
		if err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return
		}
		linhas = append(linhas, services.LinhaPedido{ItemContratoID: p.ItemContratoID, QuantidadePedida: qtd})
	}

	aocs, err := ac.service.CriarAocs(dados, linhas)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "AOCS criada", aocs)
}

// GetAllAocs -> lista AOCS com seus pedidos
func (ac *AocsController) GetAllAocs(c *gin.Context) {
	var lista []models.Aocs
	if err := ac.DB.Preload("Pedidos").Order("id").Find(&lista).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Lista de AOCS", lista)
}

// GetAocsByID -> detalhe de uma AOCS
func (ac *AocsController) GetAocsByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("aocs_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var aocs models.Aocs
	if err := ac.DB.Preload("Pedidos.ItemContrato").First(&aocs, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalhe da AOCS", aocs)
}
