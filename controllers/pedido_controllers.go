package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/services"
	"github.com/gestao-compras/gestao-contratos/utils"
)

type PedidoController struct {
	DB      *gorm.DB
	aocs    *services.AocsService
	entrega *services.EntregaService
}

func NewPedidoController(db *gorm.DB) *PedidoController {
	return &PedidoController{
		DB:      db,
		aocs:    services.NewAocsService(db),
		entrega: services.NewEntregaService(db),
	}
}

// CreatePedido -> adiciona uma linha a AOCS indicada em ?id_aocs=,
// reservando saldo do item
func (pc *PedidoController) CreatePedido(c *gin.Context) {
	idAocs, err := strconv.Atoi(c.Query("id_aocs"))
	if err != nil || idAocs <= 0 {
		utils.RespondError(c, http.StatusUnprocessableEntity, errors.New("parametro id_aocs obrigatorio"))
		return
	}

	var req pedidoReq
	if !bindJSON(c, &req) {
		return
	}

	qtd, err := utils.ParseQuantia(req.QuantidadePedida)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	pedido, err := pc.aocs.AdicionarPedido(uint(idAocs), req.ItemContratoID, qtd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Pedido criado", pedido)
}

// GetAllPedidos -> lista todos os pedidos
func (pc *PedidoController) GetAllPedidos(c *gin.Context) {
	var pedidos []models.Pedido
	if err := pc.DB.Preload("ItemContrato").Order("aocs_id, id").Find(&pedidos).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Lista de pedidos", pedidos)
}

// GetPedidosByAocs -> pedidos de uma AOCS
func (pc *PedidoController) GetPedidosByAocs(c *gin.Context) {
	idAocs, err := strconv.Atoi(c.Param("id_aocs"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var pedidos []models.Pedido
	if err := pc.DB.Preload("ItemContrato").Where("aocs_id = ?", idAocs).Order("id").Find(&pedidos).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pedidos da AOCS", pedidos)
}

// GetPedidosPendentes -> linhas ainda nao totalmente entregues
func (pc *PedidoController) GetPedidosPendentes(c *gin.Context) {
	var pedidos []models.Pedido
	err := pc.DB.Preload("ItemContrato").
		Where("status_entrega IN ?", []string{models.StatusEntregaPendente, models.StatusEntregaParcial}).
		Order("aocs_id, id").
		Find(&pedidos).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pedidos pendentes", pedidos)
}

// GetPedidoByID -> detalhe de um pedido
func (pc *PedidoController) GetPedidoByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("pedido_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var pedido models.Pedido
	if err := pc.DB.Preload("ItemContrato").First(&pedido, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalhe do pedido", pedido)
}

type entregaReq struct {
	Quantidade  string `json:"quantidade" binding:"required"`
	DataEntrega string `json:"data_entrega" binding:"required"`
	NotaFiscal  string `json:"nota_fiscal" binding:"required"`
}

// RegistrarEntrega -> PUT /:pedido_id/registrar-entrega
func (pc *PedidoController) RegistrarEntrega(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("pedido_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req entregaReq
	if !bindJSON(c, &req) {
		return
	}

	qtd, err := utils.ParseQuantia(req.Quantidade)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}
	data, err := utils.ParseData(req.DataEntrega)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	pedido, err := pc.entrega.RegistrarEntrega(uint(id), qtd, data, req.NotaFiscal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Entrega registrada", pedido)
}

type itemLoteReq struct {
	PedidoID   uint   `json:"id_pedido" binding:"required"`
	Quantidade string `json:"quantidade" binding:"required"`
}

type entregaLoteReq struct {
	DataEntrega string        `json:"data_entrega" binding:"required"`
	NotaFiscal  string        `json:"nota_fiscal" binding:"required"`
	Itens       []itemLoteReq `json:"itens" binding:"required"`
}

// RegistrarEntregaLote -> POST /entrega-lote; o lote e atomico: ou todos
// os itens sao aplicados, ou nenhum
func (pc *PedidoController) RegistrarEntregaLote(c *gin.Context) {
	var req entregaLoteReq
	if !bindJSON(c, &req) {
		return
	}

	data, err := utils.ParseData(req.DataEntrega)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	itens := make([]services.ItemLote, 0, len(req.Itens))
	for _, it := range req.Itens {
		qtd, err := utils.ParseQuantia(it.Quantidade)
		if err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return
		}
		itens = append(itens, services.ItemLote{PedidoID: it.PedidoID, Quantidade: qtd})
	}

	pedidos, err := pc.entrega.RegistrarEntregaLote(data, req.NotaFiscal, itens)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Entregas registradas", pedidos)
}

// GetHistoricoEntregas -> registros de entrega de um pedido
func (pc *PedidoController) GetHistoricoEntregas(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("pedido_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	registros, err := pc.entrega.HistoricoEntregas(uint(id))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Historico de entregas", registros)
}

// CancelarPedido -> DELETE /:pedido_id; marca como cancelado e devolve a
// quantidade ao saldo do item
func (pc *PedidoController) CancelarPedido(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("pedido_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	pedido, err := pc.aocs.CancelarPedido(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pedido cancelado", pedido)
}
