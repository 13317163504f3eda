package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/services"
	"github.com/gestao-compras/gestao-contratos/utils"
)

type CarrinhoController struct {
	DB      *gorm.DB
	service *services.CarrinhoService
}

func NewCarrinhoController(db *gorm.DB) *CarrinhoController {
	return &CarrinhoController{DB: db, service: services.NewCarrinhoService(db)}
}

type itemCarrinhoReq struct {
	ItemContratoID uint   `json:"item_contrato_id" binding:"required"`
	Quantidade     string `json:"quantidade" binding:"required"`
}

type carrinhoReq struct {
	UnidadeRequisitante string            `json:"unidade_requisitante_nome" binding:"required"`
	Justificativa       string            `json:"justificativa" binding:"required"`
	DotacaoOrcamentaria string            `json:"dotacao_info_orcamentaria" binding:"required"`
	LocalEntrega        string            `json:"local_entrega_descricao" binding:"required"`
	AgenteResponsavel   string            `json:"agente_responsavel_nome" binding:"required"`
	NumerosAocs         map[uint]string   `json:"numeros_aocs" binding:"required"`
	Itens               []itemCarrinhoReq `json:"itens" binding:"required"`
	Modo                string            `json:"modo"`
}

// SubmeterCarrinho -> POST /api/carrinho/submeter; uma AOCS por contrato
// presente no carrinho. Modo "parcial" (padrao) mantem as AOCS que
// deram certo e reporta as falhas por contrato; modo "atomico" desfaz
// tudo na primeira falha.
func (kc *CarrinhoController) SubmeterCarrinho(c *gin.Context) {
	var req carrinhoReq
	if !bindJSON(c, &req) {
		return
	}

	itens := make([]services.ItemCarrinho, 0, len(req.Itens))
	for _, it := range req.Itens {
		qtd, err := utils.ParseQuantia(it.Quantidade)
		if err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, err)
			return
		}
		itens = append(itens, services.ItemCarrinho{ItemContratoID: it.ItemContratoID, Quantidade: qtd})
	}

	carrinho := services.Carrinho{
		Dados: services.AocsDados{
			UnidadeRequisitante: req.UnidadeRequisitante,
			Justificativa:       req.Justificativa,
			DotacaoOrcamentaria: req.DotacaoOrcamentaria,
			LocalEntrega:        req.LocalEntrega,
			AgenteResponsavel:   req.AgenteResponsavel,
		},
		NumerosAocs: req.NumerosAocs,
		Itens:       itens,
		Modo:        req.Modo,
	}

	resultados, err := kc.service.Submeter(carrinho)
	if err != nil {
		if len(resultados) > 0 {
			// Modo atomico: nada persistido; devolve o detalhe por contrato
			utils.RespondJSON(c, statusDoErro(err), err.Error(), gin.H{"resultados": resultados})
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Carrinho processado", gin.H{"resultados": resultados})
}

// statusDoErro espelha o mapeamento de respondServiceError sem escrever
// a resposta, para anexar os resultados por contrato ao corpo.
func statusDoErro(err error) int {
	var (
		saldo  *services.ErrSaldoInsuficiente
		naoEnc *services.ErrNaoEncontrado
	)
	switch {
	case errors.As(err, &naoEnc):
		return http.StatusNotFound
	case errors.As(err, &saldo), errors.Is(err, services.ErrConflito):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
