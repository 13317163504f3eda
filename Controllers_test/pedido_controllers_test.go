package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/controllers"
	"github.com/gestao-compras/gestao-contratos/database"
	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/services"
	"github.com/gestao-compras/gestao-contratos/utils"
)

func setupTestDBForPedidos(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "pedidos_test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("falha ao abrir sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Contrato{},
		&models.ItemContrato{},
		&models.Aocs{},
		&models.Pedido{},
		&models.EntregaRegistro{},
	)
	if err != nil {
		t.Fatalf("falha no AutoMigrate: %v", err)
	}
	if err := database.ExecuteViews(db); err != nil {
		t.Fatalf("falha ao criar views: %v", err)
	}
	return db
}

func setupPedidoRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	ctrl := controllers.NewPedidoController(db)
	router.POST("/pedidos", ctrl.CreatePedido)
	router.GET("/pedidos/pendentes", ctrl.GetPedidosPendentes)
	router.GET("/pedidos/:pedido_id", ctrl.GetPedidoByID)
	router.GET("/pedidos/:pedido_id/entregas", ctrl.GetHistoricoEntregas)
	router.PUT("/pedidos/:pedido_id/registrar-entrega", ctrl.RegistrarEntrega)
	router.POST("/pedidos/entrega-lote", ctrl.RegistrarEntregaLote)
	router.DELETE("/pedidos/:pedido_id", ctrl.CancelarPedido)
	return router
}

// Semeia contrato, AOCS e pedido direto pelos servicos, devolvendo o pedido.
func seedPedidoHTTP(t *testing.T, db *gorm.DB, numeroContrato, numeroAocs, quantidade string) models.Pedido {
	t.Helper()
	item := seedItemContrato(t, db, numeroContrato, quantidade)
	svc := services.NewAocsService(db)
	aocs, err := svc.CriarAocs(services.AocsDados{
		NumeroAocs:          numeroAocs,
		UnidadeRequisitante: "Secretaria de Obras",
		Justificativa:       "Reposicao de estoque",
		DotacaoOrcamentaria: "02.001.0001",
		LocalEntrega:        "Almoxarifado Central",
		AgenteResponsavel:   "Maria Souza",
	}, []services.LinhaPedido{
		{ItemContratoID: item.ID, QuantidadePedida: decimal.RequireFromString(quantidade)},
	})
	if err != nil {
		t.Fatalf("falha ao semear pedido: %v", err)
	}
	return aocs.Pedidos[0]
}

func TestCreatePedidoViaAocs(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForPedidos(t)
	item := seedItemContrato(t, db, "CT-200/2026", "100.00")
	svc := services.NewAocsService(db)
	aocs, err := svc.CriarAocsMestre(services.AocsDados{
		NumeroAocs:          "AOCS-200/2026",
		UnidadeRequisitante: "Secretaria de Obras",
		Justificativa:       "Reposicao de estoque",
		DotacaoOrcamentaria: "02.001.0001",
		LocalEntrega:        "Almoxarifado Central",
		AgenteResponsavel:   "Maria Souza",
	})
	assert.NoError(t, err)
	router := setupPedidoRouter(db)

	body, _ := json.Marshal(map[string]interface{}{
		"item_contrato_id":  item.ID,
		"quantidade_pedida": "40.00",
	})
	req, _ := http.NewRequest("POST", "/pedidos?id_aocs="+strconv.Itoa(int(aocs.ID)), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data models.Pedido `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusEntregaPendente, resp.Data.StatusEntrega)
	assert.True(t, resp.Data.QuantidadePedida.Equal(decimal.RequireFromString("40.00")))

	// Sem id_aocs o endpoint nao tem a quem anexar o pedido
	req, _ = http.NewRequest("POST", "/pedidos", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRegistrarEntregaHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForPedidos(t)
	pedido := seedPedidoHTTP(t, db, "CT-201/2026", "AOCS-201/2026", "50.00")
	router := setupPedidoRouter(db)

	body, _ := json.Marshal(map[string]interface{}{
		"quantidade":   "30.00",
		"data_entrega": "2026-08-20",
		"nota_fiscal":  "NF-300",
	})
	url := "/pedidos/" + strconv.Itoa(int(pedido.ID)) + "/registrar-entrega"
	req, _ := http.NewRequest("PUT", url, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.Pedido `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusEntregaParcial, resp.Data.StatusEntrega)

	// Acima do restante -> o pedido permanece intacto
	body, _ = json.Marshal(map[string]interface{}{
		"quantidade":   "20.01",
		"data_entrega": "2026-08-21",
		"nota_fiscal":  "NF-301",
	})
	req, _ = http.NewRequest("PUT", url, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var atual models.Pedido
	assert.NoError(t, db.First(&atual, pedido.ID).Error)
	assert.True(t, atual.QuantidadeEntregue.Equal(decimal.RequireFromString("30.00")))
}

func TestRegistrarEntregaLoteHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForPedidos(t)
	pedidoA := seedPedidoHTTP(t, db, "CT-202/2026", "AOCS-202/2026", "50.00")
	pedidoB := seedPedidoHTTP(t, db, "CT-203/2026", "AOCS-203/2026", "50.00")
	router := setupPedidoRouter(db)

	// Linha invalida derruba o lote; a resposta lista as falhas
	body, _ := json.Marshal(map[string]interface{}{
		"data_entrega": "2026-08-20",
		"nota_fiscal":  "NF-310",
		"itens": []map[string]interface{}{
			{"id_pedido": pedidoA.ID, "quantidade": "10.00"},
			{"id_pedido": pedidoB.ID, "quantidade": "99.00"},
		},
	})
	req, _ := http.NewRequest("POST", "/pedidos/entrega-lote", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var falhaResp struct {
		Data struct {
			Falhas []services.FalhaItemLote `json:"falhas"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &falhaResp))
	if assert.Len(t, falhaResp.Data.Falhas, 1) {
		assert.Equal(t, pedidoB.ID, falhaResp.Data.Falhas[0].PedidoID)
	}

	var intacto models.Pedido
	assert.NoError(t, db.First(&intacto, pedidoA.ID).Error)
	assert.True(t, intacto.QuantidadeEntregue.IsZero())

	// Lote corrigido aplica tudo
	body, _ = json.Marshal(map[string]interface{}{
		"data_entrega": "2026-08-20",
		"nota_fiscal":  "NF-311",
		"itens": []map[string]interface{}{
			{"id_pedido": pedidoA.ID, "quantidade": "10.00"},
			{"id_pedido": pedidoB.ID, "quantidade": "50.00"},
		},
	})
	req, _ = http.NewRequest("POST", "/pedidos/entrega-lote", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var entregue models.Pedido
	assert.NoError(t, db.First(&entregue, pedidoB.ID).Error)
	assert.Equal(t, models.StatusEntregaEntregue, entregue.StatusEntrega)
}

func TestHistoricoEntregasHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForPedidos(t)
	pedido := seedPedidoHTTP(t, db, "CT-204/2026", "AOCS-204/2026", "50.00")
	router := setupPedidoRouter(db)

	for _, q := range []string{"10.00", "15.00"} {
		body, _ := json.Marshal(map[string]interface{}{
			"quantidade":   q,
			"data_entrega": "2026-08-20",
			"nota_fiscal":  "NF-" + q,
		})
		req, _ := http.NewRequest("PUT", "/pedidos/"+strconv.Itoa(int(pedido.ID))+"/registrar-entrega", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req, _ := http.NewRequest("GET", "/pedidos/"+strconv.Itoa(int(pedido.ID))+"/entregas", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.EntregaRegistro `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestCancelarPedidoHTTP(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForPedidos(t)
	pedido := seedPedidoHTTP(t, db, "CT-205/2026", "AOCS-205/2026", "50.00")
	router := setupPedidoRouter(db)

	req, _ := http.NewRequest("DELETE", "/pedidos/"+strconv.Itoa(int(pedido.ID)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var item models.ItemContrato
	assert.NoError(t, db.First(&item, pedido.ItemContratoID).Error)
	assert.True(t, item.QuantidadeReservada.IsZero())

	// Pedido inexistente
	req, _ = http.NewRequest("DELETE", "/pedidos/99999", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
