package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/database"
	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/router"
	"github.com/gestao-compras/gestao-contratos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// TestEndToEndIntegration cobre o fluxo principal do back-office:
// 0. Seed de usuario gestor, login -> token
// 1. Registro do contrato com dois itens
// 2. Submissao do carrinho -> AOCS com dois pedidos, saldo reservado
// 3. Entrega em lote (mesma NF) -> pedidos entregues
// 4. Saldos pela view refletem as reservas
// 5. Pedido extra cancelado devolve o saldo
func TestEndToEndIntegration(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db)

	token := loginTest(t, r)

	contrato := createContratoTest(t, r, token)
	if len(contrato.Itens) != 2 {
		t.Fatalf("esperava 2 itens no contrato, veio %d", len(contrato.Itens))
	}

	aocs := submeterCarrinhoTest(t, r, token, contrato)
	if len(aocs.Pedidos) != 2 {
		t.Fatalf("esperava 2 pedidos na AOCS, veio %d", len(aocs.Pedidos))
	}

	registrarEntregaLoteTest(t, r, token, aocs)
	verificarSaldosTest(t, r, token, contrato)
	cancelarPedidoExtraTest(t, r, token, aocs, contrato)
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "integration_test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("falha ao abrir sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
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

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	db.Create(&models.User{
		Name:     "Gestor de Compras",
		Email:    "gestor@prefeitura.gov.br",
		Password: string(hashed),
		Role:     "gestor",
	})

	return db
}

func doJSON(t *testing.T, r *gin.Engine, method, url, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("falha ao montar payload: %v", err)
		}
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginTest(t *testing.T, r *gin.Engine) string {
	w := doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"email":    "gestor@prefeitura.gov.br",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login falhou: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Token == "" {
		t.Fatal("login nao retornou token")
	}
	return resp.Data.Token
}

func createContratoTest(t *testing.T, r *gin.Engine, token string) models.Contrato {
	w := doJSON(t, r, http.MethodPost, "/api/contratos", token, map[string]interface{}{
		"numero_contrato": "CT-500/2026",
		"fornecedor":      "Distribuidora Alfa LTDA",
		"objeto":          "Material de limpeza",
		"itens": []map[string]interface{}{
			{
				"numero_item":           1,
				"descricao":             "Detergente neutro 5L",
				"unidade_medida":        "GL",
				"quantidade_contratada": "200.00",
				"valor_unitario":        "18.90",
			},
			{
				"numero_item":           2,
				"descricao":             "Alcool 70% 1L",
				"unidade_medida":        "UN",
				"quantidade_contratada": "300.00",
				"valor_unitario":        "7.20",
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("criacao do contrato falhou: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.Contrato `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Data
}

func submeterCarrinhoTest(t *testing.T, r *gin.Engine, token string, contrato models.Contrato) models.Aocs {
	w := doJSON(t, r, http.MethodPost, "/api/carrinho/submeter", token, map[string]interface{}{
		"unidade_requisitante_nome": "Secretaria de Educacao",
		"justificativa":             "Abastecimento das escolas",
		"dotacao_info_orcamentaria": "05.012.0003",
		"local_entrega_descricao":   "Deposito da Secretaria",
		"agente_responsavel_nome":   "Carlos Lima",
		"numeros_aocs": map[string]string{
			strconv.Itoa(int(contrato.ID)): "AOCS-500/2026",
		},
		"itens": []map[string]interface{}{
			{"item_contrato_id": contrato.Itens[0].ID, "quantidade": "120.00"},
			{"item_contrato_id": contrato.Itens[1].ID, "quantidade": "150.00"},
		},
		"modo": "atomico",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submissao do carrinho falhou: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Resultados []struct {
				Sucesso bool         `json:"sucesso"`
				Aocs    *models.Aocs `json:"aocs"`
			} `json:"resultados"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Data.Resultados) != 1 || !resp.Data.Resultados[0].Sucesso || resp.Data.Resultados[0].Aocs == nil {
		t.Fatalf("resultado inesperado do carrinho: %s", w.Body.String())
	}
	return *resp.Data.Resultados[0].Aocs
}

func registrarEntregaLoteTest(t *testing.T, r *gin.Engine, token string, aocs models.Aocs) {
	w := doJSON(t, r, http.MethodPost, "/api/pedidos/entrega-lote", token, map[string]interface{}{
		"data_entrega": "2026-08-25",
		"nota_fiscal":  "NF-2026-0042",
		"itens": []map[string]interface{}{
			{"id_pedido": aocs.Pedidos[0].ID, "quantidade": "120.00"},
			{"id_pedido": aocs.Pedidos[1].ID, "quantidade": "150.00"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("entrega em lote falhou: code=%d, body=%s", w.Code, w.Body.String())
	}

	for _, p := range aocs.Pedidos {
		w = doJSON(t, r, http.MethodGet, "/api/pedidos/"+strconv.Itoa(int(p.ID)), token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("consulta do pedido %d falhou: code=%d", p.ID, w.Code)
		}
		var resp struct {
			Data models.Pedido `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Data.StatusEntrega != models.StatusEntregaEntregue {
			t.Fatalf("pedido %d deveria estar entregue, status=%s", p.ID, resp.Data.StatusEntrega)
		}
	}
}

func verificarSaldosTest(t *testing.T, r *gin.Engine, token string, contrato models.Contrato) {
	w := doJSON(t, r, http.MethodGet, "/api/tabelas-sistema/contratos/"+strconv.Itoa(int(contrato.ID))+"/saldos", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("consulta de saldos falhou: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []models.VSaldoItemContrato `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Data) != 2 {
		t.Fatalf("esperava 2 saldos, veio %d", len(resp.Data))
	}

	// 200 - 120 = 80 e 300 - 150 = 150; entrega nao altera o consumo
	esperados := map[uint]decimal.Decimal{
		contrato.Itens[0].ID: decimal.RequireFromString("80.00"),
		contrato.Itens[1].ID: decimal.RequireFromString("150.00"),
	}
	for _, saldo := range resp.Data {
		esperado, ok := esperados[saldo.IDItemContrato]
		if !ok {
			t.Fatalf("saldo de item inesperado: %d", saldo.IDItemContrato)
		}
		if !saldo.SaldoDisponivel.Equal(esperado) {
			t.Fatalf("saldo do item %d: esperava %s, veio %s",
				saldo.IDItemContrato, esperado, saldo.SaldoDisponivel)
		}
	}
}

func cancelarPedidoExtraTest(t *testing.T, r *gin.Engine, token string, aocs models.Aocs, contrato models.Contrato) {
	// Pedido extra na mesma AOCS, depois cancelado: o saldo volta ao que era
	w := doJSON(t, r, http.MethodPost, "/api/pedidos?id_aocs="+strconv.Itoa(int(aocs.ID)), token, map[string]interface{}{
		"item_contrato_id":  contrato.Itens[0].ID,
		"quantidade_pedida": "50.00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("pedido extra falhou: code=%d, body=%s", w.Code, w.Body.String())
	}
	var criado struct {
		Data models.Pedido `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &criado)

	w = doJSON(t, r, http.MethodDelete, "/api/pedidos/"+strconv.Itoa(int(criado.Data.ID)), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancelamento falhou: code=%d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/tabelas-sistema/itens-contrato/"+strconv.Itoa(int(contrato.Itens[0].ID))+"/saldo", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("consulta de saldo falhou: code=%d", w.Code)
	}
	var saldo struct {
		Data models.VSaldoItemContrato `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &saldo)
	if !saldo.Data.SaldoDisponivel.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("saldo apos cancelamento: esperava 80.00, veio %s", saldo.Data.SaldoDisponivel)
	}
}
