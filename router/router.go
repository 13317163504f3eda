package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/controllers"
	"github.com/gestao-compras/gestao-contratos/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	contratoCtrl := controllers.NewContratoController(db)
	aocsCtrl := controllers.NewAocsController(db)
	pedidoCtrl := controllers.NewPedidoController(db)
	tabelasCtrl := controllers.NewTabelasController(db)
	carrinhoCtrl := controllers.NewCarrinhoController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Login/registro com limitador estrito
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                 API (autenticada)
	// ----------------------------------------------------------------
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	// Escrita restrita a gestores (admin sempre passa)
	escrita := middlewares.RequireRoles("gestor")

	contratos := api.Group("/contratos")
	{
		contratos.POST("", escrita, contratoCtrl.CreateContrato)
		contratos.GET("", contratoCtrl.GetAllContratos)
		contratos.GET("/:contrato_id", contratoCtrl.GetContratoByID)
		contratos.PATCH("/itens/:item_id/ativo", escrita, contratoCtrl.AtualizarAtivoItem)
	}

	aocs := api.Group("/aocs")
	{
		aocs.POST("", escrita, aocsCtrl.CreateAocs)
		aocs.GET("", aocsCtrl.GetAllAocs)
		aocs.GET("/:aocs_id", aocsCtrl.GetAocsByID)
	}

	pedidos := api.Group("/pedidos")
	{
		pedidos.POST("", escrita, pedidoCtrl.CreatePedido) // ?id_aocs=
		pedidos.GET("", pedidoCtrl.GetAllPedidos)
		pedidos.GET("/pendentes", pedidoCtrl.GetPedidosPendentes)
		pedidos.GET("/por-aocs/:id_aocs", pedidoCtrl.GetPedidosByAocs)
		pedidos.GET("/:pedido_id", pedidoCtrl.GetPedidoByID)
		pedidos.GET("/:pedido_id/entregas", pedidoCtrl.GetHistoricoEntregas)
		pedidos.PUT("/:pedido_id/registrar-entrega", escrita, pedidoCtrl.RegistrarEntrega)
		pedidos.POST("/entrega-lote", escrita, pedidoCtrl.RegistrarEntregaLote)
		pedidos.DELETE("/:pedido_id", escrita, pedidoCtrl.CancelarPedido)
	}

	api.GET("/tabelas-sistema/itens-contrato/:item_id/saldo", tabelasCtrl.GetSaldoItem)
	api.GET("/tabelas-sistema/contratos/:contrato_id/saldos", tabelasCtrl.GetSaldosContrato)

	api.POST("/carrinho/submeter", escrita, carrinhoCtrl.SubmeterCarrinho)

	return r
}
