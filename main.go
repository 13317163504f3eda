package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/config"
	"github.com/gestao-compras/gestao-contratos/database"
	"github.com/gestao-compras/gestao-contratos/middlewares"
	"github.com/gestao-compras/gestao-contratos/models"
	"github.com/gestao-compras/gestao-contratos/router"
	"github.com/gestao-compras/gestao-contratos/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: arquivo .env nao encontrado: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Falha ao conectar no banco: %v", err)
	}

	// Guarda a conexao para os controllers
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Limitador global (50 req/s por IP)
	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Escutando na porta %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Contrato{},
		&models.ItemContrato{},
		&models.Aocs{},
		&models.Pedido{},
		&models.EntregaRegistro{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Falha no AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate concluido.")

	if err := database.ExecuteViews(db); err != nil {
		utils.ErrorLogger.Fatalf("Falha ao preparar views: %v", err)
	}
}
