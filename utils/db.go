package utils

import (
	"sync"

	"gorm.io/gorm"
)

var (
	db   *gorm.DB
	once sync.Once
	mu   sync.RWMutex
)

// InitDB guarda a conexao para uso pelos controllers
func InitDB(database *gorm.DB) {
	once.Do(func() {
		db = database
	})
}

// GetDB retorna a conexao com o banco
func GetDB() *gorm.DB {
	mu.RLock()
	defer mu.RUnlock()
	return db
}
