package database

import (
	"gorm.io/gorm"

	"github.com/gestao-compras/gestao-contratos/utils"
)

// saldoViewBody recomputa o consumo de cada item a partir dos pedidos
// nao cancelados, independente do contador mantido pelo ledger. E a
// fonte dos endpoints de leitura de saldo e da checagem de integridade.
const saldoViewBody = ` v_saldo_itens_contrato AS
SELECT
    ic.id                    AS id_item_contrato,
    ic.contrato_id           AS id_contrato,
    ic.descricao             AS nome_item,
    ic.quantidade_contratada AS quantidade_contratada,
    COALESCE(SUM(CASE WHEN p.status_entrega <> 'Cancelado' THEN p.quantidade_pedida ELSE 0 END), 0) AS total_consumido,
    ic.quantidade_contratada - COALESCE(SUM(CASE WHEN p.status_entrega <> 'Cancelado' THEN p.quantidade_pedida ELSE 0 END), 0) AS saldo_disponivel
FROM itens_contrato ic
LEFT JOIN pedidos p ON p.item_contrato_id = ic.id
GROUP BY ic.id, ic.contrato_id, ic.descricao, ic.quantidade_contratada`

// ExecuteViews cria a view de saldos. SQLite nao aceita OR REPLACE em
// views, entao o prefixo varia por dialeto.
func ExecuteViews(db *gorm.DB) error {
	create := "CREATE OR REPLACE VIEW"
	if db.Dialector.Name() == "sqlite" {
		create = "CREATE VIEW IF NOT EXISTS"
	}

	if err := db.Exec(create + saldoViewBody).Error; err != nil {
		utils.ErrorLogger.Printf("Erro ao criar view de saldos: %v", err)
		return err
	}

	utils.InfoLogger.Println("View v_saldo_itens_contrato pronta")
	return nil
}
