package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseQuantia converte a representacao de fronteira (string decimal com
// ponto como separador, ex: "12.50") em decimal. Formatacao localizada
// (virgula) e assunto da camada de apresentacao e nunca chega aqui.
func ParseQuantia(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("quantidade vazia")
	}
	if strings.Contains(s, ",") {
		return decimal.Zero, fmt.Errorf("separador decimal invalido em %q (use ponto)", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quantidade invalida %q: %w", s, err)
	}
	return d, nil
}

// FormatQuantia devolve a quantia no formato de fronteira (duas casas).
func FormatQuantia(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseData converte datas no formato ISO (AAAA-MM-DD).
func ParseData(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("data invalida %q (esperado AAAA-MM-DD)", s)
	}
	return t, nil
}
