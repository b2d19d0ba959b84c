package ports

import (
	"context"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// MarketProvider obtiene snapshots de mercados del proveedor de datos.
type MarketProvider interface {
	// FetchMarkets devuelve hasta limit mercados activos y abiertos,
	// ordenados por volumen 24h descendente.
	FetchMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error)
}

// MarketStatus es el estado puntual de un mercado consultado por condition ID.
type MarketStatus struct {
	Closed    bool
	BestBid   float64
	BestAsk   float64
	LastPrice float64
}

// MarketStatusProvider consulta si un mercado concreto sigue abierto.
type MarketStatusProvider interface {
	// MarketStatus devuelve el estado del mercado. Un fallo de red se
	// degrada a "abierto sin precio", nunca a error.
	MarketStatus(ctx context.Context, conditionID string) MarketStatus
}
