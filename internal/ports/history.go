package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// CycleSummary es el resumen de un ciclo de scan para el histórico.
type CycleSummary struct {
	ID            string // uuid del ciclo
	Agent         string // scout | dualside | guardian
	ScannedAt     time.Time
	MarketsSeen   int
	Opportunities int
	BestScore     float64
	RiskState     domain.RiskState // solo lo rellena el guardian
}

// HistoryStore persiste el histórico de scans para auditoría posterior.
type HistoryStore interface {
	// SaveCycle registra el resumen del ciclo y hace upsert de las
	// oportunidades detectadas en él.
	SaveCycle(ctx context.Context, summary CycleSummary, opps []domain.Opportunity) error

	// RecentCycles devuelve los últimos n resúmenes, el más reciente primero.
	RecentCycles(ctx context.Context, n int) ([]CycleSummary, error)

	Close() error
}
