package dualside

// dualside.go — agente de arbitraje de doble lado (la estrategia de comprar
// YES y NO cuando su coste conjunto queda por debajo de $1).
//
// Comparte el pipeline del scout: fetch → detección pura → merge en el
// blackboard con el mismo dedupe y cap.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

const defaultFetchLimit = 200

// Scanner implementa ports.Agent.
type Scanner struct {
	markets    ports.MarketProvider
	board      ports.BlackboardStore
	history    ports.HistoryStore // opcional
	fetchLimit int
	cryptoOnly bool // variante restringida a mercados de precio crypto
	now        func() time.Time
}

// New crea un Scanner de doble lado sobre todos los mercados.
func New(markets ports.MarketProvider, board ports.BlackboardStore, history ports.HistoryStore, fetchLimit int) *Scanner {
	if fetchLimit <= 0 {
		fetchLimit = defaultFetchLimit
	}
	return &Scanner{
		markets:    markets,
		board:      board,
		history:    history,
		fetchLimit: fetchLimit,
		now:        time.Now,
	}
}

// NewCrypto crea la variante restringida a mercados de volatilidad crypto.
func NewCrypto(markets ports.MarketProvider, board ports.BlackboardStore, history ports.HistoryStore, fetchLimit int) *Scanner {
	s := New(markets, board, history, fetchLimit)
	s.cryptoOnly = true
	return s
}

func (s *Scanner) Name() string {
	if s.cryptoOnly {
		return "dualside-crypto"
	}
	return "dualside"
}

// RunOnce escanea todos los mercados buscando YES+NO < $1.
func (s *Scanner) RunOnce(ctx context.Context) error {
	snapshots, err := s.markets.FetchMarkets(ctx, s.fetchLimit)
	if err != nil {
		slog.Warn("dualside fetch failed, skipping scan", "err", err)
		return nil
	}

	now := s.now()
	var opps []domain.Opportunity
	if s.cryptoOnly {
		opps = domain.DetectDualSideCrypto(snapshots, now)
	} else {
		opps = domain.DetectDualSide(snapshots, now)
	}

	if len(opps) == 0 {
		slog.Debug("dualside: markets efficiently priced", "scanned", len(snapshots))
		return nil
	}

	var added int
	err = s.board.Update(func(b *domain.Blackboard) error {
		added = b.MergeOpportunities(opps, now)
		return nil
	})
	if err != nil {
		return err
	}

	for _, opp := range opps {
		slog.Info("dual-side arbitrage found",
			"question", opp.Question,
			"yes", opp.YesPrice,
			"no", opp.NoPrice,
			"total_cost", opp.TotalCost,
			"profit_pct", opp.ProfitPct,
		)
	}

	if s.history != nil {
		summary := ports.CycleSummary{
			ID:            uuid.New().String(),
			Agent:         s.Name(),
			ScannedAt:     now.UTC(),
			MarketsSeen:   len(snapshots),
			Opportunities: len(opps),
			BestScore:     opps[0].Score,
		}
		if err := s.history.SaveCycle(ctx, summary, opps); err != nil {
			slog.Warn("dualside history save failed", "err", err)
		}
	}

	slog.Info("dualside scan complete", "scanned", len(snapshots), "found", len(opps), "merged", added)
	return nil
}
