package scout

// scout.go — agente de descubrimiento matemático. Keyword-blind.
//
// Fetch de mercados → detección de anomalías → merge en el blackboard.
// Un fallo del proveedor degrada a lista vacía y el scan se convierte en
// no-op: el loop nunca muere por un error de red.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

const defaultFetchLimit = 100

// Scout implementa ports.Agent.
type Scout struct {
	markets    ports.MarketProvider
	board      ports.BlackboardStore
	history    ports.HistoryStore // opcional
	fetchLimit int
	now        func() time.Time
}

// New crea un Scout. history puede ser nil; fetchLimit <= 0 usa el default.
func New(markets ports.MarketProvider, board ports.BlackboardStore, history ports.HistoryStore, fetchLimit int) *Scout {
	if fetchLimit <= 0 {
		fetchLimit = defaultFetchLimit
	}
	return &Scout{
		markets:    markets,
		board:      board,
		history:    history,
		fetchLimit: fetchLimit,
		now:        time.Now,
	}
}

func (s *Scout) Name() string { return "scout" }

// RunOnce ejecuta un ciclo de scan completo.
func (s *Scout) RunOnce(ctx context.Context) error {
	snapshots, err := s.markets.FetchMarkets(ctx, s.fetchLimit)
	if err != nil {
		// Fallo transitorio del colaborador: se loguea y el ciclo sigue vacío
		slog.Warn("scout fetch failed, skipping scan", "err", err)
		return nil
	}
	if len(snapshots) == 0 {
		slog.Info("scout: no markets fetched, aborting scan")
		return nil
	}

	now := s.now()
	opps := domain.DetectAnomalies(snapshots, now)

	var added int
	err = s.board.Update(func(b *domain.Blackboard) error {
		added = b.MergeOpportunities(opps, now)
		// La señal de capital liberado se consume aquí: el scout ya ha
		// vuelto a buscar oportunidades frescas.
		b.CapitalFreed = false
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("scout scan complete",
		"markets", len(snapshots),
		"anomalies", len(opps),
		"merged", added,
	)
	s.logTopDiscoveries(opps)

	if s.history != nil {
		summary := ports.CycleSummary{
			ID:            uuid.New().String(),
			Agent:         s.Name(),
			ScannedAt:     now.UTC(),
			MarketsSeen:   len(snapshots),
			Opportunities: len(opps),
			BestScore:     bestScore(opps),
		}
		if err := s.history.SaveCycle(ctx, summary, opps); err != nil {
			slog.Warn("scout history save failed", "err", err)
		}
	}
	return nil
}

// logTopDiscoveries loguea los 5 mejores hallazgos del ciclo.
func (s *Scout) logTopDiscoveries(opps []domain.Opportunity) {
	for i, opp := range opps {
		if i >= 5 {
			break
		}
		slog.Info("discovery",
			"rank", i+1,
			"anomaly", opp.AnomalyType,
			"score", opp.Score,
			"question", opp.Question,
			"bid", opp.BestBid,
			"ask", opp.BestAsk,
		)
	}
}

func bestScore(opps []domain.Opportunity) float64 {
	if len(opps) == 0 {
		return 0
	}
	return opps[0].Score // ya vienen ordenadas por score desc
}
