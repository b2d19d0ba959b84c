package storage

// sqlite.go — histórico de scans para auditoría posterior.
//
// Estrategia:
//   - `cycles`: una fila ligera por ciclo de cada agente (scout, dualside,
//     guardian) con contadores y best score.
//   - `opportunities`: UNA fila por mercado (UPSERT) con first_seen,
//     last_seen y peak_score. El blackboard solo guarda las últimas 50;
//     aquí queda el histórico completo para el post-mortem.
//   - Prune automático al arrancar: cycles > 30d, opportunities no vistas
//     en 14d (la mayoría de mercados resuelven antes).

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS cycles (
    id            TEXT PRIMARY KEY,
    agent         TEXT     NOT NULL,
    scanned_at    DATETIME NOT NULL,
    markets_seen  INTEGER  NOT NULL DEFAULT 0,
    opportunities INTEGER  NOT NULL DEFAULT 0,
    best_score    REAL     NOT NULL DEFAULT 0,
    risk_state    TEXT     NOT NULL DEFAULT ''
);

-- Una fila por mercado detectado, sin duplicados
CREATE TABLE IF NOT EXISTS opportunities (
    condition_id  TEXT PRIMARY KEY,
    question      TEXT,
    anomaly_type  TEXT    NOT NULL,
    score         REAL    NOT NULL DEFAULT 0,
    best_bid      REAL    NOT NULL DEFAULT 0,
    best_ask      REAL    NOT NULL DEFAULT 0,
    spread_pct    REAL    NOT NULL DEFAULT 0,
    volume_24h    REAL    NOT NULL DEFAULT 0,
    liquidity     REAL    NOT NULL DEFAULT 0,
    profit_pct    REAL    NOT NULL DEFAULT 0,
    first_seen    DATETIME NOT NULL,
    last_seen     DATETIME NOT NULL,
    peak_score    REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cycles_at   ON cycles(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_type    ON opportunities(anomaly_type);
CREATE INDEX IF NOT EXISTS idx_opp_last    ON opportunities(last_seen DESC);
`

const (
	retentionCycles = 30 * 24 * time.Hour
	retentionOpps   = 14 * 24 * time.Hour
)

// SQLiteHistory implementa ports.HistoryStore usando SQLite (pure Go, sin CGo).
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia datos antiguos.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteHistory: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteHistory: apply schema: %w", err)
	}

	s := &SQLiteHistory{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCycle persiste el resumen del ciclo y hace upsert de las
// oportunidades detectadas en él.
func (s *SQLiteHistory) SaveCycle(ctx context.Context, summary ports.CycleSummary, opps []domain.Opportunity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycles (id, agent, scanned_at, markets_seen, opportunities, best_score, risk_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.Agent, summary.ScannedAt.UTC(),
		summary.MarketsSeen, summary.Opportunities, summary.BestScore, string(summary.RiskState),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}

	for _, opp := range opps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO opportunities (
				condition_id, question, anomaly_type, score, best_bid, best_ask,
				spread_pct, volume_24h, liquidity, profit_pct,
				first_seen, last_seen, peak_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(condition_id) DO UPDATE SET
				question     = excluded.question,
				anomaly_type = excluded.anomaly_type,
				score        = excluded.score,
				best_bid     = excluded.best_bid,
				best_ask     = excluded.best_ask,
				spread_pct   = excluded.spread_pct,
				volume_24h   = excluded.volume_24h,
				liquidity    = excluded.liquidity,
				profit_pct   = excluded.profit_pct,
				last_seen    = excluded.last_seen,
				peak_score   = MAX(peak_score, excluded.score)`,
			opp.ConditionID, opp.Question, string(opp.AnomalyType), opp.Score,
			opp.BestBid, opp.BestAsk, opp.SpreadPct, opp.Volume24h, opp.Liquidity,
			opp.ProfitPct, opp.DiscoveredAt.UTC(), summary.ScannedAt.UTC(), opp.Score,
		)
		if err != nil {
			return fmt.Errorf("storage.SaveCycle: upsert opportunity %s: %w", opp.ConditionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return nil
}

// RecentCycles devuelve los últimos n resúmenes, el más reciente primero.
func (s *SQLiteHistory) RecentCycles(ctx context.Context, n int) ([]ports.CycleSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent, scanned_at, markets_seen, opportunities, best_score, risk_state
		FROM cycles ORDER BY scanned_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCycles: query: %w", err)
	}
	defer rows.Close()

	var out []ports.CycleSummary
	for rows.Next() {
		var c ports.CycleSummary
		var riskState string
		if err := rows.Scan(&c.ID, &c.Agent, &c.ScannedAt, &c.MarketsSeen, &c.Opportunities, &c.BestScore, &riskState); err != nil {
			return nil, fmt.Errorf("storage.RecentCycles: scan: %w", err)
		}
		c.RiskState = domain.RiskState(riskState)
		out = append(out, c)
	}
	return out, rows.Err()
}

// pruneOld limpia datos fuera de retención. Best-effort: un fallo aquí no
// impide arrancar.
func (s *SQLiteHistory) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`, now.Add(-retentionCycles))
	s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE last_seen < ?`, now.Add(-retentionOpps))
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}
