package guardian

// guardian.go — motor de riesgo y compliance. Vigila a los demás agentes.
//
// Responsabilidades:
//   1. Monitorizar posiciones activas hasta su settlement
//   2. Alertar posiciones que superan el stop-loss
//   3. Vigilar el balance de gas (POL)
//   4. Reciclar capital cuando los mercados resuelven
//
// El scan periódico NUNCA pone ni quita HALTED: ese estado pertenece en
// exclusiva a EmergencyHalt/ResumeTrading.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

// Limits son los límites de riesgo del guardian.
type Limits struct {
	MinGasBalance    float64 // POL mínimo para operar
	MaxLossPercent   float64 // stop-loss por posición
	MaxTotalExposure float64 // exposición total máxima en USDC
}

// DefaultLimits devuelve los límites de producción.
func DefaultLimits() Limits {
	return Limits{
		MinGasBalance:    1.0,
		MaxLossPercent:   20.0,
		MaxTotalExposure: 50.0,
	}
}

// ScanResult resume un scan del guardian para el orquestador.
type ScanResult struct {
	RiskState     domain.RiskState
	Alerts        []string
	ResolvedCount int
	TotalExposure float64
}

// Guardian implementa ports.Agent.
type Guardian struct {
	limits  Limits
	board   ports.BlackboardStore
	wallet  ports.WalletProvider
	status  ports.MarketStatusProvider
	history ports.HistoryStore // opcional
	now     func() time.Time
}

// New crea un Guardian con las dependencias inyectadas. history puede ser nil.
func New(limits Limits, board ports.BlackboardStore, wallet ports.WalletProvider, status ports.MarketStatusProvider, history ports.HistoryStore) *Guardian {
	if limits.MinGasBalance <= 0 {
		limits = DefaultLimits()
	}
	return &Guardian{
		limits:  limits,
		board:   board,
		wallet:  wallet,
		status:  status,
		history: history,
		now:     time.Now,
	}
}

func (g *Guardian) Name() string { return "guardian" }

// RunOnce ejecuta un scan y devuelve nil salvo fallo de persistencia.
func (g *Guardian) RunOnce(ctx context.Context) error {
	_, err := g.Scan(ctx)
	return err
}

// Scan ejecuta el ciclo completo de monitorización, en este orden exacto:
// balances → posiciones (P&L y stop-loss) → exposición total → settlement.
//
// Nota de comportamiento heredado: el check de exposición corre DESPUÉS del
// loop de stop-loss y sobreescribe risk_state a WARNING incondicionalmente,
// degradando un CRITICAL puesto en el mismo scan si ambos aplican. Se
// conserva tal cual hasta que producto decida lo contrario.
func (g *Guardian) Scan(ctx context.Context) (ScanResult, error) {
	// Los balances y el estado de cada mercado se consultan fuera del lock
	// del blackboard: son llamadas de red y el lock serializa a todos los
	// agentes. Primero un snapshot de posiciones, luego la red, y al final
	// un Update corto que aplica los resultados.
	balances := g.wallet.Balances(ctx)

	var halted bool
	var positions []domain.Position
	g.board.View(func(b *domain.Blackboard) {
		if b.RiskState == domain.RiskHalted {
			halted = true
			return
		}
		positions = append(positions, b.ActivePositions...)
	})
	if halted {
		// Sistema parado manualmente: no se reevalúa nada, el orquestador
		// abortará el ciclo al ver el estado.
		return ScanResult{RiskState: domain.RiskHalted}, nil
	}

	statuses := make(map[string]ports.MarketStatus, len(positions))
	for _, pos := range positions {
		statuses[pos.ConditionID] = g.status.MarketStatus(ctx, pos.ConditionID)
	}

	var result ScanResult
	err := g.board.Update(func(b *domain.Blackboard) error {
		if b.RiskState == domain.RiskHalted {
			// Halt manual llegado durante las consultas de red: se respeta.
			result = ScanResult{RiskState: domain.RiskHalted}
			return nil
		}

		riskState := domain.RiskHealthy
		alerts := []string{}

		// 1. Salud de la wallet
		if balances.POL < g.limits.MinGasBalance {
			alerts = append(alerts, fmt.Sprintf("LOW GAS: %.4f POL (min: %.1f)", balances.POL, g.limits.MinGasBalance))
			riskState = domain.RiskWarning
		}

		// 2. Posiciones activas: settlement, P&L y stop-loss. Una posición
		// abierta después del snapshot no tiene status: cuenta como abierta
		// sin precio y se marca a entry hasta el siguiente scan.
		var totalExposure float64
		var resolved []domain.Position

		for _, pos := range b.ActivePositions {
			st := statuses[pos.ConditionID]
			if st.Closed {
				resolved = append(resolved, pos)
				slog.Info("position resolved", "condition_id", pos.ConditionID, "question", pos.Question)
				continue
			}

			currentPrice := st.LastPrice
			if currentPrice == 0 {
				currentPrice = pos.EntryPrice
			}
			pnl := pos.PnL(currentPrice)
			totalExposure += pnl.CurrentValue

			if pnl.PnLPct < -g.limits.MaxLossPercent {
				alerts = append(alerts, fmt.Sprintf("STOP LOSS: %s down %.1f%%",
					domain.TruncateQuestion(pos.Question, pos.ConditionID, 40), pnl.PnLPct))
				riskState = domain.RiskCritical
			}
		}

		// 3. Exposición total
		if totalExposure > g.limits.MaxTotalExposure {
			alerts = append(alerts, fmt.Sprintf("OVER EXPOSED: $%.2f > $%.2f limit",
				totalExposure, g.limits.MaxTotalExposure))
			riskState = domain.RiskWarning
		}

		// 4. Reciclar capital de mercados resueltos
		if n := b.RemovePositions(resolved); n > 0 {
			b.CapitalFreed = true
		}

		// 5. Persistir
		b.RiskState = riskState
		b.Alerts = alerts
		b.WalletBalances = balances
		b.TotalExposure = totalExposure
		ts := g.now().UTC()
		b.LastGuardianScan = &ts

		result = ScanResult{
			RiskState:     riskState,
			Alerts:        alerts,
			ResolvedCount: len(resolved),
			TotalExposure: totalExposure,
		}
		return nil
	})
	if err != nil {
		return ScanResult{}, fmt.Errorf("guardian.Scan: %w", err)
	}

	slog.Info("guardian scan complete",
		"risk_state", result.RiskState,
		"total_exposure", result.TotalExposure,
		"alerts", len(result.Alerts),
		"resolved", result.ResolvedCount,
	)

	if g.history != nil && result.RiskState != domain.RiskHalted {
		summary := ports.CycleSummary{
			ID:        uuid.New().String(),
			Agent:     g.Name(),
			ScannedAt: g.now().UTC(),
			RiskState: result.RiskState,
		}
		if err := g.history.SaveCycle(ctx, summary, nil); err != nil {
			slog.Warn("guardian history save failed", "err", err)
		}
	}

	return result, nil
}

// EmergencyHalt para el sistema: risk_state=HALTED con motivo y timestamp.
// Salta el scan por completo; solo ResumeTrading lo deshace.
func (g *Guardian) EmergencyHalt(reason string) error {
	if reason == "" {
		reason = "Manual emergency halt"
	}
	err := g.board.Update(func(b *domain.Blackboard) error {
		b.RiskState = domain.RiskHalted
		b.HaltReason = reason
		ts := g.now().UTC()
		b.HaltedAt = &ts
		return nil
	})
	if err != nil {
		return fmt.Errorf("guardian.EmergencyHalt: %w", err)
	}
	slog.Warn("EMERGENCY HALT ACTIVATED", "reason", reason)
	return nil
}

// ResumeTrading limpia el halt manual y vuelve a HEALTHY.
func (g *Guardian) ResumeTrading() error {
	err := g.board.Update(func(b *domain.Blackboard) error {
		b.RiskState = domain.RiskHealthy
		b.HaltReason = ""
		b.HaltedAt = nil
		return nil
	})
	if err != nil {
		return fmt.Errorf("guardian.ResumeTrading: %w", err)
	}
	slog.Info("trading resumed")
	return nil
}
