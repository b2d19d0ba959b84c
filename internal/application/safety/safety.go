package safety

// safety.go — guardia síncrona pre-orden, independiente del blackboard.
//
// Protege contra pérdidas desbocadas, órdenes sobredimensionadas y bugs.
// Cada check devuelve (false, motivo) en el primer fallo; el rechazo no es
// un error, es un resultado deliberado que el caller debe loguear siempre.

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Límites por defecto. Se pueden ajustar por config, nunca en caliente.
const (
	DefaultMaxSingleOrderUSD   = 25.0 // ninguna orden individual > $25
	DefaultMaxTotalExposurePct = 0.80 // máx 80% del capital en posiciones abiertas
	DefaultDailyLossLimitUSD   = 10.0 // P&L diario < -$10 → no más órdenes hoy
	DefaultBalanceBufferPct    = 0.05 // 5% de colchón sobre el importe de la orden
	DefaultKillSwitchFile      = "/run/hivebot/kill_switch"
)

// Limits parametriza la puerta de seguridad.
type Limits struct {
	MaxSingleOrderUSD   float64
	MaxTotalExposurePct float64
	DailyLossLimitUSD   float64
	BalanceBufferPct    float64
	KillSwitchFile      string
}

// DefaultLimits devuelve los límites de producción.
func DefaultLimits() Limits {
	return Limits{
		MaxSingleOrderUSD:   DefaultMaxSingleOrderUSD,
		MaxTotalExposurePct: DefaultMaxTotalExposurePct,
		DailyLossLimitUSD:   DefaultDailyLossLimitUSD,
		BalanceBufferPct:    DefaultBalanceBufferPct,
		KillSwitchFile:      DefaultKillSwitchFile,
	}
}

// dailyLossTracker acumula el P&L del día UTC en curso.
type dailyLossTracker struct {
	date   string // YYYY-MM-DD UTC
	pnl    float64
	halted bool
}

// Gate implementa los checks pre-orden. Thread-safe: los callers del lado
// del sniper pueden ser concurrentes.
type Gate struct {
	limits Limits
	now    func() time.Time

	mu    sync.Mutex
	daily dailyLossTracker
}

// NewGate crea la puerta con el reloj del sistema.
func NewGate(limits Limits) *Gate {
	return NewGateWithClock(limits, time.Now)
}

// NewGateWithClock inyecta el reloj, para tests de rollover de día UTC.
func NewGateWithClock(limits Limits, now func() time.Time) *Gate {
	if limits.MaxSingleOrderUSD <= 0 {
		limits = DefaultLimits()
	}
	return &Gate{limits: limits, now: now}
}

// checkDailyReset resetea el tracker al cruzar la medianoche UTC.
// El rollover también limpia el flag de halt diario. Caller holds mu.
func (g *Gate) checkDailyReset() {
	today := g.now().UTC().Format("2006-01-02")
	if g.daily.date != today {
		g.daily = dailyLossTracker{date: today}
	}
}

// RecordTradePnL acumula el P&L de un trade cerrado en el tally diario.
// Al alcanzar el límite de pérdida se bloquean nuevas órdenes hasta el
// siguiente día UTC.
func (g *Gate) RecordTradePnL(pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkDailyReset()
	g.daily.pnl += pnl
	if g.daily.pnl <= -g.limits.DailyLossLimitUSD {
		g.daily.halted = true
		slog.Warn("daily loss limit hit, halting new orders", "daily_pnl", g.daily.pnl)
	}
}

// DailyPnL devuelve el P&L acumulado del día UTC en curso.
func (g *Gate) DailyPnL() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkDailyReset()
	return g.daily.pnl
}

// KillSwitchActive comprueba la presencia del archivo kill switch.
// Es un check por polling, no push: la propagación tarda hasta un tick.
func (g *Gate) KillSwitchActive() bool {
	_, err := os.Stat(g.limits.KillSwitchFile)
	return err == nil
}

// PreOrderCheck ejecuta todos los checks de seguridad antes de una orden.
// Gana el primer fallo; el orden de evaluación es fijo pero los checks son
// independientes entre sí.
func (g *Gate) PreOrderCheck(orderAmount, portfolioBalance, totalExposure float64) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkDailyReset()

	if g.KillSwitchActive() {
		return false, "Kill switch activated"
	}

	if g.daily.halted {
		return false, fmt.Sprintf("Daily loss limit reached ($%.2f)", g.daily.pnl)
	}

	if orderAmount > g.limits.MaxSingleOrderUSD {
		return false, fmt.Sprintf("Order $%.2f exceeds max $%.2f", orderAmount, g.limits.MaxSingleOrderUSD)
	}

	minBalance := orderAmount * (1 + g.limits.BalanceBufferPct)
	if portfolioBalance < minBalance {
		return false, fmt.Sprintf("Balance $%.2f < required $%.2f (buffer)", portfolioBalance, minBalance)
	}

	// El capital real es balance + lo ya desplegado
	actualCapital := portfolioBalance + totalExposure
	newExposure := totalExposure + orderAmount
	maxExposure := actualCapital * g.limits.MaxTotalExposurePct
	if newExposure > maxExposure {
		return false, fmt.Sprintf("Total exposure $%.2f would exceed %.0f%% cap ($%.2f)",
			newExposure, g.limits.MaxTotalExposurePct*100, maxExposure)
	}

	return true, "OK"
}
