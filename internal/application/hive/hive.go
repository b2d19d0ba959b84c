package hive

// hive.go — orquestador secuencial: un ciclo determinista de agentes.
//
// El guardian corre PRIMERO; si observa HALTED el ciclo aborta entero.
// Después corren el resto de agentes en orden fijo, y se imprime el
// snapshot de estado. El loop nunca muere por un ciclo malo: el error se
// loguea y se reintenta tras un backoff que crece con fallos consecutivos.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/hivebot/internal/application/guardian"
	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

// Config controla los tiempos del orquestador.
type Config struct {
	CycleInterval  time.Duration // ciclo secuencial completo
	ErrorBackoff   time.Duration // espera base tras un ciclo fallido
	MaxBackoff     time.Duration // techo del backoff exponencial
	StatusInterval time.Duration // reporter periódico en modo concurrente
}

// DefaultConfig devuelve los tiempos de producción.
func DefaultConfig() Config {
	return Config{
		CycleInterval:  5 * time.Minute,
		ErrorBackoff:   time.Minute,
		MaxBackoff:     15 * time.Minute,
		StatusInterval: time.Minute,
	}
}

// AgentSpec es un agente más su intervalo de tick para el modo concurrente.
type AgentSpec struct {
	Agent    ports.Agent
	Interval time.Duration
}

// Orchestrator planifica el guardian y el resto de agentes.
type Orchestrator struct {
	cfg      Config
	board    ports.BlackboardStore
	guardian *guardian.Guardian
	agents   []AgentSpec // orden secuencial = orden del slice
	notifier ports.Notifier
}

// New crea un Orchestrator. Los agentes externos (analyst, sniper...) se
// inyectan en agents junto a los internos; sus internals no importan aquí.
func New(cfg Config, board ports.BlackboardStore, g *guardian.Guardian, agents []AgentSpec, notifier ports.Notifier) *Orchestrator {
	if cfg.CycleInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:      cfg,
		board:    board,
		guardian: g,
		agents:   agents,
		notifier: notifier,
	}
}

// RunCycle ejecuta exactamente un ciclo secuencial completo.
// Devuelve error solo ante fallos de persistencia; un HALTED observado
// aborta el ciclo limpiamente sin error.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	slog.Info("cycle start", "agents", len(o.agents)+1)

	// 1. Guardian: pre-flight de riesgo
	result, err := o.guardian.Scan(ctx)
	if err != nil {
		return fmt.Errorf("hive.RunCycle: guardian: %w", err)
	}
	if result.RiskState == domain.RiskHalted {
		slog.Warn("system HALTED, aborting cycle")
		return nil
	}

	// 2..N. Resto de agentes en orden fijo
	for _, spec := range o.agents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runIsolated(ctx, spec.Agent); err != nil {
			return fmt.Errorf("hive.RunCycle: %s: %w", spec.Agent.Name(), err)
		}
	}

	// Snapshot final del ciclo
	if o.notifier != nil {
		o.board.View(func(b *domain.Blackboard) {
			if err := o.notifier.CycleReport(ctx, b); err != nil {
				slog.Warn("cycle report failed", "err", err)
			}
		})
	}
	return nil
}

// Run ejecuta el loop secuencial hasta que el contexto se cancele.
func (o *Orchestrator) Run(ctx context.Context) error {
	slog.Info("hive starting in sequential mode", "interval", o.cfg.CycleInterval)

	failures := 0
	for {
		err := o.RunCycle(ctx)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			slog.Info("hive stopped")
			return nil
		default:
			failures++
			slog.Error("cycle failed", "err", err, "consecutive_failures", failures)
		}

		wait := o.cfg.CycleInterval
		if failures > 0 {
			wait = o.backoff(failures)
			slog.Info("backing off after failed cycle", "wait", wait)
		}

		select {
		case <-ctx.Done():
			slog.Info("hive stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// backoff crece exponencialmente con los fallos consecutivos, con techo.
func (o *Orchestrator) backoff(failures int) time.Duration {
	wait := o.cfg.ErrorBackoff
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= o.cfg.MaxBackoff {
			return o.cfg.MaxBackoff
		}
	}
	if wait > o.cfg.MaxBackoff {
		wait = o.cfg.MaxBackoff
	}
	return wait
}

// Status imprime el snapshot de solo-lectura del blackboard.
func (o *Orchestrator) Status(ctx context.Context) error {
	var err error
	o.board.View(func(b *domain.Blackboard) {
		err = o.notifier.Status(ctx, b)
	})
	return err
}

// runIsolated ejecuta un tick de agente convirtiendo panics en errores,
// para que un agente roto no tumbe el proceso.
func runIsolated(ctx context.Context, a ports.Agent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s panicked: %v", a.Name(), r)
		}
	}()
	return a.RunOnce(ctx)
}
