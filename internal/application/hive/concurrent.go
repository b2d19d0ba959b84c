package hive

// concurrent.go — modo concurrente: cada agente corre su propio loop con su
// propio intervalo. Sin garantías de orden entre agentes: todos leen y
// escriben el blackboard a través de la fachada serializada del Store.
//
// El loop de cada agente está aislado: un error (o panic) en un tick se
// loguea y el agente sigue; los hermanos ni se enteran. La cancelación es
// cooperativa vía contexto, chequeada en cada tick.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// Intervalos por defecto del modo concurrente, por nombre de agente.
var defaultIntervals = map[string]time.Duration{
	"scout":           10 * time.Second,
	"dualside":        10 * time.Second,
	"dualside-crypto": 10 * time.Second,
	"analyst":         5 * time.Second,
	"sniper":          3 * time.Second,
	"guardian":        10 * time.Second,
	"sentiment":       30 * time.Second,
}

// DefaultInterval devuelve el intervalo de tick por defecto para un agente.
func DefaultInterval(name string) time.Duration {
	if d, ok := defaultIntervals[name]; ok {
		return d
	}
	return 10 * time.Second
}

// RunConcurrent lanza todos los agentes (guardian incluido) como loops
// independientes más el reporter de estado, y bloquea hasta la cancelación.
func (o *Orchestrator) RunConcurrent(ctx context.Context) error {
	slog.Info("hive starting in concurrent mode", "agents", len(o.agents)+1)

	var wg sync.WaitGroup

	// Guardian corre como un agente más, a su propio ritmo.
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.agentLoop(ctx, AgentSpec{Agent: o.guardian, Interval: DefaultInterval("guardian")})
	}()

	for _, spec := range o.agents {
		if spec.Interval <= 0 {
			spec.Interval = DefaultInterval(spec.Agent.Name())
		}
		wg.Add(1)
		go func(spec AgentSpec) {
			defer wg.Done()
			o.agentLoop(ctx, spec)
		}(spec)
	}

	if o.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.statusLoop(ctx)
		}()
	}

	wg.Wait()
	slog.Info("all agents stopped")
	return nil
}

// agentLoop es el loop de tick de un agente. El primer tick es inmediato.
func (o *Orchestrator) agentLoop(ctx context.Context, spec AgentSpec) {
	name := spec.Agent.Name()
	slog.Info("agent loop starting", "agent", name, "interval", spec.Interval)

	ticker := time.NewTicker(spec.Interval)
	defer ticker.Stop()

	o.tick(ctx, spec)
	for {
		select {
		case <-ctx.Done():
			slog.Info("agent loop stopped", "agent", name)
			return
		case <-ticker.C:
			o.tick(ctx, spec)
		}
	}
}

// tick ejecuta un RunOnce aislado; el error nunca escapa del loop.
func (o *Orchestrator) tick(ctx context.Context, spec AgentSpec) {
	if ctx.Err() != nil {
		return
	}
	if err := runIsolated(ctx, spec.Agent); err != nil && ctx.Err() == nil {
		slog.Error("agent tick failed", "agent", spec.Agent.Name(), "err", err)
	}
}

// statusLoop imprime el snapshot del blackboard cada StatusInterval.
func (o *Orchestrator) statusLoop(ctx context.Context) {
	interval := o.cfg.StatusInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.board.View(func(b *domain.Blackboard) {
				if err := o.notifier.Status(ctx, b); err != nil {
					slog.Warn("status report failed", "err", err)
				}
			})
		}
	}
}
