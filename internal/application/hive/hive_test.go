package hive

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hivebot/internal/adapters/blackboard"
	"github.com/alejandrodnm/hivebot/internal/application/guardian"
	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

type fakeWallet struct{}

func (fakeWallet) Balances(context.Context) domain.WalletBalances {
	return domain.WalletBalances{USDC: 100, POL: 5}
}

type fakeStatus struct{}

func (fakeStatus) MarketStatus(context.Context, string) ports.MarketStatus {
	return ports.MarketStatus{}
}

// countingAgent cuenta ticks y opcionalmente falla o hace panic.
type countingAgent struct {
	name  string
	calls atomic.Int32
	err   error
	panic bool
	order *[]string // registro de orden de ejecución (solo tests secuenciales)
}

func (a *countingAgent) Name() string { return a.name }

func (a *countingAgent) RunOnce(context.Context) error {
	a.calls.Add(1)
	if a.order != nil {
		*a.order = append(*a.order, a.name)
	}
	if a.panic {
		panic("boom")
	}
	return a.err
}

func newTestOrchestrator(t *testing.T, agents []AgentSpec) (*Orchestrator, *guardian.Guardian, *blackboard.Store) {
	t.Helper()
	store := blackboard.NewStore(filepath.Join(t.TempDir(), "blackboard.json"))
	g := guardian.New(guardian.DefaultLimits(), store, fakeWallet{}, fakeStatus{}, nil)
	cfg := DefaultConfig()
	return New(cfg, store, g, agents, nil), g, store
}

func TestRunCycle_AgentsRunInOrderAfterGuardian(t *testing.T) {
	var order []string
	a1 := &countingAgent{name: "scout", order: &order}
	a2 := &countingAgent{name: "analyst", order: &order}
	a3 := &countingAgent{name: "sniper", order: &order}

	o, _, store := newTestOrchestrator(t, []AgentSpec{{Agent: a1}, {Agent: a2}, {Agent: a3}})

	require.NoError(t, o.RunCycle(context.Background()))

	assert.Equal(t, []string{"scout", "analyst", "sniper"}, order)
	// El guardian corrió primero: dejó su timestamp antes que nadie
	require.NotNil(t, store.Load().LastGuardianScan)
}

func TestRunCycle_HaltedAbortsBeforeAgents(t *testing.T) {
	a := &countingAgent{name: "scout"}
	o, g, _ := newTestOrchestrator(t, []AgentSpec{{Agent: a}})

	require.NoError(t, g.EmergencyHalt("test halt"))

	require.NoError(t, o.RunCycle(context.Background()))
	assert.Equal(t, int32(0), a.calls.Load(), "no agent should run while halted")
}

func TestRunCycle_AgentErrorPropagates(t *testing.T) {
	a := &countingAgent{name: "scout", err: errors.New("exploded")}
	o, _, _ := newTestOrchestrator(t, []AgentSpec{{Agent: a}})

	err := o.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scout")
}

func TestRunCycle_PanicBecomesError(t *testing.T) {
	a := &countingAgent{name: "scout", panic: true}
	next := &countingAgent{name: "analyst"}
	o, _, _ := newTestOrchestrator(t, []AgentSpec{{Agent: a}, {Agent: next}})

	err := o.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, nil)

	assert.Equal(t, time.Minute, o.backoff(1))
	assert.Equal(t, 2*time.Minute, o.backoff(2))
	assert.Equal(t, 4*time.Minute, o.backoff(3))
	// Con suficientes fallos seguidos se clava en el techo
	assert.Equal(t, 15*time.Minute, o.backoff(10))
	assert.Equal(t, 15*time.Minute, o.backoff(100))
}

func TestRun_SurvivesFailedCycles(t *testing.T) {
	a := &countingAgent{name: "scout", err: errors.New("always fails")}
	store := blackboard.NewStore(filepath.Join(t.TempDir(), "blackboard.json"))
	g := guardian.New(guardian.DefaultLimits(), store, fakeWallet{}, fakeStatus{}, nil)

	cfg := Config{
		CycleInterval: 5 * time.Millisecond,
		ErrorBackoff:  time.Millisecond,
		MaxBackoff:    2 * time.Millisecond,
	}
	o := New(cfg, store, g, []AgentSpec{{Agent: a}}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, o.Run(ctx))
	// El loop no murió en el primer fallo: reintentó varias veces
	assert.Greater(t, a.calls.Load(), int32(2))
}

func TestRunConcurrent_AgentsTickIndependently(t *testing.T) {
	healthy := &countingAgent{name: "scout"}
	broken := &countingAgent{name: "analyst", err: errors.New("down")}
	panicky := &countingAgent{name: "sniper", panic: true}

	store := blackboard.NewStore(filepath.Join(t.TempDir(), "blackboard.json"))
	g := guardian.New(guardian.DefaultLimits(), store, fakeWallet{}, fakeStatus{}, nil)
	o := New(DefaultConfig(), store, g, []AgentSpec{
		{Agent: healthy, Interval: 5 * time.Millisecond},
		{Agent: broken, Interval: 5 * time.Millisecond},
		{Agent: panicky, Interval: 5 * time.Millisecond},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	require.NoError(t, o.RunConcurrent(ctx))

	// Los agentes rotos no frenan al sano, y ellos mismos siguen tickeando
	assert.Greater(t, healthy.calls.Load(), int32(2))
	assert.Greater(t, broken.calls.Load(), int32(2))
	assert.Greater(t, panicky.calls.Load(), int32(2))
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, 3*time.Second, DefaultInterval("sniper"))
	assert.Equal(t, 30*time.Second, DefaultInterval("sentiment"))
	assert.Equal(t, 10*time.Second, DefaultInterval("unknown-agent"))
}
