package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

func sampleBoard() *domain.Blackboard {
	b := domain.NewBlackboard()
	b.RiskState = domain.RiskWarning
	b.WalletBalances = domain.WalletBalances{USDC: 42.5, POL: 0.8}
	b.TotalExposure = 12.3
	b.Alerts = []string{"LOW GAS: 0.8000 POL (min: 1.0)"}
	b.Opportunities = []domain.Opportunity{
		{
			ConditionID: "0xa",
			Question:    "Will BTC close above $100k?",
			AnomalyType: domain.AnomalyDualSideArb,
			Score:       17.65,
			BestBid:     0.55,
			BestAsk:     0.40,
		},
	}
	b.ActivePositions = []domain.Position{
		{ConditionID: "0xb", Question: "Will it rain?", EntryPrice: 0.4, Size: 25, Strategy: "DIP_BUY"},
	}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.LastScan = &ts
	return b
}

func TestCycleReport_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, nil)

	require.NoError(t, c.CycleReport(context.Background(), sampleBoard()))

	out := buf.String()
	assert.Contains(t, out, "risk:WARNING")
	assert.Contains(t, out, "opps:1")
	assert.Contains(t, out, "pos:1")
	assert.Contains(t, out, "alerts:1")
	// Sin -table no se imprimen las tablas completas
	assert.NotContains(t, out, "HIVE STATUS")
}

func TestStatus_FullTables(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, nil)

	require.NoError(t, c.Status(context.Background(), sampleBoard()))

	out := buf.String()
	assert.Contains(t, out, "HIVE STATUS")
	assert.Contains(t, out, "DUAL_SIDE_ARB")
	assert.Contains(t, out, "Will BTC close above $100k?")
	assert.Contains(t, out, "DIP_BUY")
	assert.Contains(t, out, "LOW GAS")
	assert.Contains(t, out, "Last scan: 2026-03-01T12:00:00Z")
}

func TestStatus_EmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, nil)

	require.NoError(t, c.Status(context.Background(), domain.NewBlackboard()))

	out := buf.String()
	assert.Contains(t, out, "Opportunities: 0")
	assert.Contains(t, out, "All systems healthy")
	assert.Contains(t, out, "never")
}

type fakeGate struct {
	killSwitch bool
	dailyPnL   float64
}

func (f *fakeGate) PreOrderCheck(float64, float64, float64) (bool, string) { return true, "OK" }
func (f *fakeGate) RecordTradePnL(float64)                                 {}
func (f *fakeGate) DailyPnL() float64                                      { return f.dailyPnL }
func (f *fakeGate) KillSwitchActive() bool                                 { return f.killSwitch }

func TestStatus_ReportsSafetyGate(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, &fakeGate{dailyPnL: -3.5})

	require.NoError(t, c.Status(context.Background(), domain.NewBlackboard()))
	assert.Contains(t, buf.String(), "kill-switch off")
	assert.Contains(t, buf.String(), "daily P&L $-3.50")

	buf.Reset()
	c = NewConsoleWriter(&buf, false, &fakeGate{killSwitch: true})
	require.NoError(t, c.Status(context.Background(), domain.NewBlackboard()))
	assert.Contains(t, buf.String(), "kill-switch ACTIVE")
}

func TestStatus_WithoutGateOmitsSafetyLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, nil)

	require.NoError(t, c.Status(context.Background(), domain.NewBlackboard()))
	assert.NotContains(t, buf.String(), "Safety gate")
}

func TestCycleReport_TableModeForwardsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true, nil)

	err := c.CycleReport(ctx, sampleBoard())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompactName(t *testing.T) {
	assert.Equal(t, "?", compactName("", 10))
	assert.Equal(t, "short", compactName("short", 10))
	assert.Equal(t, "this is...", compactName("this is a long question", 10))
}
