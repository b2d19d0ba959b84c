package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func liquidMarket(id string) MarketSnapshot {
	return MarketSnapshot{
		ConditionID: id,
		Question:    "Will something happen?",
		BestBid:     0.50,
		BestAsk:     0.52,
		Volume24h:   200_000,
		Volume1w:    1_400_000,
		Liquidity:   100_000,
	}
}

func TestDetectAnomalies_Arbitrage(t *testing.T) {
	// ask=0.985, bid=0.982 → spread ≈ 0.30%, dentro del rango de arbitraje
	m := liquidMarket("0xarb")
	m.BestBid = 0.982
	m.BestAsk = 0.985
	m.Volume24h = 600_000

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	require.Len(t, opps, 1)
	assert.Equal(t, AnomalyArbitrage, opps[0].AnomalyType)
	// score = (1-0.985)/0.985*100 ≈ 1.52
	assert.InDelta(t, 1.52, opps[0].Score, 0.01)
	assert.Equal(t, StatusPending, opps[0].Status)
	assert.Equal(t, testNow, opps[0].DiscoveredAt)
}

func TestDetectAnomalies_ArbitrageNeedsTightSpread(t *testing.T) {
	m := liquidMarket("0xwide")
	m.BestBid = 0.90 // spread ≈ 8.6% → no es arbitraje real
	m.BestAsk = 0.985
	m.Liquidity = 100_000

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	// Cae a MISPRICING (spread > 5% con liquidez)
	require.Len(t, opps, 1)
	assert.Equal(t, AnomalyMispricing, opps[0].AnomalyType)
}

func TestDetectAnomalies_DipBuy(t *testing.T) {
	m := liquidMarket("0xdip")
	m.PriceChange1d = -0.15
	m.Volume24h = 600_000

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	require.Len(t, opps, 1)
	assert.Equal(t, AnomalyDipBuy, opps[0].AnomalyType)
	assert.InDelta(t, 15.0, opps[0].Score, 0.001)
}

func TestDetectAnomalies_DipNeedsVolume(t *testing.T) {
	m := liquidMarket("0xdip-thin")
	m.PriceChange1d = -0.15
	m.Volume24h = 200_000 // < 500k → no DIP_BUY

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)
	assert.Empty(t, opps)
}

func TestDetectAnomalies_VolumeSpike(t *testing.T) {
	m := liquidMarket("0xspike")
	m.Volume1w = 700_000 // media diaria 100k
	m.Volume24h = 300_000
	m.PriceChange1d = 0.08

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	require.Len(t, opps, 1)
	assert.Equal(t, AnomalyVolumeSpike, opps[0].AnomalyType)
	// score = (300k/100k)*10 = 30
	assert.InDelta(t, 30.0, opps[0].Score, 0.001)
}

func TestDetectAnomalies_SpikeWithoutMovementIsNoise(t *testing.T) {
	m := liquidMarket("0xquiet")
	m.Volume1w = 700_000
	m.Volume24h = 300_000
	m.PriceChange1d = 0.01 // sin movimiento → no señal

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)
	assert.Empty(t, opps)
}

func TestDetectAnomalies_Mispricing(t *testing.T) {
	m := liquidMarket("0xmis")
	m.BestBid = 0.40
	m.BestAsk = 0.50 // spread 20%
	m.Liquidity = 80_000

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	require.Len(t, opps, 1)
	assert.Equal(t, AnomalyMispricing, opps[0].AnomalyType)
	assert.InDelta(t, 20.0, opps[0].Score, 0.001)
}

func TestDetectAnomalies_VolumeFilter(t *testing.T) {
	m := liquidMarket("0xthin")
	m.Volume24h = 50_000 // < 100k → descartado antes de clasificar
	m.BestAsk = 0.985
	m.BestBid = 0.982

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)
	assert.Empty(t, opps)
}

// La precedencia es estricta: un mercado que cumple arbitraje Y dip
// solo recibe ARBITRAGE.
func TestDetectAnomalies_PrecedenceIsExclusive(t *testing.T) {
	m := liquidMarket("0xboth")
	m.BestBid = 0.982
	m.BestAsk = 0.985
	m.Volume24h = 600_000
	m.PriceChange1d = -0.15 // también cumpliría DIP_BUY

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	require.Len(t, opps, 1)
	assert.Equal(t, AnomalyArbitrage, opps[0].AnomalyType)
}

func TestDetectAnomalies_SortedByScoreDesc(t *testing.T) {
	small := liquidMarket("0xsmall")
	small.PriceChange1d = -0.11
	small.Volume24h = 600_000

	big := liquidMarket("0xbig")
	big.PriceChange1d = -0.30
	big.Volume24h = 600_000

	opps := DetectAnomalies([]MarketSnapshot{small, big}, testNow)

	require.Len(t, opps, 2)
	assert.Equal(t, "0xbig", opps[0].ConditionID)
	assert.Greater(t, opps[0].Score, opps[1].Score)
}

func TestDetectAnomalies_TruncatesQuestion(t *testing.T) {
	m := liquidMarket("0xlong")
	m.PriceChange1d = -0.15
	m.Volume24h = 600_000
	for len(m.Question) < 200 {
		m.Question += " and more context"
	}

	opps := DetectAnomalies([]MarketSnapshot{m}, testNow)

	require.Len(t, opps, 1)
	assert.LessOrEqual(t, len(opps[0].Question), 80)
}

func TestMarketSnapshot_SpreadZeroAsk(t *testing.T) {
	m := MarketSnapshot{BestBid: 0.5, BestAsk: 0}
	assert.Equal(t, 1.0, m.Spread())
	assert.Equal(t, 0.0, m.Midpoint())
}
