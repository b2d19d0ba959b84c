package domain

// anomaly.go — detección matemática de anomalías, sin keywords.
//
// Cuatro patrones, evaluados en orden de precedencia estricta (un mercado
// recibe como mucho UNA anomalía):
//   ARBITRAGE    — resultado casi seguro cotizando por debajo de $1
//   DIP_BUY      — caída fuerte con volumen alto (pánico retail / salida whale)
//   VOLUME_SPIKE — volumen 2x por encima de la media semanal con movimiento
//   MISPRICING   — spread ancho en mercado líquido (ineficiencia)

import (
	"sort"
	"time"
)

// AnomalyType clasifica la oportunidad detectada.
type AnomalyType string

const (
	AnomalyArbitrage   AnomalyType = "ARBITRAGE"
	AnomalyDipBuy      AnomalyType = "DIP_BUY"
	AnomalyVolumeSpike AnomalyType = "VOLUME_SPIKE"
	AnomalyMispricing  AnomalyType = "MISPRICING"
	AnomalyDualSideArb AnomalyType = "DUAL_SIDE_ARB"
)

// Umbrales de detección.
const (
	arbitrageFloor   = 0.98    // ask por encima = resultado casi seguro
	arbitrageCeil    = 0.999   // ask por encima = sin margen que merezca la pena
	arbitrageSpread  = 0.02    // spread apretado = oportunidad real
	dipThreshold     = -0.10   // caída del 10% en 1d dispara DIP_BUY
	dipVolumeMin     = 500_000 // solo mercados con volumen serio
	volumeMin        = 100_000 // volumen 24h mínimo para considerar el mercado
	spikeMultiplier  = 2.0     // 2x la media diaria = spike
	spikeMinMovement = 0.05    // spike sin movimiento de precio no es señal
	spreadMax        = 0.05    // spread > 5% en mercado líquido = mispricing
	mispricingLiqMin = 50_000
)

const questionMaxLen = 80

// DetectAnomalies clasifica cada snapshot contra los cuatro patrones y
// devuelve las oportunidades ordenadas por score descendente.
//
// La clasificación es mutuamente exclusiva: gana la primera regla que
// matchea, en el orden ARBITRAGE > DIP_BUY > VOLUME_SPIKE > MISPRICING.
func DetectAnomalies(markets []MarketSnapshot, now time.Time) []Opportunity {
	opps := make([]Opportunity, 0, len(markets))

	for _, m := range markets {
		if m.Volume24h < volumeMin {
			continue
		}

		spread := m.Spread()

		var anomaly AnomalyType
		var score float64

		switch {
		case m.BestAsk >= arbitrageFloor && m.BestAsk < arbitrageCeil && spread < arbitrageSpread:
			anomaly = AnomalyArbitrage
			score = (1.0 - m.BestAsk) / m.BestAsk * 100

		case m.PriceChange1d <= dipThreshold && m.Volume24h > dipVolumeMin:
			anomaly = AnomalyDipBuy
			score = abs(m.PriceChange1d) * 100

		case m.Volume1w > 0 && isVolumeSpike(m):
			anomaly = AnomalyVolumeSpike
			score = m.Volume24h / (m.Volume1w / 7) * 10

		case spread > spreadMax && m.Liquidity > mispricingLiqMin:
			anomaly = AnomalyMispricing
			score = spread * 100

		default:
			continue
		}

		opps = append(opps, Opportunity{
			ConditionID:   m.ConditionID,
			Question:      TruncateQuestion(m.Question, m.ConditionID, questionMaxLen),
			AnomalyType:   anomaly,
			Score:         score,
			BestBid:       m.BestBid,
			BestAsk:       m.BestAsk,
			SpreadPct:     spread * 100,
			Volume24h:     m.Volume24h,
			PriceChange1d: m.PriceChange1d * 100,
			Liquidity:     m.Liquidity,
			DiscoveredAt:  now.UTC(),
			Status:        StatusPending,
		})
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Score > opps[j].Score
	})
	return opps
}

// isVolumeSpike detecta actividad inusual: volumen 24h por encima de 2x la
// media diaria de la semana, acompañado de movimiento de precio.
func isVolumeSpike(m MarketSnapshot) bool {
	dailyAvg := m.Volume1w / 7
	return m.Volume24h > dailyAvg*spikeMultiplier && abs(m.PriceChange1d) > spikeMinMovement
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
