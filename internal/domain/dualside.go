package domain

// dualside.go — arbitraje de doble lado sobre un mismo mercado binario.
//
// Los dos resultados complementarios de un mercado pagan exactamente $1 al
// resolverse. Si comprar YES y NO juntos cuesta menos de $1, la diferencia
// es beneficio garantizado (siempre que ambas patas se ejecuten). Este
// scanner busca exactamente eso: total_cost = ask_YES + (1 - bid_YES) < $1.

import (
	"sort"
	"strings"
	"time"
)

const (
	// MinProfitPct es el margen mínimo para señalar (las fees rondan el 1%).
	MinProfitPct = 0.02

	dualSideLiqMin = 5_000
)

// cryptoKeywords y priceKeywords filtran la variante restringida a mercados
// de precio de crypto (la estrategia original de volatilidad BTC).
var (
	cryptoKeywords = []string{"btc", "bitcoin", "eth", "ethereum", "crypto"}
	priceKeywords  = []string{"above", "below", "up", "down", "price", "reach"}
)

// DetectDualSide escanea TODOS los mercados buscando YES+NO < $1.
// No solo crypto: cualquier mercado mal cotizado.
func DetectDualSide(markets []MarketSnapshot, now time.Time) []Opportunity {
	opps := make([]Opportunity, 0)

	for _, m := range markets {
		if m.Liquidity < dualSideLiqMin || m.BestAsk <= 0 || m.BestBid <= 0 {
			continue
		}

		opp, ok := dualSideOpportunity(m, now)
		if !ok {
			continue
		}
		opps = append(opps, opp)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Score > opps[j].Score
	})
	return opps
}

// DetectDualSideCrypto es la variante restringida: mismo cálculo de coste,
// pero solo sobre mercados cuya pregunta matchea fraseo de precio crypto.
func DetectDualSideCrypto(markets []MarketSnapshot, now time.Time) []Opportunity {
	filtered := make([]MarketSnapshot, 0, len(markets))
	for _, m := range markets {
		if IsCryptoPriceMarket(m.Question) {
			filtered = append(filtered, m)
		}
	}
	return DetectDualSide(filtered, now)
}

// IsCryptoPriceMarket devuelve true si la pregunta habla de precio de crypto
// ("Will BTC be above $100,000...", "ETH price on March 1: up or down?").
func IsCryptoPriceMarket(question string) bool {
	q := strings.ToLower(question)
	return containsAny(q, cryptoKeywords) && containsAny(q, priceKeywords)
}

// dualSideOpportunity calcula el coste conjunto YES+NO para un mercado.
//
// El precio del NO se aproxima desde el book del YES: comprar NO equivale a
// vender YES, así que NO ≈ 1 - bid_YES (fallback 1 - ask si no hay bid).
func dualSideOpportunity(m MarketSnapshot, now time.Time) (Opportunity, bool) {
	noPrice := 1 - m.BestBid
	if m.BestBid <= 0 {
		noPrice = 1 - m.BestAsk
	}
	totalCost := m.BestAsk + noPrice

	if totalCost >= 1.0-MinProfitPct {
		return Opportunity{}, false
	}

	profitPct := (1.0 - totalCost) / totalCost * 100

	return Opportunity{
		ConditionID:  m.ConditionID,
		Question:     TruncateQuestion(m.Question, m.ConditionID, questionMaxLen),
		AnomalyType:  AnomalyDualSideArb,
		Score:        profitPct,
		BestBid:      m.BestBid,
		BestAsk:      m.BestAsk,
		SpreadPct:    m.Spread() * 100,
		Volume24h:    m.Volume24h,
		Liquidity:    m.Liquidity,
		YesPrice:     m.BestAsk,
		NoPrice:      noPrice,
		TotalCost:    totalCost,
		ProfitPct:    profitPct,
		DiscoveredAt: now.UTC(),
		Status:       StatusPending,
	}, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
