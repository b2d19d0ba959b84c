package domain

// MarketSnapshot es la foto puntual de un mercado binario tal como la
// devuelve el proveedor de datos. Los campos numéricos vienen normalizados
// a float64; los que falten en la respuesta quedan en 0.
type MarketSnapshot struct {
	ConditionID    string
	Question       string
	BestBid        float64
	BestAsk        float64
	LastTradePrice float64
	Volume24h      float64 // USDC en las últimas 24h
	Volume1w       float64 // USDC en los últimos 7 días
	Liquidity      float64
	PriceChange1d  float64 // cambio fraccional (-0.10 = -10%)
	PriceChange1w  float64
	Active         bool
	Closed         bool
}

// Spread devuelve el spread relativo (ask-bid)/ask.
// Si el ask es 0 no hay oferta y el spread se considera total (1.0).
func (m MarketSnapshot) Spread() float64 {
	if m.BestAsk <= 0 {
		return 1.0
	}
	return (m.BestAsk - m.BestBid) / m.BestAsk
}

// Midpoint devuelve el punto medio entre bid y ask, o 0 si no hay ask.
func (m MarketSnapshot) Midpoint() float64 {
	if m.BestAsk <= 0 {
		return 0
	}
	return (m.BestBid + m.BestAsk) / 2
}

// TruncateQuestion devuelve la pregunta truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		if len(conditionID) > 20 {
			q = conditionID[:20] + "..."
		} else {
			q = conditionID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen]
	}
	return q
}
