package polymarket

import (
	"encoding/json"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// gammaMarket es el DTO crudo de Gamma /markets. Los campos numéricos
// llegan a veces como número y a veces como string según el endpoint,
// así que se decodifican como json.Number y se normalizan en el mapping.
type gammaMarket struct {
	ConditionID       string      `json:"conditionId"`
	Question          string      `json:"question"`
	BestBid           json.Number `json:"bestBid"`
	BestAsk           json.Number `json:"bestAsk"`
	LastTradePrice    json.Number `json:"lastTradePrice"`
	Volume24h         json.Number `json:"volume24hr"`
	Volume1w          json.Number `json:"volume1wk"`
	LiquidityNum      json.Number `json:"liquidityNum"`
	OneDayPriceChange json.Number `json:"oneDayPriceChange"`
	OneWeekPriceChange json.Number `json:"oneWeekPriceChange"`
	Active            bool        `json:"active"`
	Closed            bool        `json:"closed"`
}

// mapGammaMarkets convierte los DTOs de Gamma a domain.MarketSnapshot.
func mapGammaMarkets(raw []gammaMarket) []domain.MarketSnapshot {
	snapshots := make([]domain.MarketSnapshot, 0, len(raw))
	for _, r := range raw {
		if r.ConditionID == "" {
			continue
		}
		snapshots = append(snapshots, domain.MarketSnapshot{
			ConditionID:    r.ConditionID,
			Question:       r.Question,
			BestBid:        num(r.BestBid),
			BestAsk:        num(r.BestAsk),
			LastTradePrice: num(r.LastTradePrice),
			Volume24h:      num(r.Volume24h),
			Volume1w:       num(r.Volume1w),
			Liquidity:      num(r.LiquidityNum),
			PriceChange1d:  num(r.OneDayPriceChange),
			PriceChange1w:  num(r.OneWeekPriceChange),
			Active:         r.Active,
			Closed:         r.Closed,
		})
	}
	return snapshots
}

// num normaliza un json.Number a float64; los ausentes o malformados
// quedan en 0, igual que hace el resto del pipeline con datos que faltan.
func num(n json.Number) float64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}
