package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

const gammaMarketsPath = "/markets"

// FetchMarkets devuelve hasta limit mercados activos y abiertos ordenados
// por volumen 24h descendente. Implementa ports.MarketProvider.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("order", "volume24hr")
	q.Set("ascending", "false")

	var raw []gammaMarket
	reqURL := fmt.Sprintf("%s%s?%s", c.gammaBase, gammaMarketsPath, q.Encode())
	if err := c.get(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("polymarket.FetchMarkets: %w", err)
	}

	snapshots := mapGammaMarkets(raw)
	slog.Debug("markets fetched", "requested", limit, "received", len(snapshots))
	return snapshots, nil
}

// MarketStatus consulta el estado puntual de un mercado por condition ID.
// Implementa ports.MarketStatusProvider: cualquier fallo se degrada a
// "abierto sin precio" — el guardian marcará la posición a entry price.
func (c *Client) MarketStatus(ctx context.Context, conditionID string) ports.MarketStatus {
	reqURL := fmt.Sprintf("%s%s?condition_ids=%s", c.gammaBase, gammaMarketsPath, url.QueryEscape(conditionID))

	var raw []gammaMarket
	if err := c.get(ctx, reqURL, &raw); err != nil {
		slog.Warn("market status check failed, treating as open", "condition_id", conditionID, "err", err)
		return ports.MarketStatus{}
	}
	if len(raw) == 0 {
		return ports.MarketStatus{}
	}

	m := raw[0]
	return ports.MarketStatus{
		Closed:    m.Closed,
		BestBid:   num(m.BestBid),
		BestAsk:   num(m.BestAsk),
		LastPrice: num(m.LastTradePrice),
	}
}
