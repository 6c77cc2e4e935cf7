package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"gannbot/internal/models"
)

func (c *Client) Resolve(ctx context.Context, exchange, symbol string) (models.Instrument, error) {
	params := url.Values{}
	params.Set("exchange", exchange)
	params.Set("symbol", symbol)

	var resp upstoxResponse[struct {
		Symbol   string  `json:"symbol"`
		Exchange string  `json:"exchange"`
		LotSize  int64   `json:"lot_size"`
		TickSize float64 `json:"tick_size"`
	}]
	if err := c.doRequest(ctx, http.MethodGet, "/market/instruments/lookup", params, nil, &resp); err != nil {
		return models.Instrument{}, err
	}
	if err := resp.Err(); err != nil {
		return models.Instrument{}, err
	}
	if resp.Data.Symbol == "" {
		return models.Instrument{}, fmt.Errorf("Инструмент не найден: %s", symbol)
	}

	return models.Instrument{
		Symbol:   resp.Data.Symbol,
		Exchange: resp.Data.Exchange,
		LotSize:  resp.Data.LotSize,
		TickSize: resp.Data.TickSize,
	}, nil
}
