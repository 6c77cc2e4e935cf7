package upstox

import (
	"context"

	"gannbot/internal/exchange"
	"gannbot/internal/exchange/upstox/rest"
	"gannbot/internal/exchange/upstox/ws"
	"gannbot/internal/logger"
	"gannbot/internal/models"
)

// Client объединяет REST-клиент (ордера, маржа, справочник) и WS-фид
// в один коллаборатор для движка.
type Client struct {
	rest     *rest.Client
	ws       *ws.Client
	exchange string
}

func New(baseURL, wsURL, token, exchangeSegment string, log *logger.Logger) *Client {
	return &Client{
		rest:     rest.New(baseURL, token, log),
		ws:       ws.New(wsURL, token, log),
		exchange: exchangeSegment,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	return c.ws.Connect(ctx)
}

func (c *Client) Subscribe(ctx context.Context, symbol string) error {
	return c.ws.Subscribe(ctx, symbol)
}

func (c *Client) Unsubscribe(ctx context.Context, symbol string) error {
	return c.ws.Unsubscribe(ctx, symbol)
}

func (c *Client) Restart(ctx context.Context) error {
	return c.ws.Restart(ctx)
}

func (c *Client) Events() <-chan exchange.Event {
	return c.ws.Events()
}

func (c *Client) Close() error {
	return c.ws.Close()
}

func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	return c.rest.PlaceOrder(ctx, req)
}

func (c *Client) AvailableMargin(ctx context.Context) (float64, error) {
	return c.rest.AvailableMargin(ctx)
}

func (c *Client) Resolve(ctx context.Context, symbol string) (models.Instrument, error) {
	return c.rest.Resolve(ctx, c.exchange, symbol)
}
