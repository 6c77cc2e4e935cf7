package exchange

import (
	"context"

	"gannbot/internal/models"
)

type EventType string

const (
	EventTypeQuote     EventType = "Quote"
	EventTypeOrder     EventType = "Order"
	EventTypeTrade     EventType = "Trade"
	EventTypeReconnect EventType = "Reconnect"
)

// Event — размеченное объединение входящих событий фида.
// Заполнено ровно одно поле, соответствующее Type.
type Event struct {
	Type  EventType
	Quote *models.Quote
	Order *models.OrderUpdate
	Trade *models.TradeUpdate
}

// Symbol возвращает инструмент события; для служебных событий — пустую строку.
func (e Event) Symbol() string {
	switch e.Type {
	case EventTypeQuote:
		if e.Quote != nil {
			return e.Quote.Symbol
		}
	case EventTypeOrder:
		if e.Order != nil {
			return e.Order.Symbol
		}
	case EventTypeTrade:
		if e.Trade != nil {
			return e.Trade.Symbol
		}
	}
	return ""
}

// Feed — живой поток котировок и подтверждений.
// Restart обязан быть идемпотентным: повторный вызов на живом соединении безопасен.
type Feed interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbol string) error
	Unsubscribe(ctx context.Context, symbol string) error
	Restart(ctx context.Context) error
	Events() <-chan Event
	Close() error
}

type Broker interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (string, error)
	AvailableMargin(ctx context.Context) (float64, error)
}

type InstrumentCatalog interface {
	Resolve(ctx context.Context, symbol string) (models.Instrument, error)
}
