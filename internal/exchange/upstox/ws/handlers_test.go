package ws

import (
	"encoding/json"
	"testing"
	"time"

	"gannbot/internal/exchange"
	"gannbot/internal/logger"
	"gannbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return New("ws://feed.local", "token", logger.Discard())
}

func popEvent(t *testing.T, w *Client) exchange.Event {
	t.Helper()
	select {
	case ev := <-w.events:
		return ev
	default:
		t.Fatal("нет события в канале")
		return exchange.Event{}
	}
}

func TestHandleQuote(t *testing.T) {
	w := newTestClient()

	w.handleQuote(Message{
		Type: "ltpc",
		TS:   1756600000000,
		Data: json.RawMessage(`{"symbol":"NIFTYAUG19500CE","ltp":"103.45"}`),
	})

	ev := popEvent(t, w)
	require.Equal(t, exchange.EventTypeQuote, ev.Type)
	require.NotNil(t, ev.Quote)
	assert.Equal(t, "NIFTYAUG19500CE", ev.Quote.Symbol)
	assert.InDelta(t, 103.45, ev.Quote.LTP, 1e-9)
	assert.Equal(t, int64(1756600000000), ev.Quote.Timestamp.UnixMilli())
}

func TestHandleQuoteBadPayload(t *testing.T) {
	w := newTestClient()

	w.handleQuote(Message{Type: "ltpc", Data: json.RawMessage(`{"ltp":42}`)})
	select {
	case <-w.events:
		t.Fatal("битое сообщение не должно давать событие")
	default:
	}
}

func TestHandleOrder(t *testing.T) {
	w := newTestClient()

	w.handleOrder(Message{
		Type: "order",
		Data: json.RawMessage(`{
			"order_id": "250831000123",
			"parent_order_id": "NA",
			"symbol": "NIFTYAUG19500CE",
			"transaction_type": "B",
			"status": "Trigger Pending",
			"price": "103.0",
			"quantity": "900"
		}`),
	})

	ev := popEvent(t, w)
	require.Equal(t, exchange.EventTypeOrder, ev.Type)
	require.NotNil(t, ev.Order)
	assert.Equal(t, "250831000123", ev.Order.OrderID)
	assert.Empty(t, ev.Order.ParentOrderID)
	assert.Equal(t, models.SideBuy, ev.Order.Side)
	assert.Equal(t, models.OrderStatusTriggerPending, ev.Order.Status)
	assert.InDelta(t, 103.0, ev.Order.Price, 1e-9)
	assert.Equal(t, int64(900), ev.Order.Qty)
}

func TestHandleTrade(t *testing.T) {
	w := newTestClient()

	w.handleTrade(Message{
		Type: "trade",
		Data: json.RawMessage(`{
			"order_id": "250831000124",
			"parent_order_id": "250831000123",
			"symbol": "NIFTYAUG19500CE",
			"transaction_type": "SELL",
			"quantity": "900",
			"average_price": "121.0",
			"status": "Complete"
		}`),
	})

	ev := popEvent(t, w)
	require.Equal(t, exchange.EventTypeTrade, ev.Type)
	require.NotNil(t, ev.Trade)
	assert.Equal(t, "250831000123", ev.Trade.ParentOrderID)
	assert.Equal(t, models.SideSell, ev.Trade.Side)
	assert.Equal(t, int64(900), ev.Trade.Qty)
	assert.InDelta(t, 121.0, ev.Trade.AvgPrice, 1e-9)
	assert.Equal(t, models.OrderStatusComplete, ev.Trade.Status)
}

func TestEmitAfterCloseDoesNotBlock(t *testing.T) {
	w := newTestClient()

	// Забиваем буфер канала до отказа: читателя нет.
	for i := 0; i < cap(w.events); i++ {
		w.emit(exchange.Event{Type: exchange.EventTypeReconnect})
	}
	require.NoError(t, w.Close())

	done := make(chan struct{})
	go func() {
		w.handleQuote(Message{
			Type: "ltpc",
			Data: json.RawMessage(`{"symbol":"NIFTYAUG19500CE","ltp":"103.45"}`),
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("отправка события зависла после остановки клиента")
	}
}

func TestParentID(t *testing.T) {
	assert.Empty(t, parentID(""))
	assert.Empty(t, parentID("NA"))
	assert.Empty(t, parentID("na"))
	assert.Equal(t, "250831000123", parentID("250831000123"))
}

func TestMapSide(t *testing.T) {
	assert.Equal(t, models.SideBuy, mapSide("B"))
	assert.Equal(t, models.SideBuy, mapSide("buy"))
	assert.Equal(t, models.SideSell, mapSide("S"))
	assert.Equal(t, models.SideSell, mapSide(" sell "))
}
