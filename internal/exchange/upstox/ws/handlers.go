package ws

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"gannbot/internal/exchange"
	"gannbot/internal/models"
)

func (w *Client) handleQuote(msg Message) {
	var data struct {
		Symbol string `json:"symbol"`
		LTP    string `json:"ltp"`
		TS     int64  `json:"ts"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать котировку.")
		return
	}

	ltp, _ := strconv.ParseFloat(data.LTP, 64)
	ts := data.TS
	if ts == 0 {
		ts = msg.TS
	}

	w.emit(exchange.Event{
		Type: exchange.EventTypeQuote,
		Quote: &models.Quote{
			Symbol:    data.Symbol,
			LTP:       ltp,
			Timestamp: time.UnixMilli(ts),
		},
	})
}

func (w *Client) handleOrder(msg Message) {
	var data struct {
		OrderID         string `json:"order_id"`
		ParentOrderID   string `json:"parent_order_id"`
		Symbol          string `json:"symbol"`
		TransactionType string `json:"transaction_type"`
		Status          string `json:"status"`
		Price           string `json:"price"`
		Quantity        string `json:"quantity"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать обновление ордера.")
		return
	}

	price, _ := strconv.ParseFloat(data.Price, 64)
	qty, _ := strconv.ParseInt(data.Quantity, 10, 64)

	w.emit(exchange.Event{
		Type: exchange.EventTypeOrder,
		Order: &models.OrderUpdate{
			Symbol:        data.Symbol,
			OrderID:       data.OrderID,
			ParentOrderID: parentID(data.ParentOrderID),
			Side:          mapSide(data.TransactionType),
			Status:        models.OrderStatus(strings.ToLower(data.Status)),
			Price:         price,
			Qty:           qty,
		},
	})
}

func (w *Client) handleTrade(msg Message) {
	var data struct {
		OrderID         string `json:"order_id"`
		ParentOrderID   string `json:"parent_order_id"`
		Symbol          string `json:"symbol"`
		TransactionType string `json:"transaction_type"`
		Quantity        string `json:"quantity"`
		AveragePrice    string `json:"average_price"`
		Status          string `json:"status"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать сделку.")
		return
	}

	qty, _ := strconv.ParseInt(data.Quantity, 10, 64)
	avg, _ := strconv.ParseFloat(data.AveragePrice, 64)

	w.emit(exchange.Event{
		Type: exchange.EventTypeTrade,
		Trade: &models.TradeUpdate{
			Symbol:        data.Symbol,
			OrderID:       data.OrderID,
			ParentOrderID: parentID(data.ParentOrderID),
			Side:          mapSide(data.TransactionType),
			Qty:           qty,
			AvgPrice:      avg,
			Status:        models.OrderStatus(strings.ToLower(data.Status)),
		},
	})
}

// emit отдаёт событие потребителю, не зависая на остановленном клиенте:
// если канал никто не читает, закрытие по stopCh освобождает отправителя.
func (w *Client) emit(ev exchange.Event) {
	select {
	case w.events <- ev:
	case <-w.stopCh:
	}
}

// parentID нормализует заглушку "NA" в пустой идентификатор.
func parentID(raw string) string {
	if raw == "" || strings.EqualFold(raw, "NA") {
		return ""
	}
	return raw
}

func mapSide(raw string) models.Side {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "B", "BUY":
		return models.SideBuy
	case "S", "SELL":
		return models.SideSell
	}
	return models.Side(raw)
}
