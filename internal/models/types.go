package models

import (
	"strings"
	"time"
)

type Side string
type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"

	OrderStatusPending        OrderStatus = "pending"
	OrderStatusOpen           OrderStatus = "open"
	OrderStatusTriggerPending OrderStatus = "trigger pending"
	OrderStatusComplete       OrderStatus = "complete"
	OrderStatusRejected       OrderStatus = "rejected"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsComplete учитывает оба варианта статуса, которые присылает брокер.
func (s OrderStatus) IsComplete() bool {
	v := strings.ToLower(string(s))
	return v == "complete" || v == "completed"
}

func (s OrderStatus) IsTerminalReject() bool {
	v := strings.ToLower(string(s))
	return v == string(OrderStatusRejected) || v == string(OrderStatusCancelled)
}

type Instrument struct {
	Symbol   string  `json:"symbol"`
	Exchange string  `json:"exchange"`
	LotSize  int64   `json:"lot_size"`
	TickSize float64 `json:"tick_size"`
}

type Quote struct {
	Symbol    string    `json:"symbol"`
	LTP       float64   `json:"ltp"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderUpdate struct {
	Symbol        string      `json:"symbol"`
	OrderID       string      `json:"order_id"`
	ParentOrderID string      `json:"parent_order_id"`
	Side          Side        `json:"side"`
	Status        OrderStatus `json:"status"`
	Price         float64     `json:"price"`
	Qty           int64       `json:"qty"`
}

type TradeUpdate struct {
	Symbol        string      `json:"symbol"`
	OrderID       string      `json:"order_id"`
	ParentOrderID string      `json:"parent_order_id"`
	Side          Side        `json:"side"`
	Qty           int64       `json:"qty"`
	AvgPrice      float64     `json:"avg_price"`
	Status        OrderStatus `json:"status"`
}

type OrderRequest struct {
	Symbol         string  `json:"symbol"`
	Side           Side    `json:"side"`
	Qty            int64   `json:"qty"`
	LimitPrice     float64 `json:"limit_price"`
	StoplossOffset float64 `json:"stoploss_offset"`
	TargetOffset   float64 `json:"target_offset"`
	LinkID         string  `json:"link_id"`
}
