package rest

import (
	"context"
	"net/http"

	"gannbot/internal/models"
)

// PlaceOrder ставит лимитный ордер со скобкой: смещения стопа и цели
// отдаются брокеру, выходные ордера он ведёт сам (OCO).
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	body := map[string]any{
		"instrument_token":   req.Symbol,
		"transaction_type":   string(req.Side),
		"quantity":           req.Qty,
		"order_type":         "LIMIT",
		"product":            "B",
		"validity":           "DAY",
		"price":              req.LimitPrice,
		"stoploss":           req.StoplossOffset,
		"target":             req.TargetOffset,
		"disclosed_quantity": 0,
		"trigger_price":      0,
		"is_amo":             false,
		"tag":                req.LinkID,
	}

	var resp upstoxResponse[struct {
		OrderID string `json:"order_id"`
	}]
	if err := c.doRequest(ctx, http.MethodPost, "/order/place", nil, body, &resp); err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}
	return resp.Data.OrderID, nil
}
