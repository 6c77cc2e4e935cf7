package ws

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

func (w *Client) Subscribe(ctx context.Context, symbol string) error {
	sym := strings.ToLower(symbol)

	w.mu.Lock()
	w.symbols[sym] = struct{}{}
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("Фид не подключен.")
	}
	return w.writeRequest("sub", []string{sym})
}

func (w *Client) Unsubscribe(ctx context.Context, symbol string) error {
	sym := strings.ToLower(symbol)

	w.mu.Lock()
	delete(w.symbols, sym)
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return nil
	}
	return w.writeRequest("unsub", []string{sym})
}

// resubscribe восстанавливает весь накопленный набор подписок одним запросом.
func (w *Client) resubscribe() error {
	w.mu.Lock()
	syms := make([]string, 0, len(w.symbols))
	for sym := range w.symbols {
		syms = append(syms, sym)
	}
	w.mu.Unlock()

	if len(syms) == 0 {
		return nil
	}
	sort.Strings(syms)
	return w.writeRequest("sub", syms)
}

func (w *Client) writeRequest(method string, symbols []string) error {
	req := subscribeRequest{
		GUID:   uuid.New().String(),
		Method: method,
		Data: subscribeData{
			Mode:    "ltpc",
			Symbols: symbols,
		},
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return fmt.Errorf("Фид не подключен.")
	}
	return w.conn.WriteJSON(req)
}
