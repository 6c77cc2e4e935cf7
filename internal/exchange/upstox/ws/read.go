package ws

import (
	"context"
	"encoding/json"
	"time"

	"gannbot/internal/exchange"
)

func (w *Client) readLoop() {
	w.logEntry().Debug("Цикл чтения фида запущен.")

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		conn := w.currentConn()
		if conn == nil {
			if !w.reconnect() {
				return
			}
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.stopCh:
				return
			default:
			}
			// Соединение мог заменить Restart — тогда просто читаем новое.
			if w.currentConn() != conn {
				continue
			}
			w.logEntry().WithError(err).Warn("Ошибка чтения фида.")
			if !w.reconnect() {
				return
			}
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать сообщение фида.")
			continue
		}

		switch msg.Type {
		case "ltp", "ltpc", "quote":
			w.handleQuote(msg)
		case "order":
			w.handleOrder(msg)
		case "trade":
			w.handleTrade(msg)
		default:
			continue
		}
	}
}

func (w *Client) reconnect() bool {
	backoff := w.reconnectMin

	for {
		select {
		case <-w.stopCh:
			return false
		default:
		}

		w.logEntry().Info("Попытка переподключения к фиду.")

		time.Sleep(backoff)

		conn, err := w.dial(context.Background())
		if err != nil {
			w.logEntry().WithError(err).Warn("Не удалось переподключиться к фиду.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		w.mu.Lock()
		old := w.conn
		w.conn = conn
		w.mu.Unlock()
		if old != nil {
			_ = old.Close()
		}

		if err := w.resubscribe(); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось восстановить подписки.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		w.emit(exchange.Event{Type: exchange.EventTypeReconnect})
		w.logEntry().Info("Фид переподключён, подписки восстановлены.")
		return true
	}
}

func (w *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.reconnectMax {
		return w.reconnectMax
	}
	return next
}
