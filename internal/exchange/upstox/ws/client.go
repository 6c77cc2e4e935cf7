package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gannbot/internal/exchange"
	"gannbot/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func New(url, token string, log *logger.Logger) *Client {
	return &Client{
		url:          url,
		token:        token,
		log:          log,
		symbols:      map[string]struct{}{},
		events:       make(chan exchange.Event, 100),
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

// Connect устанавливает соединение и запускает цикл чтения.
// Повторный вызов на живом соединении ничего не делает.
func (w *Client) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.conn != nil {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	w.logEntry().WithField("url", w.url).Info("Подключение к фиду.")

	conn, err := w.dial(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conn = conn
	started := w.started
	w.started = true
	w.mu.Unlock()

	w.logEntry().Info("Соединение с фидом установлено.")

	if !started {
		go w.readLoop()
	}
	return nil
}

// Restart поднимает свежее соединение и восстанавливает подписки.
// Безопасен на живом соединении: старое просто закрывается.
func (w *Client) Restart(ctx context.Context) error {
	conn, err := w.dial(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	old := w.conn
	w.conn = conn
	started := w.started
	w.started = true
	w.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if !started {
		go w.readLoop()
	}

	if err := w.resubscribe(); err != nil {
		return err
	}
	w.logEntry().Info("Фид перезапущен, подписки восстановлены.")
	return nil
}

func (w *Client) Close() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (w *Client) Events() <-chan exchange.Event {
	return w.events
}

func (w *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, header)
	if err != nil {
		return nil, fmt.Errorf("Не удалось подключиться к фиду: %w", err)
	}
	conn.SetReadLimit(2 << 20)
	return conn, nil
}

func (w *Client) currentConn() *websocket.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

func (w *Client) logEntry() *logrus.Entry {
	return w.log.WithComponent("upstox_ws")
}
