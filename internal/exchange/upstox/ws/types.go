package ws

import (
	"encoding/json"
	"sync"
	"time"

	"gannbot/internal/exchange"
	"gannbot/internal/logger"

	"github.com/gorilla/websocket"
)

type Client struct {
	url   string
	token string
	log   *logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	symbols map[string]struct{}
	started bool

	events   chan exchange.Event
	stopCh   chan struct{}
	stopOnce sync.Once

	reconnectMin time.Duration
	reconnectMax time.Duration
}

type Message struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"`
	Data json.RawMessage `json:"data"`
}

type subscribeRequest struct {
	GUID   string        `json:"guid"`
	Method string        `json:"method"`
	Data   subscribeData `json:"data"`
}

type subscribeData struct {
	Mode    string   `json:"mode"`
	Symbols []string `json:"symbols"`
}
