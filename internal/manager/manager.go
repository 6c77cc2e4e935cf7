package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gannbot/internal/clock"
	"gannbot/internal/exchange"
	"gannbot/internal/logger"
	"gannbot/internal/strategy"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Open           string
	Cutoff         string
	StaleAfter     time.Duration
	CheckInterval  time.Duration
	OpenPoll       time.Duration
	MaxReconnects  int
	ReconnectDelay time.Duration
}

const (
	defaultStaleAfter     = 10 * time.Second
	defaultCheckInterval  = 1 * time.Second
	defaultOpenPoll       = 10 * time.Second
	defaultMaxReconnects  = 5
	defaultReconnectDelay = 1 * time.Second
)

// Manager владеет соединением с фидом: раскладывает входящие события по ящикам
// стратегий, следит за свежестью потока и держит торговую сессию в рамках
// окна open..cutoff.
type Manager struct {
	feed exchange.Feed
	clk  clock.Clock
	log  *logger.Logger
	cfg  Config

	mu         sync.Mutex
	mailboxes  map[string]*strategy.Mailbox
	subscribed map[string]struct{}
	runners    []*strategy.Runner
	running    bool
	stopped    bool

	lastEvent atomic.Int64
}

func New(feed exchange.Feed, clk clock.Clock, log *logger.Logger, cfg Config) *Manager {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	if cfg.OpenPoll <= 0 {
		cfg.OpenPoll = defaultOpenPoll
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Manager{
		feed:       feed,
		clk:        clk,
		log:        log,
		cfg:        cfg,
		mailboxes:  map[string]*strategy.Mailbox{},
		subscribed: map[string]struct{}{},
	}
}

// AddStrategy регистрирует стратегию: её инструменты попадают в индекс роутера.
// Подписка на фид выполняется при старте сессии.
func (m *Manager) AddStrategy(r *strategy.Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sym := range r.Symbols() {
		m.mailboxes[strings.ToLower(sym)] = r.Mailbox()
	}
	m.runners = append(m.runners, r)
}

// Run гоняет сессию: ждёт открытия, запускает фид и стратегии, затем
// периодически проверяет свежесть потока. После отсечки всё останавливает.
func (m *Manager) Run(ctx context.Context) error {
	open, cutoff, err := TradeHours(m.clk.Now(), m.cfg.Open, m.cfg.Cutoff)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			m.Stop(context.Background())
			return ctx.Err()
		}

		now := m.clk.Now()
		switch {
		case now.Before(open):
			m.logEntry().Info("Ожидание начала торговой сессии.")
			if !m.sleep(ctx, m.cfg.OpenPoll) {
				continue
			}
		case now.After(cutoff):
			m.logEntry().Info("Достигнуто время отсечки, закрываем сессию.")
			m.Stop(ctx)
			return nil
		case !m.isRunning():
			m.logEntry().Info("Запуск сессии.")
			if err := m.start(ctx); err != nil {
				m.Stop(ctx)
				return err
			}
		default:
			if err := m.checkStale(ctx); err != nil {
				m.Stop(ctx)
				return err
			}
			m.sleep(ctx, m.cfg.CheckInterval)
		}
	}
}

func (m *Manager) start(ctx context.Context) error {
	if err := m.feed.Connect(ctx); err != nil {
		return fmt.Errorf("Не удалось подключиться к фиду: %w", err)
	}

	go m.deliver(ctx)

	if err := m.ResubscribeAll(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	runners := append([]*strategy.Runner{}, m.runners...)
	m.running = true
	m.mu.Unlock()

	for _, r := range runners {
		r.Start(ctx)
	}

	m.lastEvent.Store(m.clk.Now().UnixNano())
	return nil
}

// deliver — контекст доставки: читает канал фида и только раскладывает
// события по ящикам.
func (m *Manager) deliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-m.feed.Events():
			if !ok {
				m.logEntry().Warn("Канал событий фида закрыт.")
				return
			}
			m.Route(ctx, ev)
		}
	}
}

// Route находит ящик владельца инструмента и кладёт событие туда.
// Инструмент без владельца отписывается от фида, событие отбрасывается.
// Никаких блокирующих вызовов: только поиск по индексу и enqueue.
func (m *Manager) Route(ctx context.Context, ev exchange.Event) {
	m.lastEvent.Store(m.clk.Now().UnixNano())

	if ev.Type == exchange.EventTypeReconnect {
		m.logEntry().Info("Фид переподключился.")
		return
	}

	sym := strings.ToLower(ev.Symbol())
	if sym == "" {
		return
	}

	m.mu.Lock()
	mb, ok := m.mailboxes[sym]
	if !ok {
		delete(m.subscribed, sym)
	}
	m.mu.Unlock()

	if !ok {
		m.logEntry().WithField("symbol", sym).Debug("Нет стратегии для инструмента, отписка.")
		go func() {
			if err := m.feed.Unsubscribe(ctx, sym); err != nil {
				m.logEntry().WithError(err).WithField("symbol", sym).Debug("Не удалось отписаться от инструмента.")
			}
		}()
		return
	}

	mb.Put(ev)
}

// ResubscribeAll подписывает все инструменты зарегистрированных стратегий.
// Идемпотентна: повторный вызов даёт тот же набор подписок.
func (m *Manager) ResubscribeAll(ctx context.Context) error {
	m.mu.Lock()
	syms := make([]string, 0, len(m.mailboxes))
	for sym := range m.mailboxes {
		syms = append(syms, sym)
	}
	m.mu.Unlock()
	sort.Strings(syms)

	for _, sym := range syms {
		if err := m.feed.Subscribe(ctx, sym); err != nil {
			return fmt.Errorf("Не удалось подписаться на %s: %w", sym, err)
		}
		m.mu.Lock()
		m.subscribed[sym] = struct{}{}
		m.mu.Unlock()
	}
	return nil
}

// checkStale сравнивает возраст последнего события с порогом; при простое
// выполняет один цикл восстановления: рестарт фида и повторная подписка.
func (m *Manager) checkStale(ctx context.Context) error {
	last := time.Unix(0, m.lastEvent.Load())
	if m.clk.Now().Sub(last) <= m.cfg.StaleAfter {
		return nil
	}

	m.logEntry().WithField("last_event", last).Warn("Поток данных простаивает, переподключение.")
	return m.reconnect(ctx)
}

func (m *Manager) reconnect(ctx context.Context) error {
	var lastErr error
	delay := m.cfg.ReconnectDelay
	for i := 0; i < m.cfg.MaxReconnects; i++ {
		if err := m.feed.Restart(ctx); err != nil {
			lastErr = err
			m.logEntry().WithError(err).Warn("Не удалось перезапустить фид, повторяем.")
			if !m.sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay)
			continue
		}
		if err := m.ResubscribeAll(ctx); err != nil {
			lastErr = err
			m.logEntry().WithError(err).Warn("Не удалось восстановить подписки, повторяем.")
			if !m.sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay)
			continue
		}
		m.lastEvent.Store(m.clk.Now().UnixNano())
		return nil
	}
	return fmt.Errorf("Не удалось восстановить поток данных: %w", lastErr)
}

// Stop останавливает стратегии, отписывает все инструменты и закрывает фид.
// Повторный вызов безопасен.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.running = false
	runners := append([]*strategy.Runner{}, m.runners...)
	syms := make([]string, 0, len(m.subscribed))
	for sym := range m.subscribed {
		syms = append(syms, sym)
	}
	m.subscribed = map[string]struct{}{}
	m.mu.Unlock()
	sort.Strings(syms)

	for _, r := range runners {
		r.Stop()
	}

	for _, sym := range syms {
		if err := m.feed.Unsubscribe(ctx, sym); err != nil {
			m.logEntry().WithError(err).WithField("symbol", sym).Debug("Не удалось отписаться при остановке.")
		}
	}

	if err := m.feed.Close(); err != nil {
		m.logEntry().WithError(err).Warn("Не удалось закрыть фид.")
	}
	m.logEntry().Info("Сессия остановлена.")
}

func (m *Manager) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}

func (m *Manager) logEntry() *logrus.Entry {
	return m.log.WithComponent("manager")
}
