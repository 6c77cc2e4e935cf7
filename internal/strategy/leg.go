package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gannbot/internal/exchange"
	"gannbot/internal/gann"
	"gannbot/internal/ledger"
	"gannbot/internal/logger"
	"gannbot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LegState — явное состояние ноги. Журнал активности ведётся отдельно,
// только для аудита; решения принимаются по состоянию.
type LegState int

const (
	StateCreated LegState = iota
	StateInitialised
	StateOrdered
	StatePositionOpen
	StateSellStoploss
	StateSellTarget
	StatePositionClosed
	StatePositionFailed
	StateFinished
)

func (s LegState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialised:
		return "initialised"
	case StateOrdered:
		return "ordered"
	case StatePositionOpen:
		return "position-open"
	case StateSellStoploss:
		return "sell-stoploss"
	case StateSellTarget:
		return "sell-target"
	case StatePositionClosed:
		return "position-closed"
	case StatePositionFailed:
		return "position-failed"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

type LegConfig struct {
	TickSize        float64
	MaxCycles       int
	SlippagePercent float64
}

const (
	defaultMaxCycles       = 2
	defaultSlippagePercent = 1.0
)

// Leg — машина состояний Ганна для одного инструмента. Первый тик задаёт
// якорь и уровни; пересечение уровня входа даёт BUY с OCO-скобкой
// (стоп и цель уезжают брокеру смещениями от цены входа); подтверждения
// ордеров и сделок сводятся в Ledger.
type Leg struct {
	inst   models.Instrument
	broker exchange.Broker
	log    *logger.Logger

	tick      float64
	maxCycles int
	slippage  float64

	state    LegState
	activity []string
	levels   gann.Prices
	prevLTP  float64
	cycles   int
	book     *ledger.Ledger

	entryOrderID    string
	targetOrderID   string
	stoplossOrderID string

	entryGate func() bool
}

func NewLeg(inst models.Instrument, broker exchange.Broker, log *logger.Logger, cfg LegConfig) *Leg {
	if cfg.TickSize <= 0 {
		cfg.TickSize = gann.DefaultTick
	}
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = defaultMaxCycles
	}
	if cfg.SlippagePercent <= 0 {
		cfg.SlippagePercent = defaultSlippagePercent
	}
	l := &Leg{
		inst:      inst,
		broker:    broker,
		log:       log,
		tick:      cfg.TickSize,
		maxCycles: cfg.MaxCycles,
		slippage:  cfg.SlippagePercent / 100.0,
		state:     StateCreated,
		book:      ledger.New(),
	}
	l.activity = append(l.activity, l.state.String())
	return l
}

// SetEntryGate ставит внешний запрет на вход (взаимное исключение ног пары).
func (l *Leg) SetEntryGate(gate func() bool) {
	l.entryGate = gate
}

func (l *Leg) Symbols() []string {
	return []string{strings.ToLower(l.inst.Symbol)}
}

func (l *Leg) State() LegState {
	return l.state
}

func (l *Leg) Cycles() int {
	return l.cycles
}

func (l *Leg) Levels() gann.Prices {
	return l.levels
}

func (l *Leg) Ledger() *ledger.Ledger {
	return l.book
}

func (l *Leg) Activity() []string {
	out := make([]string, len(l.activity))
	copy(out, l.activity)
	return out
}

func (l *Leg) HandleQuote(ctx context.Context, quote models.Quote) {
	if l.state == StateFinished || l.state == StatePositionFailed {
		return
	}

	ltp := quote.LTP
	if l.state == StateCreated {
		if err := l.seed(ltp); err != nil {
			l.logEntry().WithError(err).Warn("Не удалось задать уровни, ждём следующий тик.")
		}
		return
	}

	switch l.state {
	case StateOrdered:
		return
	case StateInitialised, StatePositionClosed:
		if ltp > l.levels.Buy {
			// Цена убежала от уровня входа больше чем на слиппедж — гэп не догоняем.
			if ltp > l.levels.Buy*(1+l.slippage) {
				return
			}
			if l.entryGate != nil && !l.entryGate() {
				l.logEntry().WithField("ltp", ltp).Debug("Вход запрещён: вторая нога ещё выходит по цели.")
				return
			}
			if err := l.placeEntry(ctx, ltp); err != nil {
				l.logEntry().WithError(err).Error("Не удалось поставить входной ордер.")
				return
			}
			l.transition(StateOrdered)
			return
		}
		l.reanchor(ltp)
	case StatePositionOpen:
		if ltp < l.levels.Stoploss && l.book.ParentOrderID() != "" {
			l.logEntry().WithField("ltp", ltp).Info("Достигнут стоп-лосс.")
			l.transition(StateSellStoploss)
		} else if ltp > l.levels.Target {
			l.logEntry().WithField("ltp", ltp).Info("Достигнута цель.")
			l.transition(StateSellTarget)
		}
	}
}

func (l *Leg) HandleOrder(ctx context.Context, order models.OrderUpdate) {
	if l.state == StatePositionFailed || l.state == StateFinished {
		return
	}

	if l.state == StateOrdered && order.Side == models.SideBuy && order.Status.IsTerminalReject() {
		l.logEntry().WithFields(logrus.Fields{
			"order_id": order.OrderID,
			"status":   order.Status,
		}).Warn("Входной ордер отклонён, цикл завершён с ошибкой.")
		l.transition(StatePositionFailed)
		return
	}

	if order.Side != models.SideSell {
		return
	}
	if order.ParentOrderID == "" || order.ParentOrderID != l.book.ParentOrderID() {
		return
	}
	switch order.Status {
	case models.OrderStatusOpen:
		l.targetOrderID = order.OrderID
	case models.OrderStatusTriggerPending:
		l.stoplossOrderID = order.OrderID
	}
}

func (l *Leg) HandleTrade(ctx context.Context, trade models.TradeUpdate) {
	if l.state == StateFinished {
		return
	}

	signal, err := l.book.Apply(trade)
	if err != nil {
		if errors.Is(err, ledger.ErrUnmatchedFill) || errors.Is(err, ledger.ErrNoHoldings) ||
			errors.Is(err, ledger.ErrNoQuantity) {
			l.logEntry().WithError(err).WithField("order_id", trade.OrderID).Warn("Аномальное подтверждение сделки, игнорируем.")
			return
		}
		l.logEntry().WithError(err).Error("Ошибка учёта сделки.")
		return
	}

	switch signal {
	case ledger.SignalOpened:
		l.transition(StatePositionOpen)
	case ledger.SignalClosed:
		l.targetOrderID = ""
		l.stoplossOrderID = ""
		l.cycles++
		l.transition(StatePositionClosed)
		l.logEntry().WithFields(logrus.Fields{
			"cycles":   l.cycles,
			"realized": l.book.Realized(),
		}).Info("Цикл сделки закрыт.")
		if l.cycles >= l.maxCycles {
			l.logEntry().Info("Лимит циклов исчерпан, торговля по ноге остановлена.")
			l.transition(StateFinished)
		}
	}
}

func (l *Leg) Stop() {
	l.activity = append(l.activity, "stopped")
	l.logEntry().WithField("activity", strings.Join(l.activity, " -> ")).Info("Нога остановлена.")
}

func (l *Leg) seed(ltp float64) error {
	prices, err := gann.TradePrices(ltp, l.tick)
	if err != nil {
		return err
	}
	l.levels = prices
	l.prevLTP = ltp
	l.transition(StateInitialised)
	l.logLevels("Начальные уровни.")
	return nil
}

// reanchor пересчитывает уровни от нового, более низкого якоря,
// пока позиция не открыта.
func (l *Leg) reanchor(ltp float64) {
	if ltp >= l.prevLTP {
		return
	}
	prices, err := gann.TradePrices(ltp, l.tick)
	if err != nil {
		l.logEntry().WithError(err).Warn("Не удалось пересчитать уровни.")
		return
	}
	l.levels = prices
	l.prevLTP = ltp
	l.logLevels("Уровни пересчитаны по снижению цены.")
}

func (l *Leg) placeEntry(ctx context.Context, ltp float64) error {
	margin, err := l.broker.AvailableMargin(ctx)
	if err != nil {
		return fmt.Errorf("Не удалось получить доступную маржу: %w", err)
	}

	lots := int64(margin / (l.levels.Buy * float64(l.inst.LotSize)))
	if lots < 1 {
		return fmt.Errorf("Недостаточно средств для входа: %.2f", margin)
	}
	qty := lots * l.inst.LotSize

	req := models.OrderRequest{
		Symbol:         l.inst.Symbol,
		Side:           models.SideBuy,
		Qty:            qty,
		LimitPrice:     l.levels.Buy,
		StoplossOffset: math.Abs(l.levels.Buy - l.levels.Stoploss),
		TargetOffset:   math.Abs(l.levels.Target - l.levels.Buy),
		LinkID:         newLinkID(),
	}

	orderID, err := l.broker.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	l.entryOrderID = orderID

	l.log.WithOrderID(orderID).WithFields(logrus.Fields{
		"component": "leg",
		"symbol":    l.inst.Symbol,
		"ltp":       ltp,
		"buy":       l.levels.Buy,
		"target":    l.levels.Target,
		"stoploss":  l.levels.Stoploss,
		"qty":       qty,
	}).Info("Поставлен входной ордер.")
	return nil
}

func (l *Leg) transition(to LegState) {
	l.state = to
	l.activity = append(l.activity, to.String())
	l.logEntry().WithField("state", to.String()).Debug("Переход состояния.")
}

func (l *Leg) logLevels(msg string) {
	l.logEntry().WithFields(logrus.Fields{
		"anchor":   l.prevLTP,
		"buy":      l.levels.Buy,
		"target":   l.levels.Target,
		"stoploss": l.levels.Stoploss,
	}).Info(msg)
}

func (l *Leg) logEntry() *logrus.Entry {
	return l.log.WithComponent("leg").WithField("symbol", l.inst.Symbol)
}

func newLinkID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(raw) > 12 {
		return raw[:12]
	}
	return raw
}
