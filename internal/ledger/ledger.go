package ledger

import (
	"errors"

	"gannbot/internal/models"
)

var (
	// ErrUnmatchedFill — продажа с чужим или пустым parent_order_id.
	// Сделка игнорируется, позиция не меняется.
	ErrUnmatchedFill = errors.New("Продажа с неизвестным parent_order_id.")
	// ErrNoHoldings — продажа при нулевой позиции. Повторное подтверждение
	// уже закрытого цикла, не фатально.
	ErrNoHoldings = errors.New("Продажа при нулевой позиции.")
	// ErrNoQuantity — подтверждение с нулевым объёмом. Сделка игнорируется,
	// позиция не меняется.
	ErrNoQuantity = errors.New("Сделка с нулевым объёмом.")
)

type Signal int

const (
	SignalNone Signal = iota
	SignalOpened
	SignalClosed
)

// Ledger ведёт позицию одного инструмента: объём, реализованный результат,
// корневой ордер активной позиции и подтверждённые продажи.
// Инвариант: Holdings() == 0 тогда и только тогда, когда ParentOrderID() == "".
type Ledger struct {
	holdings      int64
	realized      float64
	parentOrderID string
	sellOrderIDs  []string
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Holdings() int64 {
	return l.holdings
}

func (l *Ledger) Realized() float64 {
	return l.realized
}

func (l *Ledger) ParentOrderID() string {
	return l.parentOrderID
}

func (l *Ledger) SellOrderIDs() []string {
	out := make([]string, len(l.sellOrderIDs))
	copy(out, l.sellOrderIDs)
	return out
}

// Apply применяет подтверждение сделки. Неполные статусы пропускаются.
// BUY наращивает позицию и фиксирует корневой ордер; первый BUY из нулевой
// позиции даёт SignalOpened. SELL с совпадающим parent уменьшает позицию;
// как только она исчерпана, позиция обнуляется, список продаж и корневой
// ордер сбрасываются и возвращается SignalClosed.
func (l *Ledger) Apply(trade models.TradeUpdate) (Signal, error) {
	if !trade.Status.IsComplete() {
		return SignalNone, nil
	}
	if trade.Qty <= 0 {
		return SignalNone, ErrNoQuantity
	}

	switch trade.Side {
	case models.SideBuy:
		root := trade.ParentOrderID
		if root == "" {
			root = trade.OrderID
		}
		opened := l.holdings == 0
		l.holdings += trade.Qty
		l.realized -= float64(trade.Qty) * trade.AvgPrice
		l.parentOrderID = root
		if opened {
			return SignalOpened, nil
		}
		return SignalNone, nil

	case models.SideSell:
		if l.holdings == 0 {
			return SignalNone, ErrNoHoldings
		}
		if trade.ParentOrderID == "" || trade.ParentOrderID != l.parentOrderID {
			return SignalNone, ErrUnmatchedFill
		}
		l.holdings -= trade.Qty
		l.realized += float64(trade.Qty) * trade.AvgPrice
		l.sellOrderIDs = append(l.sellOrderIDs, trade.OrderID)
		if l.holdings <= 0 {
			l.holdings = 0
			l.sellOrderIDs = nil
			l.parentOrderID = ""
			return SignalClosed, nil
		}
		return SignalNone, nil
	}

	return SignalNone, nil
}
