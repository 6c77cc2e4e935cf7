package strategy

import (
	"context"
	"strings"

	"gannbot/internal/logger"
	"gannbot/internal/models"
)

// Pair связывает колл- и пут-ноги в одну стратегию с общим ящиком.
// Правило взаимного исключения симметрично: нога не входит, пока у второй
// ноги не закрыт выход по цели (sell-target). Проверка читает состояние
// второй ноги, общих блокировок нет — обе ноги живут в одной горутине.
type Pair struct {
	call *Leg
	put  *Leg
	log  *logger.Logger
}

func NewPair(call, put *Leg, log *logger.Logger) *Pair {
	p := &Pair{
		call: call,
		put:  put,
		log:  log,
	}
	call.SetEntryGate(func() bool { return put.State() != StateSellTarget })
	put.SetEntryGate(func() bool { return call.State() != StateSellTarget })
	return p
}

func (p *Pair) Symbols() []string {
	return append(p.call.Symbols(), p.put.Symbols()...)
}

func (p *Pair) HandleQuote(ctx context.Context, quote models.Quote) {
	if leg := p.legFor(quote.Symbol); leg != nil {
		leg.HandleQuote(ctx, quote)
	}
}

func (p *Pair) HandleOrder(ctx context.Context, order models.OrderUpdate) {
	if leg := p.legFor(order.Symbol); leg != nil {
		leg.HandleOrder(ctx, order)
	}
}

func (p *Pair) HandleTrade(ctx context.Context, trade models.TradeUpdate) {
	if leg := p.legFor(trade.Symbol); leg != nil {
		leg.HandleTrade(ctx, trade)
	}
}

func (p *Pair) Stop() {
	p.call.Stop()
	p.put.Stop()
}

func (p *Pair) legFor(symbol string) *Leg {
	sym := strings.ToLower(symbol)
	switch {
	case sym == p.call.Symbols()[0]:
		return p.call
	case sym == p.put.Symbols()[0]:
		return p.put
	}
	p.log.WithComponent("pair").WithField("symbol", symbol).Debug("Событие по чужому инструменту.")
	return nil
}
