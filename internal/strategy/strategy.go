package strategy

import (
	"context"

	"gannbot/internal/models"
)

// Strategy — контракт торговой стратегии. Обработчики вызываются только из
// горутины её Runner, поэтому реализации не нуждаются в собственных блокировках.
type Strategy interface {
	// Symbols — инструменты, по которым стратегия ждёт события.
	// По ним роутер строит индекс подписок.
	Symbols() []string
	HandleQuote(ctx context.Context, quote models.Quote)
	HandleOrder(ctx context.Context, order models.OrderUpdate)
	HandleTrade(ctx context.Context, trade models.TradeUpdate)
	Stop()
}
