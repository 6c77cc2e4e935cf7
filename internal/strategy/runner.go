package strategy

import (
	"context"
	"sync"
	"time"

	"gannbot/internal/exchange"
	"gannbot/internal/logger"

	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 500 * time.Millisecond

// Runner гоняет стратегию в отдельной горутине: на каждой итерации проверяет
// флаг остановки, вычерпывает ящик до дна и засыпает до следующего опроса.
// Блокирующие вызовы (ордера, логирование) происходят только здесь,
// никогда в контексте доставки фида.
type Runner struct {
	strategy Strategy
	mailbox  *Mailbox
	log      *logger.Logger
	poll     time.Duration

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewRunner(s Strategy, log *logger.Logger, poll time.Duration) *Runner {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Runner{
		strategy: s,
		mailbox:  NewMailbox(),
		log:      log,
		poll:     poll,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Runner) Mailbox() *Mailbox {
	return r.mailbox
}

func (r *Runner) Symbols() []string {
	return r.strategy.Symbols()
}

func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	// После Stop новый цикл не запускается.
	select {
	case <-r.stopCh:
		return
	default:
	}
	r.started = true
	go r.loop(ctx)
}

// Stop взводит кооперативный флаг и ждёт выхода горутины.
// Оставшиеся в ящике события отбрасываются. Безопасен при
// одновременном вызове со Start из другой горутины.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		<-r.done
	}
	r.strategy.Stop()
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	r.logEntry().Debug("Цикл стратегии запущен.")
	for {
		select {
		case <-ctx.Done():
			r.mailbox.Clear()
			return
		case <-r.stopCh:
			r.mailbox.Clear()
			r.logEntry().Debug("Цикл стратегии остановлен.")
			return
		case <-time.After(r.poll):
		}

		for {
			ev, ok := r.mailbox.Pop()
			if !ok {
				break
			}
			r.dispatch(ctx, ev)
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, ev exchange.Event) {
	switch ev.Type {
	case exchange.EventTypeQuote:
		if ev.Quote != nil {
			r.strategy.HandleQuote(ctx, *ev.Quote)
		}
	case exchange.EventTypeOrder:
		if ev.Order != nil {
			r.strategy.HandleOrder(ctx, *ev.Order)
		}
	case exchange.EventTypeTrade:
		if ev.Trade != nil {
			r.strategy.HandleTrade(ctx, *ev.Trade)
		}
	}
}

func (r *Runner) logEntry() *logrus.Entry {
	return r.log.WithComponent("runner").WithField("symbols", r.strategy.Symbols())
}
