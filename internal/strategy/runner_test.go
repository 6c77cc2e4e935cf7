package strategy

import (
	"context"
	"sync"
	"testing"
	"time"

	"gannbot/internal/exchange"
	"gannbot/internal/logger"
	"gannbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStrategy struct {
	mu      sync.Mutex
	quotes  []models.Quote
	orders  []models.OrderUpdate
	trades  []models.TradeUpdate
	stopped bool
}

func (s *recordingStrategy) Symbols() []string { return []string{"niftyaug19500ce"} }

func (s *recordingStrategy) HandleQuote(ctx context.Context, q models.Quote) {
	s.mu.Lock()
	s.quotes = append(s.quotes, q)
	s.mu.Unlock()
}

func (s *recordingStrategy) HandleOrder(ctx context.Context, o models.OrderUpdate) {
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
}

func (s *recordingStrategy) HandleTrade(ctx context.Context, tr models.TradeUpdate) {
	s.mu.Lock()
	s.trades = append(s.trades, tr)
	s.mu.Unlock()
}

func (s *recordingStrategy) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func quoteEvent(symbol string, ltp float64) exchange.Event {
	return exchange.Event{
		Type:  exchange.EventTypeQuote,
		Quote: &models.Quote{Symbol: symbol, LTP: ltp},
	}
}

func TestMailboxFIFO(t *testing.T) {
	mb := NewMailbox()

	for _, ltp := range []float64{1, 2, 3} {
		mb.Put(quoteEvent("a", ltp))
	}
	require.Equal(t, 3, mb.Len())

	for _, want := range []float64{1, 2, 3} {
		ev, ok := mb.Pop()
		require.True(t, ok)
		assert.Equal(t, want, ev.Quote.LTP)
	}

	_, ok := mb.Pop()
	assert.False(t, ok)

	mb.Put(quoteEvent("a", 4))
	mb.Clear()
	assert.Equal(t, 0, mb.Len())
}

func TestRunnerDrainsMailbox(t *testing.T) {
	s := &recordingStrategy{}
	r := NewRunner(s, logger.Discard(), 5*time.Millisecond)

	r.Mailbox().Put(quoteEvent("niftyaug19500ce", 100))
	r.Mailbox().Put(exchange.Event{
		Type:  exchange.EventTypeOrder,
		Order: &models.OrderUpdate{Symbol: "niftyaug19500ce", OrderID: "O1"},
	})
	r.Mailbox().Put(exchange.Event{
		Type:  exchange.EventTypeTrade,
		Trade: &models.TradeUpdate{Symbol: "niftyaug19500ce", OrderID: "O1"},
	})

	r.Start(context.Background())
	defer r.Stop()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.quotes) == 1 && len(s.orders) == 1 && len(s.trades) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, r.Mailbox().Len())
}

func TestRunnerStopDiscardsAndStopsStrategy(t *testing.T) {
	s := &recordingStrategy{}
	r := NewRunner(s, logger.Discard(), time.Hour)

	r.Start(context.Background())
	r.Mailbox().Put(quoteEvent("niftyaug19500ce", 100))
	r.Stop()

	s.mu.Lock()
	assert.True(t, s.stopped)
	assert.Empty(t, s.quotes)
	s.mu.Unlock()
	assert.Equal(t, 0, r.Mailbox().Len())
}

func TestRunnerConcurrentStartStop(t *testing.T) {
	s := &recordingStrategy{}
	r := NewRunner(s, logger.Discard(), time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Start(context.Background())
	}()
	go func() {
		defer wg.Done()
		r.Stop()
	}()
	wg.Wait()

	s.mu.Lock()
	assert.True(t, s.stopped)
	s.mu.Unlock()

	// После Stop повторный Start цикл не поднимает.
	r.Start(context.Background())
	r.Mailbox().Put(quoteEvent("niftyaug19500ce", 100))
	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	assert.Empty(t, s.quotes)
	s.mu.Unlock()
}

func TestRunnerStopWithoutStart(t *testing.T) {
	s := &recordingStrategy{}
	r := NewRunner(s, logger.Discard(), 0)

	r.Stop()
	assert.True(t, s.stopped)
}
