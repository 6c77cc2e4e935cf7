package ledger

import (
	"testing"

	"gannbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buy(oid, poid string, qty int64, avg float64) models.TradeUpdate {
	return models.TradeUpdate{
		Symbol:        "niftyaug19500ce",
		OrderID:       oid,
		ParentOrderID: poid,
		Side:          models.SideBuy,
		Qty:           qty,
		AvgPrice:      avg,
		Status:        models.OrderStatusComplete,
	}
}

func sell(oid, poid string, qty int64, avg float64) models.TradeUpdate {
	t := buy(oid, poid, qty, avg)
	t.Side = models.SideSell
	return t
}

func checkInvariant(t *testing.T, l *Ledger) {
	t.Helper()
	require.GreaterOrEqual(t, l.Holdings(), int64(0))
	if l.Holdings() == 0 {
		require.Empty(t, l.ParentOrderID())
	} else {
		require.NotEmpty(t, l.ParentOrderID())
	}
}

func TestApplyOpenClose(t *testing.T) {
	l := New()

	sig, err := l.Apply(buy("O1", "", 750, 103.0))
	require.NoError(t, err)
	assert.Equal(t, SignalOpened, sig)
	assert.Equal(t, int64(750), l.Holdings())
	assert.Equal(t, "O1", l.ParentOrderID())
	checkInvariant(t, l)

	sig, err = l.Apply(sell("S1", "O1", 750, 121.0))
	require.NoError(t, err)
	assert.Equal(t, SignalClosed, sig)
	assert.Equal(t, int64(0), l.Holdings())
	assert.Empty(t, l.SellOrderIDs())
	assert.InDelta(t, 750*(121.0-103.0), l.Realized(), 1e-9)
	checkInvariant(t, l)
}

func TestApplyParentFromTrade(t *testing.T) {
	l := New()

	sig, err := l.Apply(buy("O2", "ROOT", 75, 100.0))
	require.NoError(t, err)
	assert.Equal(t, SignalOpened, sig)
	assert.Equal(t, "ROOT", l.ParentOrderID())
}

func TestApplySecondBuyNoSignal(t *testing.T) {
	l := New()

	_, err := l.Apply(buy("O1", "", 75, 100.0))
	require.NoError(t, err)
	sig, err := l.Apply(buy("O2", "O1", 75, 101.0))
	require.NoError(t, err)
	assert.Equal(t, SignalNone, sig)
	assert.Equal(t, int64(150), l.Holdings())
	checkInvariant(t, l)
}

func TestApplyPartialSells(t *testing.T) {
	l := New()

	_, err := l.Apply(buy("O1", "", 750, 103.0))
	require.NoError(t, err)

	for i, qty := range []int64{250, 250} {
		sig, err := l.Apply(sell("S"+string(rune('1'+i)), "O1", qty, 110.0))
		require.NoError(t, err)
		assert.Equal(t, SignalNone, sig)
		checkInvariant(t, l)
	}
	assert.Equal(t, int64(250), l.Holdings())
	assert.Len(t, l.SellOrderIDs(), 2)

	sig, err := l.Apply(sell("S3", "O1", 250, 110.0))
	require.NoError(t, err)
	assert.Equal(t, SignalClosed, sig)
	assert.Equal(t, int64(0), l.Holdings())
	assert.Empty(t, l.SellOrderIDs())
	checkInvariant(t, l)
}

func TestApplyUnmatchedSellIgnored(t *testing.T) {
	l := New()

	_, err := l.Apply(buy("O1", "", 750, 103.0))
	require.NoError(t, err)

	_, err = l.Apply(sell("S1", "FOREIGN", 750, 110.0))
	assert.ErrorIs(t, err, ErrUnmatchedFill)
	assert.Equal(t, int64(750), l.Holdings())
	assert.Equal(t, "O1", l.ParentOrderID())

	_, err = l.Apply(sell("S2", "", 750, 110.0))
	assert.ErrorIs(t, err, ErrUnmatchedFill)
	assert.Equal(t, int64(750), l.Holdings())
}

func TestApplySellAtZeroNoop(t *testing.T) {
	l := New()

	sig, err := l.Apply(sell("S1", "O1", 750, 110.0))
	assert.ErrorIs(t, err, ErrNoHoldings)
	assert.Equal(t, SignalNone, sig)
	checkInvariant(t, l)
}

func TestApplyIncompleteStatusSkipped(t *testing.T) {
	l := New()

	tr := buy("O1", "", 750, 103.0)
	tr.Status = models.OrderStatusPending
	sig, err := l.Apply(tr)
	require.NoError(t, err)
	assert.Equal(t, SignalNone, sig)
	assert.Equal(t, int64(0), l.Holdings())
}

func TestApplyZeroQuantitySkipped(t *testing.T) {
	l := New()

	sig, err := l.Apply(buy("O1", "", 0, 103.0))
	assert.ErrorIs(t, err, ErrNoQuantity)
	assert.Equal(t, SignalNone, sig)
	assert.Equal(t, int64(0), l.Holdings())
	assert.Empty(t, l.ParentOrderID())
	checkInvariant(t, l)

	_, err = l.Apply(buy("O1", "", 750, 103.0))
	require.NoError(t, err)
	sig, err = l.Apply(sell("S1", "O1", 0, 110.0))
	assert.ErrorIs(t, err, ErrNoQuantity)
	assert.Equal(t, SignalNone, sig)
	assert.Equal(t, int64(750), l.Holdings())
	checkInvariant(t, l)
}

func TestApplyCompletedVariant(t *testing.T) {
	l := New()

	tr := buy("O1", "", 75, 100.0)
	tr.Status = models.OrderStatus("completed")
	sig, err := l.Apply(tr)
	require.NoError(t, err)
	assert.Equal(t, SignalOpened, sig)
}
