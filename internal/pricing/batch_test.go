package pricing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCall(t *testing.T, strike float64, maturity time.Time) CallOption {
	t.Helper()
	c, err := NewCallOption(strike, maturity)
	require.NoError(t, err)
	return c
}

func TestPriceBatch_KeepsOrderAndIsolatesErrors(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	oneYear := now.AddDate(0, 0, 365)

	contracts := []Contract{
		{ID: "atm", Option: mustCall(t, 100, oneYear), Market: Market{Spot: 100, Rate: 0.05, Volatility: 0.2}},
		{ID: "no-vol", Option: mustCall(t, 100, oneYear), Market: Market{Spot: 100, Rate: 0.05, Volatility: 0}},
		{ID: "expired", Option: mustCall(t, 100, now.AddDate(0, 0, -1)), Market: Market{Spot: 100, Rate: 0.05, Volatility: 0.2}},
		{ID: "itm", Option: mustCall(t, 90, oneYear), Market: Market{Spot: 100, Rate: 0.05, Volatility: 0.2}},
	}

	results := PriceBatch(context.Background(), contracts, now, 2)
	require.Len(t, results, len(contracts))

	for i, r := range results {
		assert.Equal(t, contracts[i].ID, r.ID)
	}

	require.NoError(t, results[0].Err)
	assert.InDelta(t, 10.450583572185565, results[0].Quote.Price, 1e-9)

	assert.ErrorIs(t, results[1].Err, ErrInvalidVolatility)
	assert.ErrorIs(t, results[2].Err, ErrNonPositiveMaturity)

	require.NoError(t, results[3].Err)
	assert.Greater(t, results[3].Quote.Price, results[0].Quote.Price)
}

func TestPriceBatch_MatchesSequential(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	var contracts []Contract
	for i := 0; i < 200; i++ {
		contracts = append(contracts, Contract{
			ID:     fmt.Sprintf("c%03d", i),
			Option: mustCall(t, 50+float64(i%100), now.AddDate(0, 0, 7+i)),
			Market: Market{Spot: 100, Rate: 0.03, Volatility: 0.1 + float64(i%10)*0.05},
		})
	}

	results := PriceBatch(context.Background(), contracts, now, 0)
	for i, r := range results {
		require.NoError(t, r.Err)
		want, err := contracts[i].Option.Price(contracts[i].Market, now)
		require.NoError(t, err)
		assert.Equal(t, want, r.Quote)
	}
}

func TestPriceBatch_CancelledContext(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	contracts := []Contract{
		{ID: "a", Option: mustCall(t, 100, now.AddDate(1, 0, 0)), Market: Market{Spot: 100, Rate: 0.05, Volatility: 0.2}},
		{ID: "b", Option: mustCall(t, 100, now.AddDate(1, 0, 0)), Market: Market{Spot: 100, Rate: 0.05, Volatility: 0.2}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := PriceBatch(ctx, contracts, now, 1)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.Zero(t, r.Quote.Price)
	}
}

func TestPriceBatch_Empty(t *testing.T) {
	assert.Empty(t, PriceBatch(context.Background(), nil, time.Now(), 4))
}
