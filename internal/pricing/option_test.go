package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var locNY *time.Location

func init() {
	var err error
	locNY, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

func TestTimeToMaturity_OneYearIsExact(t *testing.T) {
	now := time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC)
	call, err := NewCallOption(100, now.AddDate(0, 0, 365))
	require.NoError(t, err)

	assert.Equal(t, 365, call.DaysToMaturity(now))
	assert.Equal(t, 1.0, call.TimeToMaturity(now))
}

func TestTimeToMaturity(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		maturity time.Time
		wantDays int
	}{
		{
			name:     "two months",
			now:      time.Date(2021, 11, 1, 0, 0, 0, 0, time.Local),
			maturity: time.Date(2022, 1, 1, 0, 0, 0, 0, time.Local),
			wantDays: 61,
		},
		{
			name:     "sub-day remainder truncated",
			now:      time.Date(2021, 11, 1, 13, 0, 0, 0, time.UTC),
			maturity: time.Date(2021, 11, 3, 12, 0, 0, 0, time.UTC),
			wantDays: 1,
		},
		{
			name:     "less than a day",
			now:      time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC),
			maturity: time.Date(2021, 11, 1, 23, 59, 59, 0, time.UTC),
			wantDays: 0,
		},
		{
			name:     "expired truncates toward zero",
			now:      time.Date(2021, 11, 3, 0, 0, 0, 0, time.UTC),
			maturity: time.Date(2021, 11, 1, 12, 0, 0, 0, time.UTC),
			wantDays: -1,
		},
		{
			name:     "spring forward does not lose a day",
			now:      time.Date(2021, 3, 1, 0, 0, 0, 0, locNY),
			maturity: time.Date(2021, 4, 1, 0, 0, 0, 0, locNY),
			wantDays: 31,
		},
		{
			name:     "fall back does not gain a day",
			now:      time.Date(2021, 11, 1, 0, 0, 0, 0, locNY),
			maturity: time.Date(2021, 11, 8, 0, 0, 0, 0, locNY),
			wantDays: 7,
		},
		{
			name:     "mixed zones",
			now:      time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC),
			maturity: time.Date(2022, 1, 1, 0, 0, 0, 0, locNY),
			wantDays: 61,
		},
		{
			name:     "five centuries ahead",
			now:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			maturity: time.Date(2521, 1, 1, 0, 0, 0, 0, time.UTC),
			wantDays: 182621,
		},
		{
			name:     "five centuries back",
			now:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			maturity: time.Date(1521, 1, 1, 0, 0, 0, 0, time.UTC),
			wantDays: -182622,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			call, err := NewCallOption(100, tc.maturity)
			require.NoError(t, err)

			assert.Equal(t, tc.wantDays, call.DaysToMaturity(tc.now))
			assert.Equal(t, float64(tc.wantDays)/365.0, call.TimeToMaturity(tc.now))
		})
	}
}

func TestNewCallOption_Validation(t *testing.T) {
	maturity := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewCallOption(0, maturity)
	assert.ErrorIs(t, err, ErrInvalidStrike)

	_, err = NewCallOption(-1, maturity)
	assert.ErrorIs(t, err, ErrInvalidStrike)

	_, err = NewCallOption(math.NaN(), maturity)
	assert.ErrorIs(t, err, ErrNonFiniteInput)

	_, err = NewCallOption(100, time.Time{})
	assert.Error(t, err)

	call, err := NewCallOption(100, maturity)
	require.NoError(t, err)
	assert.Equal(t, 100.0, call.Strike())
	assert.True(t, maturity.Equal(call.Maturity()))
}

func TestMarket_Validate(t *testing.T) {
	assert.NoError(t, Market{Spot: 100, Rate: -0.01, Volatility: 0.2}.Validate())
	assert.ErrorIs(t, Market{Spot: 0, Rate: 0.05, Volatility: 0.2}.Validate(), ErrInvalidSpotPrice)
	assert.ErrorIs(t, Market{Spot: 100, Rate: 0.05, Volatility: 0}.Validate(), ErrInvalidVolatility)
	assert.ErrorIs(t, Market{Spot: 100, Rate: math.NaN(), Volatility: 0.2}.Validate(), ErrNonFiniteInput)
}

func TestCallOption_Price(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	call, err := NewCallOption(100, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	q, err := call.Price(Market{Spot: 100, Rate: 0.05, Volatility: 0.2}, now)
	require.NoError(t, err)

	assert.Equal(t, 365, q.DaysToMaturity)
	assert.Equal(t, 1.0, q.TimeToMaturity)
	assert.InDelta(t, 0.35, q.D1, 1e-12)
	assert.InDelta(t, 0.15, q.D2, 1e-12)
	assert.InDelta(t, math.Exp(-0.05), q.DiscountFactor, 1e-15)
	assert.InDelta(t, 10.450583572185565, q.Price, 1e-9)
	assert.InDelta(t, q.Spot*q.ND1-q.Strike*q.DiscountFactor*q.ND2, q.Price, 1e-12)

	direct, err := BlackScholesCall(100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)
	assert.Equal(t, direct, q.Price)
}

func TestCallOption_PriceRejectsExpired(t *testing.T) {
	now := time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC)
	market := Market{Spot: 100, Rate: 0.05, Volatility: 0.2}

	for _, maturity := range []time.Time{
		now,
		now.Add(12 * time.Hour),
		now.AddDate(0, 0, -30),
	} {
		call, err := NewCallOption(100, maturity)
		require.NoError(t, err)

		q, err := call.Price(market, now)
		assert.ErrorIs(t, err, ErrNonPositiveMaturity, "maturity=%v", maturity)
		assert.Zero(t, q.Price)
	}
}

func TestCallOption_PriceRejectsBadMarket(t *testing.T) {
	now := time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC)
	call, err := NewCallOption(100, now.AddDate(1, 0, 0))
	require.NoError(t, err)

	_, err = call.Price(Market{Spot: 100, Rate: 0.05, Volatility: 0}, now)
	assert.ErrorIs(t, err, ErrInvalidVolatility)

	_, err = call.Price(Market{Spot: -1, Rate: 0.05, Volatility: 0.2}, now)
	assert.ErrorIs(t, err, ErrInvalidSpotPrice)
}
