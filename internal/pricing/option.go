package pricing

import (
	"errors"
	"time"
)

// DaysPerYear is the fixed denominator of the actual/365 day count.
const DaysPerYear = 365.0

// CallOption is a European call. It is immutable once constructed.
type CallOption struct {
	strike   float64
	maturity time.Time
}

// NewCallOption validates the contract terms and returns the option.
func NewCallOption(strike float64, maturity time.Time) (CallOption, error) {
	if err := checkFinite([]string{"strike"}, strike); err != nil {
		return CallOption{}, err
	}
	if strike <= 0 {
		return CallOption{}, domainErr(InvalidStrike, "strike", strike)
	}
	if maturity.IsZero() {
		return CallOption{}, errors.New("maturity is required")
	}
	return CallOption{strike: strike, maturity: maturity}, nil
}

// Strike returns the exercise price.
func (c CallOption) Strike() float64 { return c.strike }

// Maturity returns the expiry instant as supplied. Its zone is the one day
// counts are taken in.
func (c CallOption) Maturity() time.Time { return c.maturity }

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of whole days from `from` to `to`.
//
// Both instants are read in to's zone and compared as calendar dates plus
// wall-clock time, so a daylight saving transition between them does not
// turn a 31-day span into 30 days and 23 hours. The remainder below one day
// is truncated toward zero: 23 hours counts as 0 days, -36 hours as -1 day.
func DaysBetween(from, to time.Time) int {
	from = from.In(to.Location())

	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	days := int(civilDay(ty, tm, td) - civilDay(fy, fm, fd))

	fc, tc := wallClock(from), wallClock(to)
	switch {
	case days > 0 && tc < fc:
		days--
	case days < 0 && tc > fc:
		days++
	}
	return days
}

// civilDay numbers a calendar date as days since 1970-01-01. It avoids
// time.Duration, which saturates past roughly 292 years.
func civilDay(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// wallClock is the time elapsed on the wall clock since local midnight.
func wallClock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// YearFraction converts the whole-day distance between two instants to years
// using the actual/365 fixed convention. It is negative when to is before from.
//
// Because of the whole-day truncation, inputs less than a day apart yield 0.
func YearFraction(from, to time.Time) float64 {
	return float64(DaysBetween(from, to)) / DaysPerYear
}

// DaysToMaturity returns the whole days left until expiry as seen from now.
func (c CallOption) DaysToMaturity(now time.Time) int {
	return DaysBetween(now, c.maturity)
}

// TimeToMaturity returns the year fraction left until expiry as seen from now.
// A maturity at or before now gives a value <= 0, which Price rejects.
func (c CallOption) TimeToMaturity(now time.Time) float64 {
	return YearFraction(now, c.maturity)
}

// Market carries the pricing inputs that are not part of the contract.
type Market struct {
	Spot       float64 `yaml:"spot" json:"spot"`
	Rate       float64 `yaml:"rate" json:"rate"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
}

// Validate checks the market inputs on their own, before any time is involved.
func (m Market) Validate() error {
	if err := checkFinite([]string{"spot", "rate", "volatility"}, m.Spot, m.Rate, m.Volatility); err != nil {
		return err
	}
	if m.Spot <= 0 {
		return domainErr(InvalidSpotPrice, "spot", m.Spot)
	}
	if m.Volatility <= 0 {
		return domainErr(InvalidVolatility, "volatility", m.Volatility)
	}
	return nil
}

// Quote is the result of pricing one call, with the intermediate terms kept
// for diagnostics.
type Quote struct {
	Strike         float64   `json:"strike"`
	Spot           float64   `json:"spot"`
	Rate           float64   `json:"rate"`
	Volatility     float64   `json:"volatility"`
	ValuationTime  time.Time `json:"valuation_time"`
	Maturity       time.Time `json:"maturity"`
	DaysToMaturity int       `json:"days_to_maturity"`
	TimeToMaturity float64   `json:"time_to_maturity"`
	D1             float64   `json:"d1"`
	D2             float64   `json:"d2"`
	ND1            float64   `json:"nd1"`
	ND2            float64   `json:"nd2"`
	DiscountFactor float64   `json:"discount_factor"`
	Price          float64   `json:"price"`
}

// Price values the call at now under the given market inputs.
//
// The maturity must be at least one whole day after now; otherwise the
// formula is undefined and a NonPositiveMaturity error is returned.
func (c CallOption) Price(m Market, now time.Time) (Quote, error) {
	if err := m.Validate(); err != nil {
		return Quote{}, err
	}

	days := c.DaysToMaturity(now)
	T := float64(days) / DaysPerYear
	if T <= 0 {
		return Quote{}, domainErr(NonPositiveMaturity, "time_to_maturity", T)
	}

	terms, err := evaluate(m.Spot, c.strike, T, m.Rate, m.Volatility)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Strike:         c.strike,
		Spot:           m.Spot,
		Rate:           m.Rate,
		Volatility:     m.Volatility,
		ValuationTime:  now,
		Maturity:       c.maturity,
		DaysToMaturity: days,
		TimeToMaturity: T,
		D1:             terms.d1,
		D2:             terms.d2,
		ND1:            terms.nd1,
		ND2:            terms.nd2,
		DiscountFactor: terms.discount,
		Price:          terms.call,
	}, nil
}
