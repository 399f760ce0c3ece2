package pricing

import (
	"fmt"
	"math"
)

// Kind identifies which precondition of the pricing chain was violated.
type Kind string

const (
	InvalidStrike       Kind = "invalid strike"        // strike <= 0
	InvalidSpotPrice    Kind = "invalid spot price"    // spot <= 0
	InvalidVolatility   Kind = "invalid volatility"    // volatility <= 0
	NonPositiveMaturity Kind = "non-positive maturity" // time to maturity <= 0
	NonFiniteInput      Kind = "non-finite input"      // NaN or ±Inf
)

// DomainError reports an input outside the domain of the Black-Scholes formula.
// Two DomainErrors match under errors.Is when their Kind is equal, so callers
// can test against the Err* sentinels below and use errors.As for details.
type DomainError struct {
	Kind  Kind
	Field string
	Value float64
}

var (
	ErrInvalidStrike       = &DomainError{Kind: InvalidStrike}
	ErrInvalidSpotPrice    = &DomainError{Kind: InvalidSpotPrice}
	ErrInvalidVolatility   = &DomainError{Kind: InvalidVolatility}
	ErrNonPositiveMaturity = &DomainError{Kind: NonPositiveMaturity}
	ErrNonFiniteInput      = &DomainError{Kind: NonFiniteInput}
)

func (e *DomainError) Error() string {
	if e.Field == "" {
		return "domain error: " + string(e.Kind)
	}
	return fmt.Sprintf("domain error: %s (%s=%v)", e.Kind, e.Field, e.Value)
}

// Is reports whether target is a DomainError of the same Kind.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func domainErr(kind Kind, field string, value float64) error {
	return &DomainError{Kind: kind, Field: field, Value: value}
}

// checkFinite returns a NonFiniteInput error for the first NaN or infinite value.
func checkFinite(fields []string, values ...float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domainErr(NonFiniteInput, fields[i], v)
		}
	}
	return nil
}

// validateInputs checks the scalar inputs shared by d1, d2 and the pricer.
func validateInputs(S, K, T, r, sigma float64) error {
	if err := checkFinite([]string{"spot", "strike", "time_to_maturity", "rate", "volatility"}, S, K, T, r, sigma); err != nil {
		return err
	}
	if K <= 0 {
		return domainErr(InvalidStrike, "strike", K)
	}
	if S <= 0 {
		return domainErr(InvalidSpotPrice, "spot", S)
	}
	if sigma <= 0 {
		return domainErr(InvalidVolatility, "volatility", sigma)
	}
	if T <= 0 {
		return domainErr(NonPositiveMaturity, "time_to_maturity", T)
	}
	return nil
}
