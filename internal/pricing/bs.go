// Package pricing evaluates the Black-Scholes closed form for European options.
//
// The chain is strictly linear:
//
//	maturity, valuation time → time to maturity → d1 → d2 → Φ(d1), Φ(d2) → price
//
// Every step validates its own inputs and returns a *DomainError instead of
// letting NaN or Inf flow into the next step.
package pricing

import (
	"math"
)

// D1 computes the first auxiliary term of the Black-Scholes formula.
//
//	d1 = [ln(S/K) + T·(r + σ²/2)] / (σ·√T)
//
// The whole numerator is scaled by σ√T, drift term included.
//
// Parameters:
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to maturity in years
//   - r: risk-free rate (annual, continuously compounded)
//   - sigma: volatility (annual, as a decimal)
func D1(S, K, T, r, sigma float64) (float64, error) {
	if err := validateInputs(S, K, T, r, sigma); err != nil {
		return 0, err
	}
	v := d1(S, K, T, r, sigma)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domainErr(NonFiniteInput, "d1", v)
	}
	return v, nil
}

// D2 computes d1 - σ√T.
func D2(d1, T, sigma float64) (float64, error) {
	if err := checkFinite([]string{"d1", "time_to_maturity", "volatility"}, d1, T, sigma); err != nil {
		return 0, err
	}
	if sigma <= 0 {
		return 0, domainErr(InvalidVolatility, "volatility", sigma)
	}
	if T <= 0 {
		return 0, domainErr(NonPositiveMaturity, "time_to_maturity", T)
	}
	v := d1 - sigma*math.Sqrt(T)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domainErr(NonFiniteInput, "d2", v)
	}
	return v, nil
}

// BlackScholesCall calculates the price of a European call option.
//
//	C = S·Φ(d1) − K·e^(−rT)·Φ(d2)
//
// Parameters are the same as D1. Tiny negative results caused by floating
// point cancellation deep out of the money are clamped to zero.
func BlackScholesCall(S, K, T, r, sigma float64) (float64, error) {
	terms, err := evaluate(S, K, T, r, sigma)
	if err != nil {
		return 0, err
	}
	return terms.call, nil
}

// BlackScholesPut calculates the price of the matching European put.
// It exists as a put-call parity cross-check for the call price.
func BlackScholesPut(S, K, T, r, sigma float64) (float64, error) {
	terms, err := evaluate(S, K, T, r, sigma)
	if err != nil {
		return 0, err
	}
	nMinusD1, err := NormCDF(-terms.d1)
	if err != nil {
		return 0, err
	}
	nMinusD2, err := NormCDF(-terms.d2)
	if err != nil {
		return 0, err
	}
	put := K*terms.discount*nMinusD2 - S*nMinusD1
	return clampPrice(put)
}

// bsTerms holds the intermediate values of one formula evaluation.
type bsTerms struct {
	d1, d2   float64
	nd1, nd2 float64
	discount float64
	call     float64
}

func evaluate(S, K, T, r, sigma float64) (bsTerms, error) {
	var t bsTerms

	var err error
	if t.d1, err = D1(S, K, T, r, sigma); err != nil {
		return t, err
	}
	if t.d2, err = D2(t.d1, T, sigma); err != nil {
		return t, err
	}
	if t.nd1, err = NormCDF(t.d1); err != nil {
		return t, err
	}
	if t.nd2, err = NormCDF(t.d2); err != nil {
		return t, err
	}

	t.discount = math.Exp(-r * T)
	if t.call, err = clampPrice(S*t.nd1 - K*t.discount*t.nd2); err != nil {
		return t, err
	}
	return t, nil
}

func d1(S, K, T, r, sigma float64) float64 {
	return (math.Log(S/K) + T*(r+0.5*sigma*sigma)) / (sigma * math.Sqrt(T))
}

// clampPrice floors a price at zero and refuses to hand back NaN or Inf.
func clampPrice(p float64) (float64, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, domainErr(NonFiniteInput, "price", p)
	}
	return math.Max(0, p), nil
}
