package pricing

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Contract is one unit of batch work.
type Contract struct {
	ID     string
	Option CallOption
	Market Market
}

// BatchResult pairs a contract ID with its quote or the error that stopped it.
type BatchResult struct {
	ID    string
	Quote Quote
	Err   error
}

// PriceBatch prices every contract at now using at most workers goroutines
// (GOMAXPROCS when workers <= 0). Results are returned in input order.
//
// Units are independent: a domain error on one contract is recorded in its
// result and does not stop the others. Contracts not yet started when ctx is
// cancelled get ctx.Err() as their error.
func PriceBatch(ctx context.Context, contracts []Contract, now time.Time, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(contracts))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, c := range contracts {
		i, c := i, c // per-iteration copies (go 1.21 loop semantics)
		results[i].ID = c.ID
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Quote, results[i].Err = c.Option.Price(c.Market, now)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
