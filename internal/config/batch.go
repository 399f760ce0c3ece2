package config

import (
	"fmt"
	"os"
	"time"

	"github.com/contactkeval/option-pricer/internal/pricing"
)

// BatchFile is the YAML layout of a batch pricing request. Market values set
// on a contract override the shared ones.
type BatchFile struct {
	Market    pricing.Market  `yaml:"market"`
	Contracts []BatchContract `yaml:"contracts"`
}

// BatchContract is one contract in a batch file.
type BatchContract struct {
	ID         string   `yaml:"id"`
	Strike     float64  `yaml:"strike"`
	Maturity   string   `yaml:"maturity"`
	Spot       *float64 `yaml:"spot"`
	Rate       *float64 `yaml:"rate"`
	Volatility *float64 `yaml:"volatility"`
}

// LoadBatch reads a batch file. Zone-less maturities are read in loc.
//
// A contract whose terms fail validation does not fail the load: it is
// returned in invalid with its error, keyed by its position in the file, so
// the caller can report it in place alongside the priced ones.
func LoadBatch(path string, loc *time.Location) (contracts []pricing.Contract, invalid map[int]pricing.BatchResult, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading batch: %w", err)
	}
	defer f.Close()

	var bf BatchFile
	if err := decodeStrict(f, &bf); err != nil {
		return nil, nil, fmt.Errorf("invalid batch %s: %w", path, err)
	}
	if len(bf.Contracts) == 0 {
		return nil, nil, fmt.Errorf("batch %s has no contracts", path)
	}

	seen := make(map[string]bool, len(bf.Contracts))
	for i, bc := range bf.Contracts {
		if bc.ID == "" {
			bc.ID = fmt.Sprintf("#%d", i+1)
		}
		if seen[bc.ID] {
			return nil, nil, fmt.Errorf("batch %s: duplicate contract id %q", path, bc.ID)
		}
		seen[bc.ID] = true

		maturity, err := ParseTime(bc.Maturity, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("batch %s: contract %s maturity: %w", path, bc.ID, err)
		}

		call, err := pricing.NewCallOption(bc.Strike, maturity)
		if err != nil {
			if invalid == nil {
				invalid = make(map[int]pricing.BatchResult)
			}
			invalid[i] = pricing.BatchResult{ID: bc.ID, Err: err}
			continue
		}

		contracts = append(contracts, pricing.Contract{
			ID:     bc.ID,
			Option: call,
			Market: bc.market(bf.Market),
		})
	}
	return contracts, invalid, nil
}

func (bc BatchContract) market(shared pricing.Market) pricing.Market {
	m := shared
	if bc.Spot != nil {
		m.Spot = *bc.Spot
	}
	if bc.Rate != nil {
		m.Rate = *bc.Rate
	}
	if bc.Volatility != nil {
		m.Volatility = *bc.Volatility
	}
	return m
}

// MergeBatch interleaves priced results with the contracts rejected at load,
// restoring batch-file order. priced must be in the order LoadBatch returned
// the contracts.
func MergeBatch(priced []pricing.BatchResult, invalid map[int]pricing.BatchResult) []pricing.BatchResult {
	out := make([]pricing.BatchResult, 0, len(priced)+len(invalid))
	next := 0
	for i := 0; i < len(priced)+len(invalid); i++ {
		if r, ok := invalid[i]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, priced[next])
		next++
	}
	return out
}
