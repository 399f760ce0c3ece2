// Package report renders priced quotes as text, JSON or CSV.
//
// Numbers are rounded half away from zero to a fixed number of decimal
// places through shopspring/decimal, so the same quote always renders to the
// same bytes. Non-finite numbers are refused rather than printed.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-pricer/internal/pricing"
)

const timeLayout = time.RFC3339

// Record is the rendered form of one batch result.
type Record struct {
	ID             string `json:"id"`
	Strike         string `json:"strike,omitempty"`
	Spot           string `json:"spot,omitempty"`
	Rate           string `json:"rate,omitempty"`
	Volatility     string `json:"volatility,omitempty"`
	ValuationTime  string `json:"valuation_time,omitempty"`
	Maturity       string `json:"maturity,omitempty"`
	DaysToMaturity int    `json:"days_to_maturity,omitempty"`
	TimeToMaturity string `json:"time_to_maturity,omitempty"`
	D1             string `json:"d1,omitempty"`
	D2             string `json:"d2,omitempty"`
	ND1            string `json:"nd1,omitempty"`
	ND2            string `json:"nd2,omitempty"`
	DiscountFactor string `json:"discount_factor,omitempty"`
	Price          string `json:"price,omitempty"`
	Error          string `json:"error,omitempty"`
}

// fixed renders v with exactly places decimals.
func fixed(v float64, places int32) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("refusing to render non-finite value %v", v)
	}
	return decimal.NewFromFloat(v).StringFixed(places), nil
}

// NewRecord converts a batch result into its rendered form.
func NewRecord(r pricing.BatchResult, places int32) (Record, error) {
	rec := Record{ID: r.ID}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		return rec, nil
	}

	q := r.Quote
	fields := []struct {
		dst *string
		v   float64
	}{
		{&rec.Strike, q.Strike},
		{&rec.Spot, q.Spot},
		{&rec.Rate, q.Rate},
		{&rec.Volatility, q.Volatility},
		{&rec.TimeToMaturity, q.TimeToMaturity},
		{&rec.D1, q.D1},
		{&rec.D2, q.D2},
		{&rec.ND1, q.ND1},
		{&rec.ND2, q.ND2},
		{&rec.DiscountFactor, q.DiscountFactor},
		{&rec.Price, q.Price},
	}
	for _, f := range fields {
		s, err := fixed(f.v, places)
		if err != nil {
			return Record{}, fmt.Errorf("contract %s: %w", r.ID, err)
		}
		*f.dst = s
	}

	rec.ValuationTime = q.ValuationTime.Format(timeLayout)
	rec.Maturity = q.Maturity.Format(timeLayout)
	rec.DaysToMaturity = q.DaysToMaturity
	return rec, nil
}

// NewRecords converts every result, stopping at the first that cannot render.
func NewRecords(results []pricing.BatchResult, places int32) ([]Record, error) {
	out := make([]Record, 0, len(results))
	for _, r := range results {
		rec, err := NewRecord(r, places)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Write renders results to w in the given format: text, json or csv.
func Write(w io.Writer, format string, results []pricing.BatchResult, places int32) error {
	records, err := NewRecords(results, places)
	if err != nil {
		return err
	}
	switch format {
	case "text":
		return WriteText(w, records)
	case "json":
		return WriteJSON(w, records)
	case "csv":
		return WriteCSV(w, records)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText prints one "Time to maturity: ..." block per record.
func WriteText(w io.Writer, records []Record) error {
	for i, rec := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if len(records) > 1 {
			if _, err := fmt.Fprintf(w, "Contract: %s\n", rec.ID); err != nil {
				return err
			}
		}
		if rec.Error != "" {
			if _, err := fmt.Fprintf(w, "Error: %s\n", rec.Error); err != nil {
				return err
			}
			continue
		}
		_, err := fmt.Fprintf(w,
			"Time to maturity: %s (%d days)\nd1: %s\nd2: %s\nPrice: %s\n",
			rec.TimeToMaturity, rec.DaysToMaturity, rec.D1, rec.D2, rec.Price)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

var csvHeaders = []string{
	"id", "valuation_time", "maturity", "days_to_maturity", "time_to_maturity",
	"strike", "spot", "rate", "volatility",
	"d1", "d2", "nd1", "nd2", "discount_factor", "price", "error",
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return err
	}
	for _, r := range records {
		days := ""
		if r.Error == "" {
			days = strconv.Itoa(r.DaysToMaturity)
		}
		row := []string{
			r.ID, r.ValuationTime, r.Maturity, days, r.TimeToMaturity,
			r.Strike, r.Spot, r.Rate, r.Volatility,
			r.D1, r.D2, r.ND1, r.ND2, r.DiscountFactor, r.Price, r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes quotes.json and quotes.csv into outdir, creating it if
// needed.
func WriteFiles(results []pricing.BatchResult, places int32, outdir string) error {
	records, err := NewRecords(results, places)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(outdir, "quotes.json"), records, WriteJSON); err != nil {
		return err
	}
	return writeFile(filepath.Join(outdir, "quotes.csv"), records, WriteCSV)
}

// createFile opens report files for writing; tests replace it.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func writeFile(path string, records []Record, write func(io.Writer, []Record) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return write(f, records)
}
