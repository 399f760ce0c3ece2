package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/pricing"
	"github.com/contactkeval/option-pricer/internal/report"
)

const (
	exitOK          = 0
	exitDomainError = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv, time.Now)
	stop()
	os.Exit(code)
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string, clock func() time.Time) int {
	fs := flag.NewFlagSet("option-pricer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "path to YAML config")
	envPath := fs.String("env", ".env", "path to dotenv file (ignored when missing)")
	batchPath := fs.String("batch", "", "path to YAML batch of contracts")
	outDir := fs.String("out", "", "also write quotes.json and quotes.csv into this directory")
	printConfig := fs.Bool("print-config", false, "print the effective config and exit")

	strike := fs.String("strike", "", "strike price")
	maturity := fs.String("maturity", "", "maturity, RFC 3339 or YYYY-MM-DD")
	now := fs.String("now", "", `valuation time, RFC 3339, YYYY-MM-DD or "now"`)
	spot := fs.String("spot", "", "spot price of the underlying")
	rate := fs.String("rate", "", "risk-free rate, continuously compounded")
	vol := fs.String("vol", "", "annualised volatility")
	tz := fs.String("tz", "", "IANA zone for zone-less dates (default Local)")
	format := fs.String("format", "", "output format: text, json or csv")
	precision := fs.Int("precision", -1, "decimal places in output")
	workers := fs.Int("workers", -1, "batch concurrency (0 = GOMAXPROCS)")
	verbosity := fs.Int("v", -1, "log verbosity 0=error 1=info 2=debug 3=trace")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	explicitEnv := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "env" {
			explicitEnv = true
		}
	})
	if err := config.LoadEnvFile(*envPath, !explicitEnv); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	// Flags win over file and environment, but only when given.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		switch f.Name {
		case "strike":
			cfg.Option.Strike, flagErr = parseFloat("strike", *strike)
		case "maturity":
			cfg.Option.Maturity = *maturity
		case "now":
			cfg.ValuationTime = *now
		case "spot":
			cfg.Market.Spot, flagErr = parseFloat("spot", *spot)
		case "rate":
			cfg.Market.Rate, flagErr = parseFloat("rate", *rate)
		case "vol":
			cfg.Market.Volatility, flagErr = parseFloat("vol", *vol)
		case "tz":
			cfg.Timezone = *tz
		case "format":
			cfg.Output.Format = *format
		case "precision":
			if *precision < 0 || *precision > math.MaxInt32 {
				flagErr = fmt.Errorf("-precision: %d out of range", *precision)
				return
			}
			cfg.Output.Precision = int32(*precision)
		case "workers":
			cfg.Workers = *workers
		case "v":
			cfg.Logging.Verbosity = *verbosity
		}
	})
	if flagErr != nil {
		fmt.Fprintf(stderr, "error: %v\n", flagErr)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger.SetOutput(stderr)
	logger.SetVerbosity(cfg.Logging.Verbosity)

	if *printConfig {
		b, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
		stdout.Write(b)
		return exitOK
	}

	var (
		results []pricing.BatchResult
		code    int
	)
	if *batchPath != "" {
		results, code = priceBatch(ctx, cfg, *batchPath, clock, stderr)
	} else {
		results, code = priceSingle(cfg, clock, stderr)
	}
	if results == nil {
		return code
	}

	if err := report.Write(stdout, cfg.Output.Format, results, cfg.Output.Precision); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if *outDir != "" {
		if err := report.WriteFiles(results, cfg.Output.Precision, *outDir); err != nil {
			logger.Errorf("could not write reports to %s: %v", *outDir, err)
			return exitUsage
		}
		logger.Infof("wrote %d quotes to %s", len(results), *outDir)
	}

	return resultsCode(results)
}

// resultsCode maps per-contract errors to an exit code. An interrupted batch
// exits 130 whatever else failed; otherwise any non-domain error outranks a
// domain error.
func resultsCode(results []pricing.BatchResult) int {
	code := exitOK
	for _, r := range results {
		var de *pricing.DomainError
		switch {
		case r.Err == nil:
		case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
			return exitInterrupted
		case errors.As(r.Err, &de):
			code = max(code, exitDomainError)
		default:
			code = exitUsage
		}
	}
	return code
}

func priceSingle(cfg config.Config, clock func() time.Time, stderr io.Writer) ([]pricing.BatchResult, int) {
	call, market, now, err := cfg.Resolve(clock)
	if err != nil {
		return nil, reportErr(stderr, err)
	}

	logger.Debugf("strike=%g maturity=%s now=%s spot=%g rate=%g vol=%g",
		call.Strike(), call.Maturity().Format(time.RFC3339), now.Format(time.RFC3339),
		market.Spot, market.Rate, market.Volatility)

	q, err := call.Price(market, now)
	if err != nil {
		return nil, reportErr(stderr, err)
	}

	logger.Debugf("T=%g d1=%g d2=%g N(d1)=%g N(d2)=%g", q.TimeToMaturity, q.D1, q.D2, q.ND1, q.ND2)
	return []pricing.BatchResult{{ID: "call", Quote: q}}, exitOK
}

func priceBatch(ctx context.Context, cfg config.Config, path string, clock func() time.Time, stderr io.Writer) ([]pricing.BatchResult, int) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, reportErr(stderr, err)
	}

	contracts, invalid, err := config.LoadBatch(path, loc)
	if err != nil {
		return nil, reportErr(stderr, err)
	}

	now, err := cfg.Valuation(clock)
	if err != nil {
		return nil, reportErr(stderr, err)
	}

	start := time.Now()
	logger.Infof("pricing %d contracts (%d rejected at load) as of %s", len(contracts), len(invalid), now.Format(time.RFC3339))

	results := config.MergeBatch(pricing.PriceBatch(ctx, contracts, now, cfg.Workers), invalid)
	for _, r := range results {
		if r.Err != nil {
			logger.WithField("contract", r.ID).Errorf("%v", r.Err)
		}
	}

	logger.Infof("finished in %v", time.Since(start))
	return results, exitOK
}

// reportErr prints err and maps it to an exit code: domain errors name the
// failed precondition and exit 1, anything else is a usage problem.
func reportErr(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "error: %v\n", err)

	var de *pricing.DomainError
	if errors.As(err, &de) {
		return exitDomainError
	}
	return exitUsage
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("-%s: %w", name, err)
	}
	return v, nil
}
