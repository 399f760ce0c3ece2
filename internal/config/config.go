// Package config loads pricing inputs from a YAML file, an optional dotenv
// file and OPTION_PRICER_* environment variables, and resolves them into
// pricing values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/option-pricer/internal/pricing"
)

// EnvPrefix prefixes every environment variable the pricer reads.
const EnvPrefix = "OPTION_PRICER_"

// Now is the keyword accepted in place of a valuation time to mean the
// current clock.
const Now = "now"

// Config represents the pricer configuration.
type Config struct {
	Option        OptionConfig   `yaml:"option"`
	Market        pricing.Market `yaml:"market"`
	ValuationTime string         `yaml:"valuation_time"`
	Timezone      string         `yaml:"timezone"`
	Workers       int            `yaml:"workers"`
	Output        OutputConfig   `yaml:"output"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// OptionConfig represents the contract terms.
type OptionConfig struct {
	Strike   float64 `yaml:"strike"`
	Maturity string  `yaml:"maturity"`
}

// OutputConfig represents how results are rendered.
type OutputConfig struct {
	Format    string `yaml:"format"`    // text, json or csv
	Precision int32  `yaml:"precision"` // decimal places
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Verbosity int `yaml:"verbosity"`
}

// Default returns the built-in example: a 100 strike call expiring on
// 2022-01-01, valued on 2021-11-01.
func Default() Config {
	return Config{
		Option: OptionConfig{
			Strike:   100,
			Maturity: "2022-01-01",
		},
		Market: pricing.Market{
			Spot:       100,
			Rate:       0.05,
			Volatility: 0.2,
		},
		ValuationTime: "2021-11-01",
		Timezone:      "Local",
		Output: OutputConfig{
			Format:    "text",
			Precision: 4,
		},
		Logging: LoggingConfig{
			Verbosity: 1,
		},
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()

	if err := decodeStrict(f, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error when optional is true.
func LoadEnvFile(path string, optional bool) error {
	if _, err := os.Stat(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from OPTION_PRICER_* variables looked up with
// getenv. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"STRIKE", &c.Option.Strike},
		{"SPOT", &c.Market.Spot},
		{"RATE", &c.Market.Rate},
		{"VOLATILITY", &c.Market.Volatility},
	}
	for _, f := range floats {
		v := strings.TrimSpace(getenv(EnvPrefix + f.key))
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, f.key, err)
		}
		*f.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"MATURITY", &c.Option.Maturity},
		{"VALUATION_TIME", &c.ValuationTime},
		{"TIMEZONE", &c.Timezone},
		{"FORMAT", &c.Output.Format},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(getenv(EnvPrefix + s.key)); v != "" {
			*s.dst = v
		}
	}

	if v := strings.TrimSpace(getenv(EnvPrefix + "VERBOSITY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sVERBOSITY: %w", EnvPrefix, err)
		}
		c.Logging.Verbosity = n
	}
	return nil
}

// Validate checks settings that are not pricing inputs. Pricing inputs are
// validated by the pricing package so that they surface as domain errors.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 16 {
		return fmt.Errorf("precision must be within [0, 16], got %d", c.Output.Precision)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone used to read date-only and zone-less times.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Resolve turns the configuration into a call option, its market inputs and
// the valuation time. clock supplies the current time for the "now" keyword.
func (c Config) Resolve(clock func() time.Time) (pricing.CallOption, pricing.Market, time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return pricing.CallOption{}, pricing.Market{}, time.Time{}, err
	}

	maturity, err := ParseTime(c.Option.Maturity, loc)
	if err != nil {
		return pricing.CallOption{}, pricing.Market{}, time.Time{}, fmt.Errorf("maturity: %w", err)
	}

	now, err := c.Valuation(clock)
	if err != nil {
		return pricing.CallOption{}, pricing.Market{}, time.Time{}, err
	}

	call, err := pricing.NewCallOption(c.Option.Strike, maturity)
	if err != nil {
		return pricing.CallOption{}, pricing.Market{}, time.Time{}, err
	}
	if err := c.Market.Validate(); err != nil {
		return pricing.CallOption{}, pricing.Market{}, time.Time{}, err
	}
	return call, c.Market, now, nil
}

// Valuation returns the valuation time. An empty value or the "now" keyword
// selects clock(), expressed in the configured zone.
func (c Config) Valuation(clock func() time.Time) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	v := strings.TrimSpace(c.ValuationTime)
	if v == "" || strings.EqualFold(v, Now) {
		return clock().In(loc), nil
	}
	t, err := ParseTime(v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("valuation time: %w", err)
	}
	return t, nil
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, which carry their own offset, or
// zone-less date and date-time values, which are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty time")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q: want RFC 3339 or YYYY-MM-DD[THH:MM[:SS]]", s)
}

// Marshal renders the configuration as YAML, used by the -print-config flag.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
