package analyzer

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/linspector/linspector/internal/logging"
)

// Config is the analyzer's immutable configuration, threaded through the
// constructor rather than held as process-wide state (spec.md §9 "Global
// configuration" design note). Defaults match spec.md §6's table.
type Config struct {
	BitRateHz          float64
	BitRateTolerance   float64
	GatewayTimeWindow  float64
	ScheduleTolerance  float64
	MaxJitter          float64
	BusLoadWindow      float64
	CanBitRateHz       float64
	CanFDBitRateHz     float64

	logger *slog.Logger
}

// Option configures an Analyzer at construction time.
type Option func(*Config)

// WithBitRate overrides the nominal LIN bit rate (default 19200 Hz).
func WithBitRate(hz float64) Option { return func(c *Config) { c.BitRateHz = hz } }

// WithBitRateTolerance overrides the fractional LIN bit-rate tolerance
// (default 0.005).
func WithBitRateTolerance(frac float64) Option { return func(c *Config) { c.BitRateTolerance = frac } }

// WithGatewayTimeWindow overrides the default gateway correlation window
// used by a MapRule that omits its own max_latency_s (default 0.010s).
func WithGatewayTimeWindow(seconds float64) Option {
	return func(c *Config) { c.GatewayTimeWindow = seconds }
}

// WithScheduleTolerance overrides the allowed schedule drift (default
// 0.0005s).
func WithScheduleTolerance(seconds float64) Option {
	return func(c *Config) { c.ScheduleTolerance = seconds }
}

// WithMaxJitter overrides the allowed inter-arrival jitter (default 0.001s).
func WithMaxJitter(seconds float64) Option { return func(c *Config) { c.MaxJitter = seconds } }

// WithBusLoadWindow overrides the CAN bus-load estimation window (default
// 0.100s).
func WithBusLoadWindow(seconds float64) Option { return func(c *Config) { c.BusLoadWindow = seconds } }

// WithCanBitRate overrides the nominal CAN arbitration-phase bit rate used
// for bus-load accounting (default 500000 Hz).
func WithCanBitRate(hz float64) Option { return func(c *Config) { c.CanBitRateHz = hz } }

// WithCanFDBitRate overrides the CAN FD data-phase bit rate used when BRS is
// set (default: same as CanBitRateHz).
func WithCanFDBitRate(hz float64) Option { return func(c *Config) { c.CanFDBitRateHz = hz } }

// WithLogger overrides the analyzer's logger (default: the package-global
// logger from internal/logging).
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

func defaultConfig() Config {
	return Config{
		BitRateHz:         19200,
		BitRateTolerance:  0.005,
		GatewayTimeWindow: 0.010,
		ScheduleTolerance: 0.0005,
		MaxJitter:         0.001,
		BusLoadWindow:     0.100,
		CanBitRateHz:      500_000,
		logger:            logging.L(),
	}
}

// validate checks Config for non-finite or negative tolerances (spec.md §7
// ConfigError).
func (c Config) validate() error {
	fields := map[string]float64{
		"bit_rate":            c.BitRateHz,
		"bit_rate_tolerance":  c.BitRateTolerance,
		"gateway_time_window": c.GatewayTimeWindow,
		"schedule_tolerance":  c.ScheduleTolerance,
		"max_jitter":          c.MaxJitter,
		"bus_load_window":     c.BusLoadWindow,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a finite, non-negative number, got %v", ErrConfigError, name, v)
		}
	}
	return nil
}
