package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// appConfig holds the batch CLI's resolved flags, a direct descendant of
// cmd/can-server's flag-plus-env-override config shape.
type appConfig struct {
	scenarioPath      string
	logFormat         string
	logLevel          string
	bitRate           float64
	bitRateTolerance  float64
	gatewayTimeWindow float64
	scheduleTolerance float64
	maxJitter         float64
	busLoadWindow     float64
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	scenario := flag.String("scenario", "", "Path to the JSON scenario document (required, or '-' for stdin)")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	bitRate := flag.Float64("bit-rate", 19200, "Nominal LIN bit rate (Hz)")
	bitRateTolerance := flag.Float64("bit-rate-tolerance", 0.005, "Fractional tolerance on measured bit rate")
	gatewayTimeWindow := flag.Float64("gateway-time-window", 0.010, "Default gateway correlation window (s)")
	scheduleTolerance := flag.Float64("schedule-tolerance", 0.0005, "Allowed schedule drift (s)")
	maxJitter := flag.Float64("max-jitter", 0.001, "Allowed inter-arrival jitter (s)")
	busLoadWindow := flag.Float64("bus-load-window", 0.100, "Bus-load estimation window (s)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.scenarioPath = *scenario
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.bitRate = *bitRate
	cfg.bitRateTolerance = *bitRateTolerance
	cfg.gatewayTimeWindow = *gatewayTimeWindow
	cfg.scheduleTolerance = *scheduleTolerance
	cfg.maxJitter = *maxJitter
	cfg.busLoadWindow = *busLoadWindow

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Fprintf(os.Stderr, "environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.scenarioPath == "" {
		return errors.New("scenario path required (-scenario)")
	}
	if c.bitRate <= 0 {
		return fmt.Errorf("bit-rate must be > 0 (got %v)", c.bitRate)
	}
	return nil
}

// applyEnvOverrides maps LINSPECTOR_* environment variables to config fields
// unless a corresponding flag was explicitly set, mirroring
// cmd/can-server's applyEnvOverrides precedence rule.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	setFloat := func(flagName, env string, dst *float64) {
		if _, ok := set[flagName]; ok {
			return
		}
		if v, ok := get(env); ok && v != "" {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = n
			} else if firstErr == nil {
				firstErr = fmt.Errorf("invalid %s: %w", env, err)
			}
		}
	}
	if _, ok := set["scenario"]; !ok {
		if v, ok := get("LINSPECTOR_SCENARIO"); ok && v != "" {
			c.scenarioPath = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("LINSPECTOR_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("LINSPECTOR_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	setFloat("bit-rate", "LINSPECTOR_BIT_RATE", &c.bitRate)
	setFloat("bit-rate-tolerance", "LINSPECTOR_BIT_RATE_TOLERANCE", &c.bitRateTolerance)
	setFloat("gateway-time-window", "LINSPECTOR_GATEWAY_TIME_WINDOW", &c.gatewayTimeWindow)
	setFloat("schedule-tolerance", "LINSPECTOR_SCHEDULE_TOLERANCE", &c.scheduleTolerance)
	setFloat("max-jitter", "LINSPECTOR_MAX_JITTER", &c.maxJitter)
	setFloat("bus-load-window", "LINSPECTOR_BUS_LOAD_WINDOW", &c.busLoadWindow)
	return firstErr
}
