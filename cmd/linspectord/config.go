package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// appConfig is cmd/linspectord's resolved configuration, the daemon
// counterpart of cmd/can-server's appConfig: flag-parsed with
// LINSPECTORD_* environment-variable overrides applied only when the flag
// was not explicitly set.
type appConfig struct {
	scenarioPath      string
	tracePath         string
	pollInterval      time.Duration
	listenAddr        string
	logFormat         string
	logLevel          string
	metricsAddr       string
	hubBuffer         int
	hubPolicy         string
	logMetricsEvery   time.Duration
	maxClients        int
	handshakeTO       time.Duration
	bitRate           float64
	bitRateTolerance  float64
	gatewayTimeWindow float64
	scheduleTolerance float64
	maxJitter         float64
	busLoadWindow     float64
	mdnsEnable bool
	mdnsName   string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	scenario := flag.String("scenario", "", "Path to the JSON scenario document providing LDF/DBC/GatewayMap")
	trace := flag.String("trace", "", "Path to a growing trace file of JSON log-entry lines to watch (appends re-trigger analysis)")
	poll := flag.Duration("poll-interval", 500*time.Millisecond, "How often to check the watched trace file for growth")
	listen := flag.String("listen", ":20100", "TCP listen address for the finding-stream dashboard protocol")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	hubBuf := flag.Int("hub-buffer", 512, "Per-client hub buffer (findings)")
	hubPolicy := flag.String("hub-policy", "drop", "Backpressure policy: drop|kick")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters")
	maxClients := flag.Int("max-clients", 0, "Maximum simultaneous TCP clients (0 = unlimited)")
	handshakeTO := flag.Duration("handshake-timeout", 3*time.Second, "Client handshake timeout")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS advertisement of the finding-stream endpoint")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default linspectord-<hostname>)")
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
	cfg.tracePath = *trace
	cfg.pollInterval = *poll
	cfg.listenAddr = *listen
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.hubBuffer = *hubBuf
	cfg.hubPolicy = *hubPolicy
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.maxClients = *maxClients
	cfg.handshakeTO = *handshakeTO
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName
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
	switch c.hubPolicy {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid hub-policy: %s", c.hubPolicy)
	}
	if c.scenarioPath == "" {
		return errors.New("scenario path required (-scenario)")
	}
	if c.tracePath == "" {
		return errors.New("trace path required (-trace)")
	}
	if c.hubBuffer <= 0 {
		return fmt.Errorf("hub-buffer must be > 0 (got %d)", c.hubBuffer)
	}
	if c.pollInterval <= 0 {
		return errors.New("poll-interval must be > 0")
	}
	if c.handshakeTO <= 0 {
		return errors.New("handshake-timeout must be > 0")
	}
	if c.maxClients < 0 {
		return errors.New("max-clients must be >= 0")
	}
	return nil
}

// applyEnvOverrides maps LINSPECTORD_* environment variables to config
// fields unless a corresponding flag was explicitly set (flag wins).
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
		if v, ok := get("LINSPECTORD_SCENARIO"); ok && v != "" {
			c.scenarioPath = v
		}
	}
	if _, ok := set["trace"]; !ok {
		if v, ok := get("LINSPECTORD_TRACE"); ok && v != "" {
			c.tracePath = v
		}
	}
	if _, ok := set["poll-interval"]; !ok {
		if v, ok := get("LINSPECTORD_POLL_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.pollInterval = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid LINSPECTORD_POLL_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["listen"]; !ok {
		if v, ok := get("LINSPECTORD_LISTEN"); ok && v != "" {
			c.listenAddr = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("LINSPECTORD_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("LINSPECTORD_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("LINSPECTORD_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["hub-buffer"]; !ok {
		if v, ok := get("LINSPECTORD_HUB_BUFFER"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.hubBuffer = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid LINSPECTORD_HUB_BUFFER: %w", err)
			}
		}
	}
	if _, ok := set["hub-policy"]; !ok {
		if v, ok := get("LINSPECTORD_HUB_POLICY"); ok && v != "" {
			c.hubPolicy = v
		}
	}
	if _, ok := set["max-clients"]; !ok {
		if v, ok := get("LINSPECTORD_MAX_CLIENTS"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				c.maxClients = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid LINSPECTORD_MAX_CLIENTS: %w", err)
			}
		}
	}
	if _, ok := set["handshake-timeout"]; !ok {
		if v, ok := get("LINSPECTORD_HANDSHAKE_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.handshakeTO = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid LINSPECTORD_HANDSHAKE_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("LINSPECTORD_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("LINSPECTORD_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	setFloat("bit-rate", "LINSPECTORD_BIT_RATE", &c.bitRate)
	setFloat("bit-rate-tolerance", "LINSPECTORD_BIT_RATE_TOLERANCE", &c.bitRateTolerance)
	setFloat("gateway-time-window", "LINSPECTORD_GATEWAY_TIME_WINDOW", &c.gatewayTimeWindow)
	setFloat("schedule-tolerance", "LINSPECTORD_SCHEDULE_TOLERANCE", &c.scheduleTolerance)
	setFloat("max-jitter", "LINSPECTORD_MAX_JITTER", &c.maxJitter)
	setFloat("bus-load-window", "LINSPECTORD_BUS_LOAD_WINDOW", &c.busLoadWindow)
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("LINSPECTORD_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid LINSPECTORD_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	return firstErr
}
