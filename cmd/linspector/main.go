// Command linspector is the batch-mode CLI: it reads a JSON scenario
// document (embedded LDF/DBC/GatewayMap/log entries), runs the analyzer
// once, and writes the resulting report as JSON to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/linspector/linspector/internal/analyzer"
	"github.com/linspector/linspector/internal/logging"
	"github.com/linspector/linspector/internal/logstream"
	"github.com/linspector/linspector/internal/scenario"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes per spec.md §6: 0 = no findings, 1 = findings present, 2 = input error.
const (
	exitOK           = 0
	exitFindings     = 1
	exitInputError   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("linspector %s (commit %s, built %s)\n", version, commit, date)
		return exitOK
	}
	if cfg == nil {
		return exitInputError
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	sc, err := loadScenario(cfg.scenarioPath)
	if err != nil {
		l.Error("scenario_load_error", "error", err)
		return exitInputError
	}

	ldf := sc.BuildLdf()
	dbc := sc.BuildDbc()
	gw := sc.BuildGateway()
	entries, err := sc.BuildLog()
	if err != nil {
		l.Error("scenario_log_error", "error", err)
		return exitInputError
	}

	a, err := analyzer.New(&ldf, &dbc, gw,
		analyzer.WithBitRate(cfg.bitRate),
		analyzer.WithBitRateTolerance(cfg.bitRateTolerance),
		analyzer.WithGatewayTimeWindow(cfg.gatewayTimeWindow),
		analyzer.WithScheduleTolerance(cfg.scheduleTolerance),
		analyzer.WithMaxJitter(cfg.maxJitter),
		analyzer.WithBusLoadWindow(cfg.busLoadWindow),
		analyzer.WithLogger(l),
	)
	if err != nil {
		l.Error("analyzer_init_error", "error", err)
		return exitInputError
	}

	src := logstream.NewSliceSource(entries)
	report, err := a.Run(src)
	if err != nil {
		l.Error("analyzer_run_error", "error", err)
		return exitInputError
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		l.Error("report_encode_error", "error", err)
		return exitInputError
	}

	if len(report.AllFindings()) > 0 {
		return exitFindings
	}
	return exitOK
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return nil, fmt.Errorf("scenario path required")
	}
	if path == "-" {
		return scenario.Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return scenario.Load(f)
}

func setupLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	l := logging.New(format, lvl, os.Stderr).With("app", "linspector")
	logging.Set(l)
	return l
}
