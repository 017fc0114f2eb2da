package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/linspector/linspector/internal/analyzer"
	"github.com/linspector/linspector/internal/hub"
	"github.com/linspector/linspector/internal/logstream"
	"github.com/linspector/linspector/internal/metrics"
	"github.com/linspector/linspector/internal/model"
	"github.com/linspector/linspector/internal/scenario"
)

// reportStore holds the most recently computed AnalysisReport behind a
// read-write lock. The daemon's HTTP listener serves only /metrics and
// /ready; no handler reads this store.
type reportStore struct {
	mu     sync.RWMutex
	report *model.AnalysisReport
}

func (s *reportStore) set(r *model.AnalysisReport) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

func (s *reportStore) get() *model.AnalysisReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// readEntries parses the trace file as one JSON scenario.EntryJSON object
// per line, skipping blank lines, and converts them to model.LogEntry
// values via the same conversion the batch CLI's scenario loader uses.
// truncated reports whether the file's final non-blank line failed to parse
// as JSON — the expected shape of a record still being written by a
// producer concurrently appending to the watched file — in which case that
// dangling line is dropped rather than failing the whole read (spec.md §5).
// A parse failure on any earlier line is still a hard error: only the tail
// of a growing file is allowed to be incomplete.
func readEntries(path string) (entries []model.LogEntry, truncated bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	var lines [][]byte
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		return nil, false, fmt.Errorf("read trace: %w", err)
	}

	raw := make([]scenario.EntryJSON, 0, len(lines))
	for i, line := range lines {
		var e scenario.EntryJSON
		if err := json.Unmarshal(line, &e); err != nil {
			if i == len(lines)-1 {
				truncated = true
				break
			}
			return nil, false, fmt.Errorf("parse trace line %d: %w", i, err)
		}
		raw = append(raw, e)
	}

	wrapper := &scenario.Scenario{Log: raw}
	entries, err = wrapper.BuildLog()
	if err != nil {
		return nil, false, err
	}
	return entries, truncated, nil
}

// watchTrace polls tracePath for growth every cfg.pollInterval, re-running
// a full analysis over the accumulated trace on each growth and publishing
// the fresh report to store plus a broadcast of every finding in it to h.
// The analyzer has no incremental API (spec.md §3: a run is finalized
// exactly once), so each poll rebuilds a new Analyzer over the whole trace
// seen so far; this trades recomputation cost for never having to patch a
// live report in place.
func watchTrace(ctx context.Context, cfg *appConfig, ldf *model.LdfDescription, dbc *model.DbcDatabase, gw model.GatewayMap, store *reportStore, h *hub.Hub, l *slog.Logger) {
	t := time.NewTicker(cfg.pollInterval)
	defer t.Stop()
	var lastSize int64
	runOnce := func() {
		info, err := os.Stat(cfg.tracePath)
		if err != nil {
			l.Warn("trace_stat_error", "error", err)
			metrics.IncError(metrics.ErrInputRead)
			return
		}
		if info.Size() == lastSize {
			return
		}
		lastSize = info.Size()

		entries, truncated, err := readEntries(cfg.tracePath)
		if err != nil {
			l.Warn("trace_parse_error", "error", err)
			metrics.IncError(metrics.ErrInputRead)
			return
		}
		if truncated {
			l.Debug("trace_tail_incomplete", "entries", len(entries))
		}

		a, err := analyzer.New(ldf, dbc, gw,
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
			metrics.IncError(metrics.ErrDescription)
			return
		}
		var src logstream.Source
		if truncated {
			src = logstream.NewTruncatedSliceSource(entries)
		} else {
			src = logstream.NewSliceSource(entries)
		}
		report, err := a.Run(src)
		if err != nil {
			l.Error("analyzer_run_error", "error", err)
			metrics.IncError(metrics.ErrDescription)
			return
		}
		store.set(report)
		for _, finding := range report.AllFindings() {
			metrics.IncFinding(string(finding.Kind))
			h.Broadcast(finding)
		}
		l.Info("trace_reanalyzed", "entries", len(entries), "findings", len(report.AllFindings()))
	}

	runOnce()
	for {
		select {
		case <-t.C:
			runOnce()
		case <-ctx.Done():
			return
		}
	}
}
