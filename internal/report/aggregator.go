// Package report implements C8, the report aggregator: it collects
// per-component findings and statistics into a single deterministic
// AnalysisReport (spec.md §4.8).
package report

import (
	"sort"

	"github.com/linspector/linspector/internal/model"
)

// category classifies a finding kind into one of the report's grouped
// slices, mirroring the subsystem that raises it (spec.md §3).
func category(k model.FindingKind) int {
	switch k {
	case model.FindingPidParityError, model.FindingChecksumError, model.FindingLengthMismatch,
		model.FindingUnknownFrameId, model.FindingIllegalDlc, model.FindingSignalFieldOutOfPayload,
		model.FindingSignalOutOfRange:
		return catFrame
	case model.FindingBreakTooShort, model.FindingSyncByteWrong, model.FindingBreakDelimiterShort,
		model.FindingBitRateOutOfTolerance:
		return catPhysical
	case model.FindingNonMonotonicTimestamp:
		return catTiming
	case model.FindingScheduleDrift, model.FindingJitterExceeded, model.FindingMissedSlot,
		model.FindingUnexpectedFrame:
		return catSchedule
	case model.FindingNoLinSourceInWindow, model.FindingGatewayValueMismatch:
		return catGateway
	default:
		return catFrame
	}
}

const (
	catFrame = iota
	catTiming
	catPhysical
	catSchedule
	catGateway
)

// Aggregator accumulates findings and statistics across a single analysis
// run. It is not safe for concurrent use; channel-parallel callers build one
// Aggregator per channel and merge via Merge (spec.md §5).
type Aggregator struct {
	findings [5][]model.Finding

	signalStats map[string]model.SignalStatistics
	busLoad     []model.BusLoadPoint

	totalLin uint64
	totalCan uint64
	truncated bool

	finalized bool
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{signalStats: make(map[string]model.SignalStatistics)}
}

// AddFindings appends findings to their respective category buckets. Safe
// to call with a nil or empty slice.
func (a *Aggregator) AddFindings(fs ...model.Finding) {
	for _, f := range fs {
		c := category(f.Kind)
		a.findings[c] = append(a.findings[c], f)
	}
}

// CountLinFrame records one observed LIN frame toward TotalFramesLin.
func (a *Aggregator) CountLinFrame() { a.totalLin++ }

// CountCanFrame records one observed CAN frame toward TotalFramesCan.
func (a *Aggregator) CountCanFrame() { a.totalCan++ }

// SetSignalStatistics installs the finalized signal statistics computed by
// C6's extractor(s). Callers merging multiple extractors (e.g. one per
// channel) should pre-merge before calling this once.
func (a *Aggregator) SetSignalStatistics(stats map[string]model.SignalStatistics) {
	for k, v := range stats {
		a.signalStats[k] = v
	}
}

// AddBusLoadPoints appends bus-load series points from C4.
func (a *Aggregator) AddBusLoadPoints(points ...model.BusLoadPoint) {
	a.busLoad = append(a.busLoad, points...)
}

// MarkTruncated flags the run as ended early (spec.md §5 cancellation).
func (a *Aggregator) MarkTruncated() { a.truncated = true }

// Merge folds another Aggregator's accumulated state into this one,
// implementing the channel-parallel merge spec.md §5 requires. The other
// Aggregator must not be used afterward.
func (a *Aggregator) Merge(other *Aggregator) {
	for c := range a.findings {
		a.findings[c] = append(a.findings[c], other.findings[c]...)
	}
	for k, v := range other.signalStats {
		a.signalStats[k] = v
	}
	a.busLoad = append(a.busLoad, other.busLoad...)
	a.totalLin += other.totalLin
	a.totalCan += other.totalCan
	a.truncated = a.truncated || other.truncated
}

// Finalize builds the deterministic AnalysisReport. Sorting happens on the
// first call only; a later call builds a new report with the same contents
// from the already-sorted state.
func (a *Aggregator) Finalize() *model.AnalysisReport {
	if !a.finalized {
		for c := range a.findings {
			sortFindings(a.findings[c])
		}
		sort.Slice(a.busLoad, func(i, j int) bool {
			return a.busLoad[i].WindowStart < a.busLoad[j].WindowStart
		})
		a.finalized = true
	}

	errByKind := make(map[model.FindingKind]uint64)
	for _, bucket := range a.findings {
		for _, f := range bucket {
			errByKind[f.Kind]++
		}
	}

	return &model.AnalysisReport{
		FrameFindings:    a.findings[catFrame],
		TimingFindings:   a.findings[catTiming],
		PhysicalFindings: a.findings[catPhysical],
		ScheduleFindings: a.findings[catSchedule],
		GatewayFindings:  a.findings[catGateway],
		SignalStatistics: a.signalStats,
		BusLoadSeries:    a.busLoad,
		TotalFramesLin:   a.totalLin,
		TotalFramesCan:   a.totalCan,
		ErrorCountByKind: errByKind,
		Truncated:        a.truncated,
	}
}

// sortFindings orders findings by (timestamp, kind, sequence) so repeat
// runs over identical input are diffable (spec.md §4.8, invariant 3).
func sortFindings(fs []model.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Sequence < b.Sequence
	})
}
