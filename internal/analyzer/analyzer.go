// Package analyzer orchestrates the core: it wires the log normalizer (C2),
// the LIN/CAN frame validators (C3/C4), the signal extractor (C6), the
// schedule analyzer (C5), the gateway correlator (C7), and the report
// aggregator (C8) into the single-threaded pipeline spec.md §2 and §5
// describe.
package analyzer

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/linspector/linspector/internal/bitops"
	"github.com/linspector/linspector/internal/canvalidate"
	"github.com/linspector/linspector/internal/gateway"
	"github.com/linspector/linspector/internal/linvalidate"
	"github.com/linspector/linspector/internal/logstream"
	"github.com/linspector/linspector/internal/model"
	"github.com/linspector/linspector/internal/report"
	"github.com/linspector/linspector/internal/schedule"
	"github.com/linspector/linspector/internal/signal"
)

// Analyzer runs one analysis pass over a normalized log stream. It is built
// once per run via New and is not reusable across runs (matching spec.md §3
// "finalized exactly once").
type Analyzer struct {
	ldf *model.LdfDescription
	dbc *model.DbcDatabase
	gw  model.GatewayMap
	cfg Config

	linValidator *linvalidate.Validator
	schedAnalyzer *schedule.Analyzer
	gwCorrelator *gateway.Correlator
	linExtractor *signal.Extractor
	canExtractor *signal.Extractor
	agg          *report.Aggregator

	canFramesByChannel map[model.Channel][]model.CanFrame
	linArrivals        map[model.FrameID][]model.Timestamp
	lastTs             model.Timestamp

	logger *slog.Logger
}

// New validates ldf, dbc, and cfg and builds an Analyzer ready to Run.
// It returns a wrapped ErrMalformedDescription or ErrConfigError on
// structural violations (spec.md §7); these are the only error returns.
func New(ldf *model.LdfDescription, dbc *model.DbcDatabase, gw model.GatewayMap, opts ...Option) (*Analyzer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateLdf(ldf); err != nil {
		return nil, err
	}
	if err := validateDbc(dbc); err != nil {
		return nil, err
	}

	a := &Analyzer{
		ldf: ldf,
		dbc: dbc,
		gw:  gw,
		cfg: cfg,

		linValidator:  linvalidate.New(ldf, linvalidate.Config{BitRateHz: cfg.BitRateHz, BitRateTolerance: cfg.BitRateTolerance}),
		schedAnalyzer: schedule.New(ldf.Schedule, schedule.Config{ScheduleTolerance: cfg.ScheduleTolerance, MaxJitter: cfg.MaxJitter}),
		gwCorrelator:  gateway.New(gw, gateway.Config{DefaultWindow: cfg.GatewayTimeWindow}),
		linExtractor:  signal.New(ldf.Signals),
		canExtractor:  signal.New(dbc.Signals),
		agg:           report.New(),

		canFramesByChannel: make(map[model.Channel][]model.CanFrame),
		linArrivals:        make(map[model.FrameID][]model.Timestamp),
		logger:             cfg.logger,
	}
	return a, nil
}

// validateLdf checks that every signal id an LDF frame references resolves
// within the shared signal arena, and that the frame's signals neither
// overlap in bit range nor declare more than one multiplexor selector
// (spec.md §7 MalformedDescription: "signal bit-range overlaps or
// multiplexor recursion").
func validateLdf(ldf *model.LdfDescription) error {
	if ldf == nil {
		return fmt.Errorf("%w: nil LdfDescription", ErrMalformedDescription)
	}
	for id, spec := range ldf.Frames {
		if spec.Length < 0 || spec.Length > 8 {
			return fmt.Errorf("%w: frame %d declares length %d outside [0,8]", ErrMalformedDescription, id, spec.Length)
		}
		signals := make([]model.Signal, 0, len(spec.Signals))
		for _, sigID := range spec.Signals {
			sig, ok := ldf.SignalByID(sigID)
			if !ok {
				return fmt.Errorf("%w: frame %d references out-of-range signal id %d", ErrMalformedDescription, id, sigID)
			}
			signals = append(signals, sig)
		}
		if err := validateSignalLayout(signals); err != nil {
			return fmt.Errorf("%w: frame %d: %v", ErrMalformedDescription, id, err)
		}
	}
	return nil
}

// validateDbc is validateLdf's CAN-side counterpart.
func validateDbc(dbc *model.DbcDatabase) error {
	if dbc == nil {
		return fmt.Errorf("%w: nil DbcDatabase", ErrMalformedDescription)
	}
	for key, msg := range dbc.Messages {
		signals := make([]model.Signal, 0, len(msg.Signals))
		for _, sigID := range msg.Signals {
			sig, ok := dbc.SignalByID(sigID)
			if !ok {
				return fmt.Errorf("%w: message %+v references out-of-range signal id %d", ErrMalformedDescription, key, sigID)
			}
			signals = append(signals, sig)
		}
		if err := validateSignalLayout(signals); err != nil {
			return fmt.Errorf("%w: message %+v: %v", ErrMalformedDescription, key, err)
		}
	}
	return nil
}

// validateSignalLayout checks one frame's/message's resolved signals for the
// two structural defects a flat (non-recursive) MuxRole can still exhibit:
// two signals whose bit spans overlap without being mutually exclusive
// multiplexed alternatives, and more than one multiplexor selector (which
// would imply a second, nested level of multiplexing this model does not
// represent).
func validateSignalLayout(signals []model.Signal) error {
	muxSelectors := 0
	positions := make([][]int, len(signals))
	for i, s := range signals {
		positions[i] = bitops.FieldBitPositions(s.StartBit, s.Length, bitops.ByteOrder(s.Order))
		if s.Mux.Kind == model.MuxMultiplexor {
			muxSelectors++
		}
	}
	if muxSelectors > 1 {
		return fmt.Errorf("%d multiplexor selectors declared, want at most 1 (multiplexor recursion)", muxSelectors)
	}
	for i := 0; i < len(signals); i++ {
		for j := i + 1; j < len(signals); j++ {
			if mutuallyExclusiveMux(signals[i], signals[j]) {
				continue
			}
			if bitSpansOverlap(positions[i], positions[j]) {
				return fmt.Errorf("signals %q and %q overlap in bit range", signals[i].Name, signals[j].Name)
			}
		}
	}
	return nil
}

// mutuallyExclusiveMux reports whether a and b are multiplexed signals gated
// on different selector values, and therefore never simultaneously active —
// an intentional, legal bit-range overlap.
func mutuallyExclusiveMux(a, b model.Signal) bool {
	return a.Mux.Kind == model.MuxMultiplexed && b.Mux.Kind == model.MuxMultiplexed && a.Mux.GroupID != b.Mux.GroupID
}

// bitSpansOverlap reports whether a and b share any absolute bit position.
func bitSpansOverlap(a, b []int) bool {
	seen := make(map[int]struct{}, len(a))
	for _, p := range a {
		seen[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := seen[p]; ok {
			return true
		}
	}
	return false
}

func linPayload(f model.LinFrame) []byte {
	n := int(f.DLC)
	if n > len(f.Payload) {
		n = len(f.Payload)
	}
	return f.Payload[:n]
}

func canPayload(f model.CanFrame) []byte {
	n := int(f.DLC)
	if n > len(f.Payload) {
		n = len(f.Payload)
	}
	return f.Payload[:n]
}

// Run consumes src to completion (or until it signals end), feeding every
// entry through the pipeline, and returns the finalized AnalysisReport.
// Run never returns a non-nil error for per-frame defects — those surface
// as findings in the report; it returns an error only were the run to hit
// an internal invariant violation.
func (a *Analyzer) Run(src logstream.Source) (*model.AnalysisReport, error) {
	n := logstream.New(src)
	for {
		entry, ok := n.Next()
		if !ok {
			break
		}
		switch entry.Kind {
		case model.KindLin:
			a.observeLin(entry.Lin)
		case model.KindCan:
			a.observeCan(entry.Can)
		default:
			return nil, fmt.Errorf("%w: log entry with unrecognized kind %d", ErrInternalInvariant, entry.Kind)
		}
		a.lastTs = entry.Ts()
	}
	a.agg.AddFindings(n.Findings()...)
	if n.Truncated() {
		a.agg.MarkTruncated()
		a.agg.AddFindings(model.Finding{
			Kind:      model.FindingTruncatedInput,
			Timestamp: a.lastTs,
			Detail:    "source signaled end-of-input before reaching a well-formed end",
		})
	}

	missed := a.schedAnalyzer.MissedSlots(a.linArrivals, a.lastTs)
	a.agg.AddFindings(missed...)

	a.agg.SetSignalStatistics(a.linExtractor.Statistics())
	a.agg.SetSignalStatistics(a.canExtractor.Statistics())

	for _, frames := range a.canFramesByChannel {
		sort.Slice(frames, func(i, j int) bool { return frames[i].Timestamp < frames[j].Timestamp })
		points := canvalidate.BusLoadSeries(frames, canvalidate.BusLoadConfig{
			WindowSize:  a.cfg.BusLoadWindow,
			BitRateHz:   a.cfg.CanBitRateHz,
			FDBitRateHz: a.cfg.CanFDBitRateHz,
		})
		a.agg.AddBusLoadPoints(points...)
	}

	return a.agg.Finalize(), nil
}

func (a *Analyzer) observeLin(f model.LinFrame) {
	a.agg.CountLinFrame()
	a.agg.AddFindings(a.linValidator.Validate(f)...)

	id := model.FrameID(f.UnprotectedID())
	a.linArrivals[id] = append(a.linArrivals[id], f.Timestamp)
	a.agg.AddFindings(a.schedAnalyzer.Observe(id, f.Timestamp, f.Channel, f.Sequence)...)

	spec, known := a.ldf.Frames[id]
	if !known {
		return
	}
	samples, findings := a.linExtractor.Extract(f.Timestamp, f.Channel, f.Sequence, linPayload(f), spec.Signals)
	a.agg.AddFindings(findings...)
	for _, s := range samples {
		a.gwCorrelator.ObserveSource(s)
		a.agg.AddFindings(a.gwCorrelator.ObserveTarget(s)...)
	}
}

func (a *Analyzer) observeCan(f model.CanFrame) {
	a.agg.CountCanFrame()
	a.agg.AddFindings(canvalidate.Validate(f)...)
	a.canFramesByChannel[f.Channel] = append(a.canFramesByChannel[f.Channel], f)

	key := model.MessageKey{ID: f.ID, IDWidth: f.IDWidth}
	msg, known := a.dbc.Messages[key]
	if !known {
		return
	}
	samples, findings := a.canExtractor.Extract(f.Timestamp, f.Channel, f.Sequence, canPayload(f), msg.Signals)
	a.agg.AddFindings(findings...)
	for _, s := range samples {
		a.gwCorrelator.ObserveSource(s)
		a.agg.AddFindings(a.gwCorrelator.ObserveTarget(s)...)
	}
}

// ScheduleStatistics exposes C5's per-frame_id statistics for diagnostics
// and logging; these are not part of AnalysisReport itself (spec.md §3's
// data model does not enumerate them as report fields).
func (a *Analyzer) ScheduleStatistics() []schedule.FrameStats { return a.schedAnalyzer.Statistics() }

// GatewayStatistics exposes C7's per-rule latency statistics for
// diagnostics and logging, for the same reason as ScheduleStatistics.
func (a *Analyzer) GatewayStatistics() []gateway.RuleStats { return a.gwCorrelator.Statistics() }
