package model

// SignalStatistics holds the Welford-computed aggregate for one signal's
// observed physical values across the whole run.
type SignalStatistics struct {
	Name    string
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	Samples uint64
}

// BusLoadPoint is one sample of the CAN bus-load series (C4).
type BusLoadPoint struct {
	WindowStart Timestamp
	Channel     Channel
	LoadRatio   float64
}

// AnalysisReport is the core's sole output: a deterministic, typed
// collection of findings plus derived statistics. Findings are grouped by
// the subsystem that raised them (spec.md §3) even though all share the
// same Finding shape, because report consumers commonly want "just the
// schedule findings" without re-filtering a flat list.
type AnalysisReport struct {
	FrameFindings    []Finding
	TimingFindings   []Finding
	PhysicalFindings []Finding
	ScheduleFindings []Finding
	GatewayFindings  []Finding

	SignalStatistics map[string]SignalStatistics
	BusLoadSeries    []BusLoadPoint

	TotalFramesLin    uint64
	TotalFramesCan    uint64
	ErrorCountByKind  map[FindingKind]uint64
	Truncated         bool
}

// AllFindings returns every finding across all categories, in whatever
// order the categories were populated; callers that need the deterministic
// cross-category order defined by spec.md §4.8 should use the aggregator's
// Finalize output instead of concatenating this ad hoc.
func (r *AnalysisReport) AllFindings() []Finding {
	total := len(r.FrameFindings) + len(r.TimingFindings) + len(r.PhysicalFindings) +
		len(r.ScheduleFindings) + len(r.GatewayFindings)
	out := make([]Finding, 0, total)
	out = append(out, r.FrameFindings...)
	out = append(out, r.TimingFindings...)
	out = append(out, r.PhysicalFindings...)
	out = append(out, r.ScheduleFindings...)
	out = append(out, r.GatewayFindings...)
	return out
}
