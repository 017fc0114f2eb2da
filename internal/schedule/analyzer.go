// Package schedule implements C5, the schedule analyzer: it matches
// observed LIN headers against the active schedule table, measuring jitter
// and drift per spec.md §4.5.
package schedule

import (
	"math"

	"github.com/linspector/linspector/internal/model"
)

// Config carries the schedule tolerances (spec.md §6).
type Config struct {
	ScheduleTolerance float64 // seconds, default 500us
	MaxJitter         float64 // seconds, default 1ms
}

func (c Config) resolved() Config {
	if c.ScheduleTolerance <= 0 {
		c.ScheduleTolerance = 0.0005
	}
	if c.MaxJitter <= 0 {
		c.MaxJitter = 0.001
	}
	return c
}

type frameState struct {
	expectedPeriod float64
	t0             float64
	hasT0          bool
	lastTs         float64
	hasLast        bool
	count          uint64
	sumPeriod      float64
	sumPeriodSq    float64
	minJitter      float64
	maxJitter      float64
	hasJitter      bool
}

// FrameStats summarizes one frame_id's observed schedule adherence.
type FrameStats struct {
	FrameID   model.FrameID
	Count     uint64
	MeanPeriod float64
	StdDevPeriod float64
	MinJitter float64
	MaxJitter float64
}

// Analyzer tracks per-frame_id schedule state across a run. Diagnostic ids
// 60/61 bypass schedule checks entirely (spec.md §3 invariant 1).
type Analyzer struct {
	cfg      Config
	periods  map[model.FrameID]float64
	declared map[model.FrameID]bool
	state    map[model.FrameID]*frameState
}

// New creates an Analyzer from an LDF schedule table.
func New(schedule model.ScheduleTable, cfg Config) *Analyzer {
	a := &Analyzer{
		cfg:      cfg.resolved(),
		periods:  make(map[model.FrameID]float64),
		declared: make(map[model.FrameID]bool),
		state:    make(map[model.FrameID]*frameState),
	}
	for _, slot := range schedule.Slots {
		a.periods[slot.FrameID] = slot.Period
		a.declared[slot.FrameID] = true
	}
	return a
}

func isDiagnostic(id model.FrameID) bool { return id == 60 || id == 61 }

// Observe feeds one LIN header arrival and returns the findings it raises.
func (a *Analyzer) Observe(id model.FrameID, ts model.Timestamp, ch model.Channel, seq uint64) []model.Finding {
	if isDiagnostic(id) {
		return nil
	}
	var findings []model.Finding
	if !a.declared[id] {
		return []model.Finding{{
			Kind:       model.FindingUnexpectedFrame,
			Timestamp:  ts,
			Channel:    ch,
			Sequence:   seq,
			Identifier: frameIDString(id),
		}}
	}

	period := a.periods[id]
	st, ok := a.state[id]
	if !ok {
		st = &frameState{expectedPeriod: period}
		a.state[id] = st
	}
	t := float64(ts)

	if !st.hasT0 {
		st.t0 = t
		st.hasT0 = true
	} else {
		expectedK := math.Round((t - st.t0) / period)
		deviation := t - (st.t0 + expectedK*period)
		// The tolerance is inclusive; the 1ns slack keeps a deviation that
		// equals it up to float rounding in bounds.
		if math.Abs(deviation) > a.cfg.ScheduleTolerance+1e-9 {
			findings = append(findings, model.Finding{
				Kind:       model.FindingScheduleDrift,
				Timestamp:  ts,
				Channel:    ch,
				Sequence:   seq,
				Identifier: frameIDString(id),
				Expected:   0,
				Observed:   deviation,
			})
		}
	}

	if st.hasLast {
		jitter := t - st.lastTs - period
		if math.Abs(jitter) > a.cfg.MaxJitter {
			findings = append(findings, model.Finding{
				Kind:       model.FindingJitterExceeded,
				Timestamp:  ts,
				Channel:    ch,
				Sequence:   seq,
				Identifier: frameIDString(id),
				Expected:   0,
				Observed:   jitter,
			})
		}
		if !st.hasJitter || jitter < st.minJitter {
			st.minJitter = jitter
		}
		if !st.hasJitter || jitter > st.maxJitter {
			st.maxJitter = jitter
		}
		st.hasJitter = true
		gap := t - st.lastTs
		st.sumPeriod += gap
		st.sumPeriodSq += gap * gap
	}

	st.lastTs = t
	st.hasLast = true
	st.count++
	return findings
}

// MissedSlots scans, per declared frame_id, for gaps >= 1.5*period between
// consecutive observed arrivals (and from the last arrival to endTs),
// emitting a MissedSlot finding for each. Called once at finalization since
// it needs the full arrival list per frame_id.
func (a *Analyzer) MissedSlots(arrivals map[model.FrameID][]model.Timestamp, endTs model.Timestamp) []model.Finding {
	var findings []model.Finding
	for id, period := range a.periods {
		ts := arrivals[id]
		if len(ts) == 0 {
			continue
		}
		threshold := 1.5 * period
		for i := 1; i < len(ts); i++ {
			gap := float64(ts[i]) - float64(ts[i-1])
			if gap >= threshold {
				findings = append(findings, model.Finding{
					Kind:       model.FindingMissedSlot,
					Timestamp:  ts[i],
					Identifier: frameIDString(id),
					Expected:   period,
					Observed:   gap,
				})
			}
		}
		if gap := float64(endTs) - float64(ts[len(ts)-1]); gap >= threshold {
			findings = append(findings, model.Finding{
				Kind:       model.FindingMissedSlot,
				Timestamp:  endTs,
				Identifier: frameIDString(id),
				Expected:   period,
				Observed:   gap,
			})
		}
	}
	return findings
}

// Statistics returns per-frame_id schedule statistics gathered so far.
func (a *Analyzer) Statistics() []FrameStats {
	out := make([]FrameStats, 0, len(a.state))
	for id, st := range a.state {
		var mean, stddev float64
		if st.count > 1 {
			n := float64(st.count - 1)
			mean = st.sumPeriod / n
			variance := st.sumPeriodSq/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			stddev = math.Sqrt(variance)
		}
		out = append(out, FrameStats{
			FrameID:      id,
			Count:        st.count,
			MeanPeriod:   mean,
			StdDevPeriod: stddev,
			MinJitter:    st.minJitter,
			MaxJitter:    st.maxJitter,
		})
	}
	return out
}

func frameIDString(id model.FrameID) string {
	const hexDigits = "0123456789ABCDEF"
	v := uint8(id)
	return "0x" + string([]byte{hexDigits[(v>>4)&0xF], hexDigits[v&0xF]})
}
