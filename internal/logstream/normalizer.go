// Package logstream implements C2, the log normalizer: it consumes an
// iterator of already-parsed model.LogEntry values (the textual grammar is
// an external collaborator's concern per spec.md §6) and re-emits them in
// arrival order with monotonic timestamps, flagging any regression.
package logstream

import "github.com/linspector/linspector/internal/model"

// quantum is the minimum clamp step applied on a timestamp regression
// (spec.md §4.2): 1 microsecond.
const quantum = 1e-6

// Source is the external iterator contract: Next returns the next entry and
// true, or a zero value and false at end of input. It never blocks on
// anything but the caller's own pull.
type Source interface {
	Next() (model.LogEntry, bool)
}

// TruncationReporter is an optional capability a Source implements to
// distinguish, once Next has returned false, whether iteration reached a
// well-formed end or stopped early because the input was cut short (spec.md
// §5: "the iterator may signal end-of-input at any time; the analyzer must
// finalize cleanly and report partial statistics with a TruncatedInput
// flag"). A Source that doesn't implement it is assumed never truncated.
type TruncationReporter interface {
	Truncated() bool
}

// SliceSource adapts a pre-built slice to the Source interface, useful for
// tests and for the batch CLI's JSON scenario loader.
type SliceSource struct {
	entries   []model.LogEntry
	i         int
	truncated bool
}

// NewSliceSource wraps entries (already in arrival order) as a Source that
// reports a clean end (Truncated() == false).
func NewSliceSource(entries []model.LogEntry) *SliceSource {
	return &SliceSource{entries: entries}
}

// NewTruncatedSliceSource wraps entries like NewSliceSource, but reports
// Truncated() == true once exhausted — for a trace known to have been cut
// short (e.g. the daemon's watcher stopping on an incomplete trailing
// line) rather than reaching its own well-formed end.
func NewTruncatedSliceSource(entries []model.LogEntry) *SliceSource {
	return &SliceSource{entries: entries, truncated: true}
}

func (s *SliceSource) Next() (model.LogEntry, bool) {
	if s.i >= len(s.entries) {
		return model.LogEntry{}, false
	}
	e := s.entries[s.i]
	s.i++
	return e, true
}

// Truncated implements TruncationReporter.
func (s *SliceSource) Truncated() bool { return s.truncated }

// Normalizer wraps a Source, enforcing monotonic timestamps per channel and
// assigning stable per-channel sequence numbers.
type Normalizer struct {
	src       Source
	lastTs    map[model.Channel]model.Timestamp
	seq       map[model.Channel]uint64
	findings  []model.Finding
	truncated bool
}

// New creates a Normalizer over src.
func New(src Source) *Normalizer {
	return &Normalizer{
		src:    src,
		lastTs: make(map[model.Channel]model.Timestamp),
		seq:    make(map[model.Channel]uint64),
	}
}

// Next pulls, clamps, and sequences the next entry. ok is false at end of
// input.
func (n *Normalizer) Next() (model.LogEntry, bool) {
	e, ok := n.src.Next()
	if !ok {
		if tr, implements := n.src.(TruncationReporter); implements {
			n.truncated = tr.Truncated()
		}
		return model.LogEntry{}, false
	}
	ch := e.Chan()
	ts := e.Ts()
	if last, seen := n.lastTs[ch]; seen && ts < last {
		clamped := last + quantum
		n.findings = append(n.findings, model.Finding{
			Kind:      model.FindingNonMonotonicTimestamp,
			Timestamp: clamped,
			Channel:   ch,
			Sequence:  n.seq[ch],
			Expected:  float64(last),
			Observed:  float64(ts),
			Detail:    "timestamp regressed; clamped to previous + 1us",
		})
		ts = clamped
		e = setTimestamp(e, ts)
	}
	n.lastTs[ch] = ts
	seq := n.seq[ch]
	n.seq[ch] = seq + 1
	e = setSequence(e, seq)
	return e, true
}

// Findings returns the NonMonotonicTimestamp findings accumulated so far.
func (n *Normalizer) Findings() []model.Finding { return n.findings }

// Truncated reports whether the wrapped Source signaled an early end once
// Next started returning false. Meaningless before Next has returned false
// at least once.
func (n *Normalizer) Truncated() bool { return n.truncated }

func setTimestamp(e model.LogEntry, ts model.Timestamp) model.LogEntry {
	if e.Kind == model.KindLin {
		e.Lin.Timestamp = ts
	} else {
		e.Can.Timestamp = ts
	}
	return e
}

func setSequence(e model.LogEntry, seq uint64) model.LogEntry {
	if e.Kind == model.KindLin {
		e.Lin.Sequence = seq
	} else {
		e.Can.Sequence = seq
	}
	return e
}
