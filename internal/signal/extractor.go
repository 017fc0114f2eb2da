package signal

import (
	"github.com/linspector/linspector/internal/bitops"
	"github.com/linspector/linspector/internal/model"
)

// Extractor decodes physical signal values from payloads using an arena of
// model.Signal definitions, maintaining per-signal rolling Welford
// statistics (spec.md §4.6).
type Extractor struct {
	arena []model.Signal
	stats map[string]*Welford
}

// New creates an Extractor over the given signal arena (an LdfDescription's
// or DbcDatabase's Signals slice).
func New(arena []model.Signal) *Extractor {
	return &Extractor{arena: arena, stats: make(map[string]*Welford)}
}

// Extract decodes every signal in ids against payload, honoring
// multiplexing: the multiplexor signal (if any) is decoded first, and a
// Multiplexed signal is only emitted when its group matches the observed
// multiplexor value. Non-signal findings (out-of-payload, out-of-range) are
// returned alongside the decoded samples.
func (e *Extractor) Extract(ts model.Timestamp, ch model.Channel, seq uint64, payload []byte, ids []model.SignalID) ([]model.SignalSample, []model.Finding) {
	var samples []model.SignalSample
	var findings []model.Finding

	muxValue, haveMux := e.resolveMultiplexor(payload, ids)

	for _, id := range ids {
		if int(id) < 0 || int(id) >= len(e.arena) {
			continue
		}
		s := e.arena[id]
		if s.Mux.Kind == model.MuxMultiplexed {
			if !haveMux || muxValue != s.Mux.GroupID {
				continue
			}
		}
		raw, ok := bitops.ExtractRaw(payload, s.StartBit, s.Length, bitops.ByteOrder(s.Order))
		if !ok {
			findings = append(findings, model.Finding{
				Kind:       model.FindingSignalFieldOutOfPayload,
				Timestamp:  ts,
				Channel:    ch,
				Sequence:   seq,
				Identifier: s.Name,
				Detail:     "signal bit window falls outside the payload",
			})
			continue
		}
		var rawInt int64
		if s.Signed {
			rawInt = bitops.SignExtend(raw, s.Length)
		} else {
			rawInt = int64(raw)
		}
		phys := float64(rawInt)*s.Factor + s.Offset
		if s.Max > s.Min && (phys < s.Min || phys > s.Max) {
			findings = append(findings, model.Finding{
				Kind:       model.FindingSignalOutOfRange,
				Timestamp:  ts,
				Channel:    ch,
				Sequence:   seq,
				Identifier: s.Name,
				Expected:   s.Max,
				Observed:   phys,
				Detail:     "outside [min,max]",
			})
		}
		samples = append(samples, model.SignalSample{Timestamp: ts, Channel: ch, Sequence: seq, Name: s.Name, Value: phys})
		e.statFor(s.Name).Add(phys)
	}
	return samples, findings
}

// resolveMultiplexor decodes the multiplexor signal among ids, if any.
func (e *Extractor) resolveMultiplexor(payload []byte, ids []model.SignalID) (int64, bool) {
	for _, id := range ids {
		if int(id) < 0 || int(id) >= len(e.arena) {
			continue
		}
		s := e.arena[id]
		if s.Mux.Kind != model.MuxMultiplexor {
			continue
		}
		raw, ok := bitops.ExtractRaw(payload, s.StartBit, s.Length, bitops.ByteOrder(s.Order))
		if !ok {
			return 0, false
		}
		return int64(raw), true
	}
	return 0, false
}

func (e *Extractor) statFor(name string) *Welford {
	w, ok := e.stats[name]
	if !ok {
		w = &Welford{}
		e.stats[name] = w
	}
	return w
}

// Statistics finalizes and returns the accumulated per-signal statistics
// (spec.md: "aggregate statistics ... computed only at finalization").
func (e *Extractor) Statistics() map[string]model.SignalStatistics {
	out := make(map[string]model.SignalStatistics, len(e.stats))
	for name, w := range e.stats {
		out[name] = model.SignalStatistics{
			Name:    name,
			Min:     w.Min(),
			Max:     w.Max(),
			Mean:    w.Mean(),
			StdDev:  w.StdDev(),
			Samples: w.Count(),
		}
	}
	return out
}
