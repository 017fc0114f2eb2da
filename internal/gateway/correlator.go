// Package gateway implements C7: a windowed join between LIN and CAN signal
// sample streams that verifies a GatewayMap's republish rules preserve
// signal semantics and timing (spec.md §4.7).
package gateway

import (
	"math"

	"github.com/linspector/linspector/internal/model"
)

// Config carries the correlator's default time window (spec.md §6).
type Config struct {
	// DefaultWindow is used for a MapRule whose MaxLatency is zero.
	DefaultWindow float64
}

func (c Config) resolved() Config {
	if c.DefaultWindow <= 0 {
		c.DefaultWindow = 0.010
	}
	return c
}

type ruleState struct {
	rule   model.MapRule
	window float64
	// queue holds recent source-side samples within [now-window, now],
	// oldest first. Bounded by window per spec.md §5 resource policy.
	queue []model.SignalSample

	count      uint64
	sumLatency float64
	sumLatSq   float64
	minLatency float64
	maxLatency float64
	hasLatency bool
}

// Correlator tracks per-rule join state across a run.
type Correlator struct {
	cfg   Config
	rules []*ruleState
}

// New builds a Correlator from a GatewayMap.
func New(gw model.GatewayMap, cfg Config) *Correlator {
	cfg = cfg.resolved()
	c := &Correlator{cfg: cfg}
	for _, r := range gw.Rules {
		window := r.MaxLatency
		if window <= 0 {
			window = cfg.DefaultWindow
		}
		c.rules = append(c.rules, &ruleState{rule: r, window: window})
	}
	return c
}

// sourceName returns the signal name the rule sources from for the given
// sample's origin side.
func sourceName(r model.MapRule) string {
	if r.Direction == model.LinToCan {
		return r.LinSignal
	}
	return r.CanSignal
}

func targetName(r model.MapRule) string {
	if r.Direction == model.LinToCan {
		return r.CanSignal
	}
	return r.LinSignal
}

// ObserveSource feeds a sample from the rule's source bus (LIN for
// LinToCan rules, CAN for CanToLin rules) into every matching rule's bounded
// queue, evicting entries older than the window.
func (c *Correlator) ObserveSource(s model.SignalSample) {
	for _, rs := range c.rules {
		if s.Name != sourceName(rs.rule) {
			continue
		}
		rs.queue = append(rs.queue, s)
		cutoff := float64(s.Timestamp) - rs.window
		i := 0
		for i < len(rs.queue) && float64(rs.queue[i].Timestamp) < cutoff {
			i++
		}
		if i > 0 {
			rs.queue = append([]model.SignalSample(nil), rs.queue[i:]...)
		}
	}
}

// ObserveTarget feeds a sample from the rule's target bus and returns the
// findings the join raises for it, per spec.md §4.7. Ties among equidistant
// source candidates prefer the earlier one (modelling gateway propagation
// delay), per the Open Question decision recorded in DESIGN.md.
func (c *Correlator) ObserveTarget(s model.SignalSample) []model.Finding {
	var findings []model.Finding
	for _, rs := range c.rules {
		if s.Name != targetName(rs.rule) {
			continue
		}
		best, ok := closestWithin(rs.queue, s.Timestamp, rs.window)
		if !ok {
			findings = append(findings, model.Finding{
				Kind:       model.FindingNoLinSourceInWindow,
				Timestamp:  s.Timestamp,
				Channel:    s.Channel,
				Sequence:   s.Sequence,
				Identifier: ruleIdentifier(rs.rule),
				Detail:     "no source sample within the correlation window",
			})
			continue
		}

		latency := float64(s.Timestamp) - float64(best.Timestamp)
		rs.record(latency)

		expected := rs.rule.Transform.Apply(best.Value)
		tolerance := math.Max(1e-6, 1e-3*math.Abs(expected))
		if math.Abs(s.Value-expected) > tolerance {
			findings = append(findings, model.Finding{
				Kind:       model.FindingGatewayValueMismatch,
				Timestamp:  s.Timestamp,
				Channel:    s.Channel,
				Sequence:   s.Sequence,
				Identifier: ruleIdentifier(rs.rule),
				Expected:   expected,
				Observed:   s.Value,
				Detail:     "latency_s=" + floatString(latency),
			})
		}
	}
	return findings
}

// closestWithin finds the queued sample closest in time to target, within
// window seconds, breaking ties toward the earlier sample.
func closestWithin(queue []model.SignalSample, target model.Timestamp, window float64) (model.SignalSample, bool) {
	var best model.SignalSample
	var bestDist float64
	found := false
	for _, cand := range queue {
		d := float64(target) - float64(cand.Timestamp)
		if d < 0 {
			d = -d
		}
		if d > window {
			continue
		}
		if !found {
			best, bestDist, found = cand, d, true
			continue
		}
		if d < bestDist {
			best, bestDist = cand, d
		} else if d == bestDist && cand.Timestamp < best.Timestamp {
			best = cand
		}
	}
	return best, found
}

func (rs *ruleState) record(latency float64) {
	rs.count++
	rs.sumLatency += latency
	rs.sumLatSq += latency * latency
	if !rs.hasLatency || latency < rs.minLatency {
		rs.minLatency = latency
	}
	if !rs.hasLatency || latency > rs.maxLatency {
		rs.maxLatency = latency
	}
	rs.hasLatency = true
}

// RuleStats summarizes one rule's observed join latencies.
type RuleStats struct {
	Rule        model.MapRule
	Count       uint64
	MeanLatency float64
	MinLatency  float64
	MaxLatency  float64
}

// Statistics returns per-rule latency statistics gathered so far.
func (c *Correlator) Statistics() []RuleStats {
	out := make([]RuleStats, 0, len(c.rules))
	for _, rs := range c.rules {
		var mean float64
		if rs.count > 0 {
			mean = rs.sumLatency / float64(rs.count)
		}
		out = append(out, RuleStats{
			Rule:        rs.rule,
			Count:       rs.count,
			MeanLatency: mean,
			MinLatency:  rs.minLatency,
			MaxLatency:  rs.maxLatency,
		})
	}
	return out
}

func ruleIdentifier(r model.MapRule) string {
	if r.Direction == model.LinToCan {
		return r.LinSignal + "->" + r.CanSignal
	}
	return r.CanSignal + "->" + r.LinSignal
}

func floatString(v float64) string {
	// Minimal fixed-point formatter; the detail field is diagnostic text
	// only and need not match strconv's rounding exactly.
	neg := v < 0
	if neg {
		v = -v
	}
	scaled := int64(math.Round(v * 1e6))
	whole := scaled / 1e6
	frac := scaled % 1e6
	s := itoa(whole) + "." + padZeros(itoa(frac), 6)
	if neg {
		return "-" + s
	}
	return s
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func padZeros(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
