// Package signal implements C6, the signal extractor: LDF/DBC-driven
// physical-value decoding (including multiplexing) and Welford online
// statistics so a single pass over a trace yields mean/stddev without
// retaining samples (spec.md §4.6, §9).
package signal

import "math"

// Welford accumulates mean/variance in a single numerically stable pass
// (Welford's algorithm), per spec.md's "Online statistics" design note.
type Welford struct {
	n      uint64
	mean   float64
	m2     float64
	min    float64
	max    float64
	inited bool
}

// Add folds v into the running statistics.
func (w *Welford) Add(v float64) {
	w.n++
	delta := v - w.mean
	w.mean += delta / float64(w.n)
	delta2 := v - w.mean
	w.m2 += delta * delta2
	if !w.inited {
		w.min, w.max = v, v
		w.inited = true
		return
	}
	if v < w.min {
		w.min = v
	}
	if v > w.max {
		w.max = v
	}
}

// Count returns the number of samples folded in so far.
func (w *Welford) Count() uint64 { return w.n }

// Mean returns the running mean.
func (w *Welford) Mean() float64 { return w.mean }

// Variance returns the population variance (finalized only once, per
// spec.md's "aggregate statistics computed only at finalization").
func (w *Welford) Variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n)
}

// StdDev returns the population standard deviation.
func (w *Welford) StdDev() float64 { return math.Sqrt(w.Variance()) }

// Min returns the minimum sample seen, or 0 if none.
func (w *Welford) Min() float64 { return w.min }

// Max returns the maximum sample seen, or 0 if none.
func (w *Welford) Max() float64 { return w.max }
