package logstream

import (
	"testing"

	"github.com/linspector/linspector/internal/model"
)

func linEntry(ts float64, ch string) model.LogEntry {
	return model.LogEntry{Kind: model.KindLin, Lin: model.LinFrame{Timestamp: model.Timestamp(ts), Channel: model.Channel(ch)}}
}

func TestNormalizer_PassesThroughMonotonic(t *testing.T) {
	src := NewSliceSource([]model.LogEntry{linEntry(0, "LIN1"), linEntry(0.01, "LIN1"), linEntry(0.02, "LIN1")})
	n := New(src)
	var got []model.Timestamp
	for {
		e, ok := n.Next()
		if !ok {
			break
		}
		got = append(got, e.Ts())
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if len(n.Findings()) != 0 {
		t.Fatalf("expected no findings, got %d", len(n.Findings()))
	}
}

func TestNormalizer_ClampsRegression(t *testing.T) {
	src := NewSliceSource([]model.LogEntry{linEntry(0.02, "LIN1"), linEntry(0.01, "LIN1")})
	n := New(src)
	first, _ := n.Next()
	second, _ := n.Next()
	if second.Ts() <= first.Ts() {
		t.Fatalf("expected clamped ts to exceed previous, got first=%v second=%v", first.Ts(), second.Ts())
	}
	if len(n.Findings()) != 1 {
		t.Fatalf("expected 1 NonMonotonicTimestamp finding, got %d", len(n.Findings()))
	}
	if n.Findings()[0].Kind != model.FindingNonMonotonicTimestamp {
		t.Fatalf("wrong finding kind: %v", n.Findings()[0].Kind)
	}
}

func TestNormalizer_SequenceIsPerChannel(t *testing.T) {
	src := NewSliceSource([]model.LogEntry{linEntry(0, "A"), linEntry(0, "B"), linEntry(1, "A")})
	n := New(src)
	a0, _ := n.Next()
	b0, _ := n.Next()
	a1, _ := n.Next()
	if a0.Seq() != 0 || b0.Seq() != 0 || a1.Seq() != 1 {
		t.Fatalf("unexpected sequence numbers: a0=%d b0=%d a1=%d", a0.Seq(), b0.Seq(), a1.Seq())
	}
}

func TestNormalizer_ReportsTruncationFromSource(t *testing.T) {
	src := NewTruncatedSliceSource([]model.LogEntry{linEntry(0, "LIN1")})
	n := New(src)
	for {
		if _, ok := n.Next(); !ok {
			break
		}
	}
	if !n.Truncated() {
		t.Fatalf("expected Normalizer to report truncation from an exhausted TruncatedSliceSource")
	}
}

func TestNormalizer_CleanEndIsNotTruncated(t *testing.T) {
	src := NewSliceSource([]model.LogEntry{linEntry(0, "LIN1")})
	n := New(src)
	for {
		if _, ok := n.Next(); !ok {
			break
		}
	}
	if n.Truncated() {
		t.Fatalf("expected a cleanly-ended SliceSource not to report truncation")
	}
}
