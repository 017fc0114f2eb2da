package schedule

import (
	"testing"

	"github.com/linspector/linspector/internal/model"
)

func oneSlotTable(id model.FrameID, period float64) model.ScheduleTable {
	return model.ScheduleTable{Slots: []model.ScheduleSlot{{FrameID: id, Period: period}}}
}

// TestAnalyzer_S3ScheduleDrift reproduces spec.md's S3 scenario: period
// 10ms, tolerance 500us, arrivals {0.000, 0.0105, 0.0200, 0.0306}. The
// second arrival (0.0105) deviates from its expected slot (0.010) by 0.5ms,
// at the tolerance boundary (invariant 10: boundary is inclusive of the
// *limit*, so exactly-at-tolerance does not fire; only strictly over does).
func TestAnalyzer_S3ScheduleDrift(t *testing.T) {
	a := New(oneSlotTable(0x10, 0.010), Config{})
	arrivals := []float64{0.000, 0.0105, 0.0200, 0.0306}
	var allFindings []model.Finding
	for i, ts := range arrivals {
		allFindings = append(allFindings, a.Observe(0x10, model.Timestamp(ts), "LIN0", uint64(i))...)
	}

	var drifts int
	for _, f := range allFindings {
		if f.Kind == model.FindingScheduleDrift {
			drifts++
		}
	}
	// 0.0105: deviation from k=1 slot (0.010) = 0.0005s, at the tolerance
	// boundary, not over it -> no drift.
	// 0.0200: k=2 slot is 0.020, deviation 0 -> no drift.
	// 0.0306: k=3 slot is 0.030, deviation 0.0006s > 0.0005 tolerance -> drift.
	if drifts != 1 {
		t.Fatalf("expected exactly 1 ScheduleDrift finding, got %d: %v", drifts, allFindings)
	}
}

// TestAnalyzer_TenThousandRepeats is spec.md's boundary case #9: a
// single-slot schedule repeated 10,000 times with exact period spacing must
// never raise UnexpectedFrame (and, with no timing noise, no other finding
// either).
func TestAnalyzer_TenThousandRepeats(t *testing.T) {
	const period = 0.010
	a := New(oneSlotTable(0x01, period), Config{})
	for i := 0; i < 10000; i++ {
		findings := a.Observe(0x01, model.Timestamp(float64(i)*period), "LIN0", uint64(i))
		for _, f := range findings {
			t.Fatalf("unexpected finding at i=%d: %v", i, f)
		}
	}
	stats := a.Statistics()
	if len(stats) != 1 || stats[0].Count != 10000 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestAnalyzer_UnexpectedFrame(t *testing.T) {
	a := New(oneSlotTable(0x01, 0.010), Config{})
	findings := a.Observe(0x02, 0, "LIN0", 0)
	if len(findings) != 1 || findings[0].Kind != model.FindingUnexpectedFrame {
		t.Fatalf("expected UnexpectedFrame, got %v", findings)
	}
}

func TestAnalyzer_DiagnosticIdsBypassSchedule(t *testing.T) {
	a := New(oneSlotTable(0x01, 0.010), Config{})
	if findings := a.Observe(60, 0, "LIN0", 0); findings != nil {
		t.Fatalf("diagnostic id 60 must bypass schedule checks, got %v", findings)
	}
	if findings := a.Observe(61, 99, "LIN0", 1); findings != nil {
		t.Fatalf("diagnostic id 61 must bypass schedule checks, got %v", findings)
	}
}

func TestAnalyzer_JitterExceeded(t *testing.T) {
	a := New(oneSlotTable(0x01, 0.010), Config{MaxJitter: 0.001})
	a.Observe(0x01, 0.000, "LIN0", 0)
	// second arrival 3ms late relative to the prior one -> jitter 0.003s > 0.001
	findings := a.Observe(0x01, 0.013, "LIN0", 1)
	var jitter, drift bool
	for _, f := range findings {
		if f.Kind == model.FindingJitterExceeded {
			jitter = true
		}
		if f.Kind == model.FindingScheduleDrift {
			drift = true
		}
	}
	if !jitter {
		t.Fatalf("expected JitterExceeded, got %v", findings)
	}
	if !drift {
		t.Fatalf("expected ScheduleDrift alongside jitter for this deviation, got %v", findings)
	}
}

func TestAnalyzer_MissedSlot(t *testing.T) {
	a := New(oneSlotTable(0x01, 0.010), Config{})
	arrivals := map[model.FrameID][]model.Timestamp{
		0x01: {0.000, 0.010, 0.040}, // gap of 0.030s >= 1.5*0.010
	}
	findings := a.MissedSlots(arrivals, 0.040)
	if len(findings) != 1 || findings[0].Kind != model.FindingMissedSlot {
		t.Fatalf("expected one MissedSlot finding, got %v", findings)
	}
}

func TestAnalyzer_Statistics(t *testing.T) {
	a := New(oneSlotTable(0x01, 0.010), Config{})
	for i := 0; i < 5; i++ {
		a.Observe(0x01, model.Timestamp(float64(i)*0.010), "LIN0", uint64(i))
	}
	stats := a.Statistics()
	if len(stats) != 1 {
		t.Fatalf("expected stats for one frame id, got %v", stats)
	}
	s := stats[0]
	if s.Count != 5 {
		t.Fatalf("expected count 5, got %d", s.Count)
	}
	if s.MeanPeriod < 0.0099 || s.MeanPeriod > 0.0101 {
		t.Fatalf("expected mean period ~0.010, got %v", s.MeanPeriod)
	}
}
