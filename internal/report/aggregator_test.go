package report

import (
	"testing"

	"github.com/linspector/linspector/internal/model"
)

func TestAggregator_SortsByTimestampKindSequence(t *testing.T) {
	a := New()
	a.AddFindings(
		model.Finding{Kind: model.FindingChecksumError, Timestamp: 2.0, Sequence: 0},
		model.Finding{Kind: model.FindingChecksumError, Timestamp: 1.0, Sequence: 1},
		model.Finding{Kind: model.FindingPidParityError, Timestamp: 1.0, Sequence: 0},
	)
	report := a.Finalize()
	got := report.FrameFindings
	if len(got) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(got))
	}
	// Equal timestamps order by kind name: "ChecksumError" < "PidParityError".
	if got[0].Timestamp != 1.0 || got[0].Kind != model.FindingChecksumError {
		t.Fatalf("expected ChecksumError at ts=1.0 first, got %+v", got[0])
	}
	if got[1].Timestamp != 1.0 || got[1].Kind != model.FindingPidParityError {
		t.Fatalf("expected PidParityError at ts=1.0 second, got %+v", got[1])
	}
	if got[2].Timestamp != 2.0 {
		t.Fatalf("expected ts=2.0 last, got %+v", got[2])
	}
}

func TestAggregator_FindingsRouteToCategories(t *testing.T) {
	a := New()
	a.AddFindings(
		model.Finding{Kind: model.FindingChecksumError},
		model.Finding{Kind: model.FindingNonMonotonicTimestamp},
		model.Finding{Kind: model.FindingBreakTooShort},
		model.Finding{Kind: model.FindingScheduleDrift},
		model.Finding{Kind: model.FindingGatewayValueMismatch},
	)
	r := a.Finalize()
	if len(r.FrameFindings) != 1 || len(r.TimingFindings) != 1 || len(r.PhysicalFindings) != 1 ||
		len(r.ScheduleFindings) != 1 || len(r.GatewayFindings) != 1 {
		t.Fatalf("miscategorized findings: %+v", r)
	}
}

func TestAggregator_ErrorCountByKindDerivedLast(t *testing.T) {
	a := New()
	a.AddFindings(
		model.Finding{Kind: model.FindingChecksumError},
		model.Finding{Kind: model.FindingChecksumError},
		model.Finding{Kind: model.FindingPidParityError},
	)
	r := a.Finalize()
	if r.ErrorCountByKind[model.FindingChecksumError] != 2 {
		t.Fatalf("expected 2 ChecksumError, got %d", r.ErrorCountByKind[model.FindingChecksumError])
	}
	if r.ErrorCountByKind[model.FindingPidParityError] != 1 {
		t.Fatalf("expected 1 PidParityError, got %d", r.ErrorCountByKind[model.FindingPidParityError])
	}
}

func TestAggregator_FinalizeIsIdempotent(t *testing.T) {
	a := New()
	a.AddFindings(model.Finding{Kind: model.FindingChecksumError, Timestamp: 1})
	first := a.Finalize()
	second := a.Finalize()
	if len(first.FrameFindings) != len(second.FrameFindings) {
		t.Fatalf("finalize must be stable across calls")
	}
}

func TestAggregator_Merge(t *testing.T) {
	a := New()
	a.CountLinFrame()
	a.AddFindings(model.Finding{Kind: model.FindingChecksumError, Timestamp: 1})

	b := New()
	b.CountLinFrame()
	b.AddFindings(model.Finding{Kind: model.FindingPidParityError, Timestamp: 2})

	a.Merge(b)
	r := a.Finalize()
	if r.TotalFramesLin != 2 {
		t.Fatalf("expected merged TotalFramesLin=2, got %d", r.TotalFramesLin)
	}
	if len(r.FrameFindings) != 2 {
		t.Fatalf("expected merged findings, got %+v", r.FrameFindings)
	}
}

func TestAggregator_TruncatedFlag(t *testing.T) {
	a := New()
	a.MarkTruncated()
	r := a.Finalize()
	if !r.Truncated {
		t.Fatalf("expected Truncated=true")
	}
}
