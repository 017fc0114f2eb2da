package canvalidate

import (
	"testing"

	"github.com/linspector/linspector/internal/model"
)

func TestValidate_Classic_DLCWithinRange(t *testing.T) {
	for dlc := 0; dlc <= 8; dlc++ {
		f := model.CanFrame{IsFD: false, DLC: uint8(dlc)}
		if got := Validate(f); len(got) != 0 {
			t.Fatalf("dlc=%d: expected no findings, got %v", dlc, got)
		}
	}
}

func TestValidate_Classic_DLCTooLong(t *testing.T) {
	f := model.CanFrame{IsFD: false, DLC: 9, IDWidth: model.IDWidth11}
	got := Validate(f)
	if len(got) != 1 || got[0].Kind != model.FindingIllegalDlc {
		t.Fatalf("expected IllegalDlc, got %v", got)
	}
}

func TestValidate_FD_LegalLengths(t *testing.T) {
	for _, n := range model.FDLengths {
		f := model.CanFrame{IsFD: true, DLC: uint8(n)}
		if got := Validate(f); len(got) != 0 {
			t.Fatalf("len=%d: expected no findings, got %v", n, got)
		}
	}
}

func TestValidate_FD_IllegalLength(t *testing.T) {
	// spec.md S4: 29-bit FD frame, payload length 9 -> IllegalDlc.
	f := model.CanFrame{IsFD: true, DLC: 9, IDWidth: model.IDWidth29}
	got := Validate(f)
	if len(got) != 1 || got[0].Kind != model.FindingIllegalDlc {
		t.Fatalf("expected IllegalDlc, got %v", got)
	}
}

func TestValidate_BoundaryLengths(t *testing.T) {
	// spec.md §8 boundary case 8: length 0 and the kind's max both validate.
	if got := Validate(model.CanFrame{IsFD: false, DLC: 0}); len(got) != 0 {
		t.Fatalf("dlc=0 classic: expected no findings, got %v", got)
	}
	if got := Validate(model.CanFrame{IsFD: false, DLC: 8}); len(got) != 0 {
		t.Fatalf("dlc=8 classic: expected no findings, got %v", got)
	}
	if got := Validate(model.CanFrame{IsFD: true, DLC: 64}); len(got) != 0 {
		t.Fatalf("dlc=64 fd: expected no findings, got %v", got)
	}
}
