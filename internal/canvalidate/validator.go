// Package canvalidate implements C4, the CAN/CAN-FD frame validator: DLC
// legality per frame kind and the sliding-window bus-load estimator.
package canvalidate

import "github.com/linspector/linspector/internal/model"

// Validate checks f's DLC against the legal set for its kind (spec.md §3
// invariant 3, §4.4) and returns the findings raised.
func Validate(f model.CanFrame) []model.Finding {
	var findings []model.Finding
	if !f.IsFD {
		if f.DLC > 8 {
			findings = append(findings, model.Finding{
				Kind:       model.FindingIllegalDlc,
				Timestamp:  f.Timestamp,
				Channel:    f.Channel,
				Sequence:   f.Sequence,
				Identifier: canIDString(f.ID, f.IDWidth),
				Expected:   8,
				Observed:   float64(f.DLC),
			})
		}
		return findings
	}
	if !model.IsLegalFDLength(int(f.DLC)) {
		findings = append(findings, model.Finding{
			Kind:       model.FindingIllegalDlc,
			Timestamp:  f.Timestamp,
			Channel:    f.Channel,
			Sequence:   f.Sequence,
			Identifier: canIDString(f.ID, f.IDWidth),
			Observed:   float64(f.DLC),
			Detail:     "not a member of the CAN FD length set {12,16,20,24,32,48,64}",
		})
	}
	return findings
}

func canIDString(id uint32, width model.IDWidth) string {
	const hexDigits = "0123456789ABCDEF"
	digits := 3
	if width == model.IDWidth29 {
		digits = 8
	}
	out := make([]byte, digits+2)
	out[0], out[1] = '0', 'x'
	for i := 0; i < digits; i++ {
		shift := uint(4 * (digits - 1 - i))
		out[2+i] = hexDigits[(id>>shift)&0xF]
	}
	return string(out)
}
