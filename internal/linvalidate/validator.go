// Package linvalidate implements C3, the LIN frame validator: PID parity,
// spec lookup, length/checksum verification, and the physical-layer state
// machine over header sub-timing when the log carries it.
package linvalidate

import (
	"github.com/linspector/linspector/internal/bitops"
	"github.com/linspector/linspector/internal/model"
)

// Config carries the tolerances the validator needs (spec.md §6).
type Config struct {
	BitRateHz         float64
	BitRateTolerance  float64 // fractional, default 0.005
}

// Validator checks LinFrame events against an LdfDescription, per spec.md
// §4.3. It is stateless except for the physical-layer state machine, which
// it keeps per channel.
type Validator struct {
	ldf   *model.LdfDescription
	cfg   Config
	phys  map[model.Channel]*physState
}

// New creates a Validator bound to ldf and cfg.
func New(ldf *model.LdfDescription, cfg Config) *Validator {
	return &Validator{ldf: ldf, cfg: cfg, phys: make(map[model.Channel]*physState)}
}

// Validate runs every applicable check on f and returns the findings it
// raised, in the order spec.md §4.3 lists them.
func (v *Validator) Validate(f model.LinFrame) []model.Finding {
	var findings []model.Finding

	id := f.UnprotectedID()
	if ok, expected := bitops.CheckPID(f.PIDByte); !ok {
		findings = append(findings, model.Finding{
			Kind:       model.FindingPidParityError,
			Timestamp:  f.Timestamp,
			Channel:    f.Channel,
			Sequence:   f.Sequence,
			Identifier: idString(id),
			Expected:   float64(expected),
			Observed:   float64(f.PIDByte),
		})
		// Proceed using the unprotected id regardless (spec.md §4.3 step 1).
	}

	spec, known := v.ldf.Frames[model.FrameID(id)]
	if !known {
		findings = append(findings, model.Finding{
			Kind:       model.FindingUnknownFrameId,
			Timestamp:  f.Timestamp,
			Channel:    f.Channel,
			Sequence:   f.Sequence,
			Identifier: idString(id),
		})
		findings = append(findings, v.runPhysical(f)...)
		return findings
	}

	if int(f.DLC) != spec.Length {
		findings = append(findings, model.Finding{
			Kind:       model.FindingLengthMismatch,
			Timestamp:  f.Timestamp,
			Channel:    f.Channel,
			Sequence:   f.Sequence,
			Identifier: idString(id),
			Expected:   float64(spec.Length),
			Observed:   float64(f.DLC),
		})
		findings = append(findings, v.runPhysical(f)...)
		return findings
	}

	kind := bitops.EffectiveChecksumKind(id, bitops.ChecksumKind(spec.ChecksumKind))
	expected := bitops.Checksum(kind, f.PIDByte, f.Payload[:f.DLC])
	if expected != f.ChecksumByte {
		findings = append(findings, model.Finding{
			Kind:       model.FindingChecksumError,
			Timestamp:  f.Timestamp,
			Channel:    f.Channel,
			Sequence:   f.Sequence,
			Identifier: idString(id),
			Expected:   float64(expected),
			Observed:   float64(f.ChecksumByte),
		})
	}

	findings = append(findings, v.runPhysical(f)...)
	return findings
}

func idString(id uint8) string {
	const hexDigits = "0123456789ABCDEF"
	return "0x" + string([]byte{hexDigits[(id>>4)&0xF], hexDigits[id&0xF]})
}
