package linvalidate

import "github.com/linspector/linspector/internal/model"

// physPhase is the per-channel physical-layer state machine spec.md §4.3/§4.8
// describes: LookingForBreak -> LookingForSync -> LookingForPid -> Payload,
// resetting to LookingForBreak on any violation.
type physPhase uint8

const (
	phaseLookingForBreak physPhase = iota
	phaseLookingForSync
	phaseLookingForPid
	phasePayload
)

type physState struct {
	phase physPhase
}

const (
	defaultBitRateTolerance = 0.005
	nominalBreakBits        = 13
	nominalDelimiterBits    = 1
)

// runPhysical evaluates the header-timing checks in spec.md §4.3 step 5 when
// f carries sub-frame timing, advancing and resetting v's per-channel state
// machine as it goes.
func (v *Validator) runPhysical(f model.LinFrame) []model.Finding {
	if !f.HasSubTiming {
		return nil
	}
	st, ok := v.phys[f.Channel]
	if !ok {
		st = &physState{phase: phaseLookingForBreak}
		v.phys[f.Channel] = st
	}

	var findings []model.Finding
	bitTime := 1.0 / v.bitRateHz()
	tol := v.cfg.BitRateTolerance
	if tol <= 0 {
		tol = defaultBitRateTolerance
	}

	st.phase = phaseLookingForBreak
	minBreak := nominalBreakBits * bitTime
	if f.BreakDuration < minBreak {
		findings = append(findings, model.Finding{
			Kind:      model.FindingBreakTooShort,
			Timestamp: f.Timestamp,
			Channel:   f.Channel,
			Sequence:  f.Sequence,
			Expected:  minBreak,
			Observed:  f.BreakDuration,
		})
		st.phase = phaseLookingForBreak
		return findings
	}
	st.phase = phaseLookingForSync

	if f.SyncByte != 0x55 {
		findings = append(findings, model.Finding{
			Kind:      model.FindingSyncByteWrong,
			Timestamp: f.Timestamp,
			Channel:   f.Channel,
			Sequence:  f.Sequence,
			Expected:  0x55,
			Observed:  float64(f.SyncByte),
		})
		st.phase = phaseLookingForBreak
		return findings
	}
	st.phase = phaseLookingForPid

	minDelim := nominalDelimiterBits * bitTime
	if f.BreakDelim < minDelim {
		findings = append(findings, model.Finding{
			Kind:      model.FindingBreakDelimiterShort,
			Timestamp: f.Timestamp,
			Channel:   f.Channel,
			Sequence:  f.Sequence,
			Expected:  minDelim,
			Observed:  f.BreakDelim,
		})
		st.phase = phaseLookingForBreak
		return findings
	}
	st.phase = phasePayload

	if f.BitInterval > 0 {
		deviation := (f.BitInterval - bitTime) / bitTime
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > tol {
			findings = append(findings, model.Finding{
				Kind:      model.FindingBitRateOutOfTolerance,
				Timestamp: f.Timestamp,
				Channel:   f.Channel,
				Sequence:  f.Sequence,
				Expected:  1.0 / bitTime,
				Observed:  1.0 / f.BitInterval,
				Detail:    "measured header bit rate outside configured tolerance",
			})
			st.phase = phaseLookingForBreak
			return findings
		}
	}

	return findings
}

func (v *Validator) bitRateHz() float64 {
	if v.cfg.BitRateHz > 0 {
		return v.cfg.BitRateHz
	}
	if v.ldf != nil && v.ldf.BitRateHz > 0 {
		return v.ldf.BitRateHz
	}
	return 19200
}
