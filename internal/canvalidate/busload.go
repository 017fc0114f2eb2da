package canvalidate

import (
	"github.com/linspector/linspector/internal/bitops"
	"github.com/linspector/linspector/internal/model"
)

// interFrameSpaceBits is the fixed 3-bit inter-frame space spec.md §4.4
// requires counting per frame.
const interFrameSpaceBits = 3

// BusLoadConfig parameterizes the sliding-window estimator (spec.md §4.4,
// §6).
type BusLoadConfig struct {
	WindowSize float64 // seconds, default 0.100
	BitRateHz  float64 // nominal arbitration-phase bit rate
	FDBitRateHz float64 // data-phase bit rate when BRS is set; 0 means same as BitRateHz
}

func (c BusLoadConfig) resolved() BusLoadConfig {
	if c.WindowSize <= 0 {
		c.WindowSize = 0.100
	}
	if c.BitRateHz <= 0 {
		c.BitRateHz = 500_000
	}
	if c.FDBitRateHz <= 0 {
		c.FDBitRateHz = c.BitRateHz
	}
	return c
}

// frameBits estimates the on-wire bit length of one frame, splitting
// arbitration-phase and (for BRS) data-phase bits across their respective
// rates per SPEC_FULL.md's resolution of the BRS bus-load Open Question:
// it returns (bitsAtNominalRate, bitsAtFDRate).
func frameBits(f model.CanFrame) (nominalBits, fdBits float64) {
	kind := bitops.FrameClassic
	if f.IsFD {
		kind = bitops.FrameFD
	}
	total := bitops.EstimatedStuffedBits(kind, int(f.IDWidth), int(f.DLC)*8) + interFrameSpaceBits
	if !f.IsFD || !f.BRS {
		return float64(total), 0
	}
	// Arbitration overhead (roughly the non-payload half) stays at the
	// nominal rate; the payload-bearing, stuffed portion runs at the FD
	// data rate once BRS switches.
	overhead := bitops.EstimatedStuffedBits(kind, int(f.IDWidth), 0) + interFrameSpaceBits
	dataPortion := float64(total - overhead)
	if dataPortion < 0 {
		dataPortion = 0
	}
	return float64(overhead), dataPortion
}

// BusLoadSeries computes the windowed bus-load series from frames (assumed
// time-sorted and from a single channel; every point carries frames[0]'s
// channel), per spec.md §4.4: windows of cfg.WindowSize stepped by
// WindowSize/4.
func BusLoadSeries(frames []model.CanFrame, cfg BusLoadConfig) []model.BusLoadPoint {
	if len(frames) == 0 {
		return nil
	}
	cfg = cfg.resolved()
	start := float64(frames[0].Timestamp)
	end := float64(frames[len(frames)-1].Timestamp)
	step := cfg.WindowSize / 4

	var out []model.BusLoadPoint
	for ws := start; ws <= end; ws += step {
		we := ws + cfg.WindowSize
		var nominalBitSum, fdBitSum float64
		for _, f := range frames {
			ts := float64(f.Timestamp)
			if ts < ws || ts >= we {
				continue
			}
			n, d := frameBits(f)
			nominalBitSum += n
			fdBitSum += d
		}
		seconds := nominalBitSum/cfg.BitRateHz + fdBitSum/cfg.FDBitRateHz
		ratio := seconds / cfg.WindowSize
		out = append(out, model.BusLoadPoint{
			WindowStart: model.Timestamp(ws),
			Channel:     frames[0].Channel,
			LoadRatio:   ratio,
		})
	}
	return out
}
