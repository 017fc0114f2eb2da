package canvalidate

import (
	"testing"

	"github.com/linspector/linspector/internal/model"
)

func TestBusLoadSeries_Empty(t *testing.T) {
	if got := BusLoadSeries(nil, BusLoadConfig{}); got != nil {
		t.Fatalf("expected nil series for no frames, got %v", got)
	}
}

func TestBusLoadSeries_ProducesRatiosInPlausibleRange(t *testing.T) {
	var frames []model.CanFrame
	for i := 0; i < 50; i++ {
		frames = append(frames, model.CanFrame{
			Timestamp: model.Timestamp(float64(i) * 0.001),
			Channel:   "CAN0",
			IDWidth:   model.IDWidth11,
			DLC:       8,
		})
	}
	series := BusLoadSeries(frames, BusLoadConfig{WindowSize: 0.010, BitRateHz: 500_000})
	if len(series) == 0 {
		t.Fatal("expected a non-empty series")
	}
	for _, p := range series {
		if p.LoadRatio < 0 {
			t.Fatalf("negative load ratio: %v", p)
		}
	}
}

func TestBusLoadSeries_FDWithBRS_SplitsPhases(t *testing.T) {
	frames := []model.CanFrame{
		{Timestamp: 0, Channel: "CAN0", IDWidth: model.IDWidth11, IsFD: true, BRS: true, DLC: 64},
	}
	withBRS := BusLoadSeries(frames, BusLoadConfig{WindowSize: 0.010, BitRateHz: 500_000, FDBitRateHz: 2_000_000})
	frames[0].BRS = false
	withoutBRS := BusLoadSeries(frames, BusLoadConfig{WindowSize: 0.010, BitRateHz: 500_000, FDBitRateHz: 2_000_000})
	if withBRS[0].LoadRatio >= withoutBRS[0].LoadRatio {
		t.Fatalf("expected BRS (faster data phase) to show lower load than non-BRS: brs=%v noBrs=%v",
			withBRS[0].LoadRatio, withoutBRS[0].LoadRatio)
	}
}
