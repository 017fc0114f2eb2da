package scenario

import (
	"strings"
	"testing"

	"github.com/linspector/linspector/internal/model"
)

const sampleDoc = `{
  "ldf": {
    "bit_rate_hz": 19200,
    "frames": [
      {"id": 1, "length": 8, "checksum_kind": "classic", "publisher": "master", "subscribers": ["slave1"],
       "signals": [{"name": "EngineSpeed", "start_bit": 0, "length_bits": 16, "byte_order": "intel", "factor": 0.25, "min": 0, "max": 8000}]}
    ],
    "schedule": [{"frame_id": 1, "period_s": 0.01, "delay_s": 0}]
  },
  "dbc": {
    "messages": [
      {"id": 256, "id_width": 11, "length": 8,
       "signals": [{"name": "EngineSpeedCan", "start_bit": 0, "length_bits": 16, "byte_order": "motorola", "factor": 0.25}]}
    ]
  },
  "gateway": {
    "rules": [{"direction": "lin_to_can", "lin_frame_id": 1, "lin_signal": "EngineSpeed", "can_id": 256, "can_id_width": 11, "can_signal": "EngineSpeedCan", "max_latency_s": 0.01}]
  },
  "log": [
    {"kind": "lin", "ts": 0.0, "channel": "LIN1", "direction": "rx", "pid_byte": 193, "dlc": 8, "payload": [0,0,0,0,0,0,0,0], "checksum_byte": 0},
    {"kind": "can", "ts": 0.001, "channel": "CAN0", "direction": "rx", "id": 256, "id_width": 11, "dlc": 8, "payload": [0,0,0,0,0,0,0,0]}
  ]
}`

func TestLoadAndBuild(t *testing.T) {
	sc, err := Load(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ldf := sc.BuildLdf()
	if ldf.BitRateHz != 19200 {
		t.Fatalf("bit rate = %v", ldf.BitRateHz)
	}
	spec, ok := ldf.Frames[model.FrameID(1)]
	if !ok || spec.Length != 8 || len(spec.Signals) != 1 {
		t.Fatalf("frame 1 spec = %+v ok=%v", spec, ok)
	}
	if len(ldf.Schedule.Slots) != 1 || ldf.Schedule.Slots[0].Period != 0.01 {
		t.Fatalf("schedule = %+v", ldf.Schedule)
	}

	dbc := sc.BuildDbc()
	msg, ok := dbc.Messages[model.MessageKey{ID: 256, IDWidth: model.IDWidth11}]
	if !ok || msg.Length != 8 {
		t.Fatalf("dbc message = %+v ok=%v", msg, ok)
	}

	gw := sc.BuildGateway()
	if len(gw.Rules) != 1 || gw.Rules[0].CanID != 256 {
		t.Fatalf("gateway rules = %+v", gw.Rules)
	}

	entries, err := sc.BuildLog()
	if err != nil {
		t.Fatalf("BuildLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Kind != model.KindLin || entries[1].Kind != model.KindCan {
		t.Fatalf("unexpected entry kinds: %+v", entries)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	bad := `{"ldf": {}, "dbc": {}, "gateway": {}, "log": [], "bogus": 1}`
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestBuildLogRejectsUnknownKind(t *testing.T) {
	sc := &Scenario{Log: []EntryJSON{{Kind: "weird"}}}
	if _, err := sc.BuildLog(); err == nil {
		t.Fatalf("expected error for unknown log entry kind")
	}
}
