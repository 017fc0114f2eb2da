// Package scenario loads the CLI's JSON scenario documents into the core's
// LdfDescription/DbcDatabase/GatewayMap/LogEntry types. Per spec.md §6 the
// textual LDF/DBC grammars and the log line grammar are external-collaborator
// concerns the core never parses; this package plays that collaborator role
// with the simplest format that satisfies the three interface contracts,
// rather than reimplementing either grammar.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/linspector/linspector/internal/model"
)

// Scenario is the root JSON document cmd/linspector reads: descriptions plus
// the trace to analyze, all inlined so a single file is a complete,
// self-contained test case.
type Scenario struct {
	Ldf     LdfJSON     `json:"ldf"`
	Dbc     DbcJSON     `json:"dbc"`
	Gateway GatewayJSON `json:"gateway"`
	Log     []EntryJSON `json:"log"`
}

type SignalJSON struct {
	Name     string  `json:"name"`
	StartBit int     `json:"start_bit"`
	Length   int     `json:"length_bits"`
	Order    string  `json:"byte_order"` // "intel" | "motorola"
	Signed   bool    `json:"signed"`
	Factor   float64 `json:"factor"`
	Offset   float64 `json:"offset"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Unit     string  `json:"unit"`
	MuxKind  string  `json:"mux_kind,omitempty"` // "", "multiplexor", "multiplexed"
	MuxGroup int64   `json:"mux_group,omitempty"`
}

type LinFrameJSON struct {
	ID          int        `json:"id"`
	Length      int        `json:"length"`
	Checksum    string     `json:"checksum_kind"` // "classic" | "enhanced"
	Publisher   string     `json:"publisher"`
	Subscribers []string   `json:"subscribers"`
	Signals     []SignalJSON `json:"signals"`
}

type ScheduleSlotJSON struct {
	FrameID int     `json:"frame_id"`
	Period  float64 `json:"period_s"`
	Delay   float64 `json:"delay_s"`
}

type LdfJSON struct {
	BitRateHz float64            `json:"bit_rate_hz"`
	Frames    []LinFrameJSON     `json:"frames"`
	Schedule  []ScheduleSlotJSON `json:"schedule"`
}

type CanMessageJSON struct {
	ID      uint32       `json:"id"`
	IDWidth int          `json:"id_width"` // 11 | 29
	Length  int          `json:"length"`
	IsFD    bool         `json:"is_fd"`
	Signals []SignalJSON `json:"signals"`
}

type DbcJSON struct {
	Messages []CanMessageJSON `json:"messages"`
}

type MapRuleJSON struct {
	Direction  string  `json:"direction"` // "lin_to_can" | "can_to_lin"
	LinFrameID int     `json:"lin_frame_id"`
	LinSignal  string  `json:"lin_signal"`
	CanID      uint32  `json:"can_id"`
	CanIDWidth int     `json:"can_id_width"`
	CanSignal  string  `json:"can_signal"`
	Transform  string  `json:"transform_kind,omitempty"` // "", "linear", "enum"
	A          float64 `json:"a,omitempty"`
	B          float64 `json:"b,omitempty"`
	Table      map[string]float64 `json:"table,omitempty"`
	MaxLatency float64 `json:"max_latency_s,omitempty"`
}

type GatewayJSON struct {
	Rules []MapRuleJSON `json:"rules"`
}

// EntryJSON is one log line already split into fields by the (external)
// trace-format collaborator; it distinguishes LIN from CAN via Kind.
type EntryJSON struct {
	Kind      string  `json:"kind"` // "lin" | "can"
	Timestamp float64 `json:"ts"`
	Channel   string  `json:"channel"`
	Direction string  `json:"direction,omitempty"` // "rx" | "tx"

	// LIN fields
	PIDByte      *uint8  `json:"pid_byte,omitempty"`
	DLC          *uint8  `json:"dlc,omitempty"`
	Payload      []byte  `json:"payload,omitempty"`
	ChecksumByte *uint8  `json:"checksum_byte,omitempty"`

	// CAN fields
	ID      *uint32 `json:"id,omitempty"`
	IDWidth int     `json:"id_width,omitempty"`
	IsFD    bool    `json:"is_fd,omitempty"`
	BRS     bool    `json:"brs,omitempty"`
}

// Load decodes a Scenario document from r.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

func byteOrder(s string) model.ByteOrder {
	if s == "motorola" {
		return model.Motorola
	}
	return model.Intel
}

func checksumKind(s string) model.ChecksumKind {
	if s == "enhanced" {
		return model.ChecksumEnhanced
	}
	return model.ChecksumClassic
}

func muxRole(kind string, group int64) model.MuxRole {
	switch kind {
	case "multiplexor":
		return model.MuxRole{Kind: model.MuxMultiplexor}
	case "multiplexed":
		return model.MuxRole{Kind: model.MuxMultiplexed, GroupID: group}
	default:
		return model.MuxRole{Kind: model.MuxNone}
	}
}

// appendSignals appends js as new entries in arena, returning their
// assigned SignalIDs.
func appendSignals(arena *[]model.Signal, js []SignalJSON) []model.SignalID {
	ids := make([]model.SignalID, 0, len(js))
	for _, s := range js {
		id := model.SignalID(len(*arena))
		*arena = append(*arena, model.Signal{
			Name:     s.Name,
			StartBit: s.StartBit,
			Length:   s.Length,
			Order:    byteOrder(s.Order),
			Signed:   s.Signed,
			Factor:   s.Factor,
			Offset:   s.Offset,
			Min:      s.Min,
			Max:      s.Max,
			Unit:     s.Unit,
			Mux:      muxRole(s.MuxKind, s.MuxGroup),
		})
		ids = append(ids, id)
	}
	return ids
}

// BuildLdf converts the JSON form to model.LdfDescription, growing a fresh
// signal arena.
func (s *Scenario) BuildLdf() model.LdfDescription {
	var arena []model.Signal
	frames := make(map[model.FrameID]model.LinFrameSpec, len(s.Ldf.Frames))
	for _, f := range s.Ldf.Frames {
		sigIDs := appendSignals(&arena, f.Signals)
		frames[model.FrameID(f.ID)] = model.LinFrameSpec{
			ID:           model.FrameID(f.ID),
			Length:       f.Length,
			ChecksumKind: checksumKind(f.Checksum),
			Publisher:    f.Publisher,
			Subscribers:  f.Subscribers,
			Signals:      sigIDs,
		}
	}
	slots := make([]model.ScheduleSlot, 0, len(s.Ldf.Schedule))
	for _, sl := range s.Ldf.Schedule {
		slots = append(slots, model.ScheduleSlot{
			FrameID: model.FrameID(sl.FrameID),
			Period:  sl.Period,
			Delay:   sl.Delay,
		})
	}
	return model.LdfDescription{
		Frames:    frames,
		Signals:   arena,
		Schedule:  model.ScheduleTable{Slots: slots},
		BitRateHz: s.Ldf.BitRateHz,
	}
}

// BuildDbc converts the JSON form to model.DbcDatabase.
func (s *Scenario) BuildDbc() model.DbcDatabase {
	var arena []model.Signal
	messages := make(map[model.MessageKey]model.CanMessage, len(s.Dbc.Messages))
	for _, m := range s.Dbc.Messages {
		sigIDs := appendSignals(&arena, m.Signals)
		width := model.IDWidth11
		if m.IDWidth == 29 {
			width = model.IDWidth29
		}
		key := model.MessageKey{ID: m.ID, IDWidth: width}
		messages[key] = model.CanMessage{
			Key:     key,
			Length:  m.Length,
			IsFD:    m.IsFD,
			Signals: sigIDs,
		}
	}
	return model.DbcDatabase{Messages: messages, Signals: arena}
}

func transformKind(s string) model.TransformKind {
	switch s {
	case "linear":
		return model.TransformLinear
	case "enum":
		return model.TransformEnum
	default:
		return model.TransformIdentity
	}
}

// BuildGateway converts the JSON form to model.GatewayMap.
func (s *Scenario) BuildGateway() model.GatewayMap {
	rules := make([]model.MapRule, 0, len(s.Gateway.Rules))
	for _, r := range s.Gateway.Rules {
		dir := model.LinToCan
		if r.Direction == "can_to_lin" {
			dir = model.CanToLin
		}
		width := model.IDWidth11
		if r.CanIDWidth == 29 {
			width = model.IDWidth29
		}
		var table map[int64]float64
		if len(r.Table) > 0 {
			table = make(map[int64]float64, len(r.Table))
			for k, v := range r.Table {
				var key int64
				_, _ = fmt.Sscanf(k, "%d", &key)
				table[key] = v
			}
		}
		rules = append(rules, model.MapRule{
			Direction:  dir,
			LinFrameID: model.FrameID(r.LinFrameID),
			LinSignal:  r.LinSignal,
			CanID:      r.CanID,
			CanIDWidth: width,
			CanSignal:  r.CanSignal,
			Transform: model.Transform{
				Kind:  transformKind(r.Transform),
				A:     r.A,
				B:     r.B,
				Table: table,
			},
			MaxLatency: r.MaxLatency,
		})
	}
	return model.GatewayMap{Rules: rules}
}

func direction(s string) model.Direction {
	switch s {
	case "rx":
		return model.DirRx
	case "tx":
		return model.DirTx
	default:
		return model.DirUnknown
	}
}

// BuildLog converts the JSON log entries to model.LogEntry values in
// document order (arrival order).
func (s *Scenario) BuildLog() ([]model.LogEntry, error) {
	out := make([]model.LogEntry, 0, len(s.Log))
	for i, e := range s.Log {
		switch e.Kind {
		case "lin":
			var payload [8]byte
			copy(payload[:], e.Payload)
			var pid, dlc, chk uint8
			if e.PIDByte != nil {
				pid = *e.PIDByte
			}
			if e.DLC != nil {
				dlc = *e.DLC
			}
			if e.ChecksumByte != nil {
				chk = *e.ChecksumByte
			}
			out = append(out, model.LogEntry{
				Kind: model.KindLin,
				Lin: model.LinFrame{
					Timestamp:    model.Timestamp(e.Timestamp),
					Channel:      model.Channel(e.Channel),
					PIDByte:      pid,
					DLC:          dlc,
					Payload:      payload,
					ChecksumByte: chk,
					Direction:    direction(e.Direction),
				},
			})
		case "can":
			var payload [64]byte
			copy(payload[:], e.Payload)
			var id uint32
			if e.ID != nil {
				id = *e.ID
			}
			width := model.IDWidth11
			if e.IDWidth == 29 {
				width = model.IDWidth29
			}
			var dlc uint8
			if e.DLC != nil {
				dlc = *e.DLC
			}
			out = append(out, model.LogEntry{
				Kind: model.KindCan,
				Can: model.CanFrame{
					Timestamp: model.Timestamp(e.Timestamp),
					Channel:   model.Channel(e.Channel),
					ID:        id,
					IDWidth:   width,
					IsFD:      e.IsFD,
					BRS:       e.BRS,
					DLC:       dlc,
					Payload:   payload,
					Direction: direction(e.Direction),
				},
			})
		default:
			return nil, fmt.Errorf("log entry %d: unknown kind %q", i, e.Kind)
		}
	}
	return out, nil
}
