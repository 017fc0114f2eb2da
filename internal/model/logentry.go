package model

// Direction distinguishes a frame observed as transmitted by the analyzed
// node versus received from it.
type Direction uint8

const (
	DirUnknown Direction = iota
	DirRx
	DirTx
)

func (d Direction) String() string {
	switch d {
	case DirRx:
		return "rx"
	case DirTx:
		return "tx"
	default:
		return "unknown"
	}
}

// IDWidth is the CAN identifier width in bits.
type IDWidth uint8

const (
	IDWidth11 IDWidth = 11
	IDWidth29 IDWidth = 29
)

// LinFrame is a single observed LIN bus event: a header (PID byte) plus the
// data bytes and checksum byte that followed it on the wire. Sequence is a
// stable, per-channel arrival counter used to break timestamp ties
// deterministically.
type LinFrame struct {
	Timestamp     Timestamp
	Channel       Channel
	Sequence      uint64
	PIDByte       uint8
	DLC           uint8
	Payload       [8]byte
	ChecksumByte  uint8
	Direction     Direction
	HasSubTiming  bool
	BreakDuration float64 // seconds; only valid if HasSubTiming
	SyncByte      uint8   // only valid if HasSubTiming
	BreakDelim    float64 // seconds; only valid if HasSubTiming
	BitInterval   float64 // measured seconds/bit over the header; only valid if HasSubTiming
}

// UnprotectedID extracts the 6-bit unprotected frame identifier from PIDByte.
func (f LinFrame) UnprotectedID() uint8 { return f.PIDByte & 0x3F }

// CanFrame is a single observed CAN/CAN-FD bus event.
type CanFrame struct {
	Timestamp Timestamp
	Channel   Channel
	Sequence  uint64
	ID        uint32
	IDWidth   IDWidth
	IsFD      bool
	BRS       bool
	DLC       uint8 // on-wire DLC code's decoded byte length
	Payload   [64]byte
	Direction Direction
}

// LogEntryKind distinguishes the two LogEntry variants without resorting to
// an empty interface at call sites that only care about the kind.
type LogEntryKind uint8

const (
	KindLin LogEntryKind = iota
	KindCan
)

// LogEntry is a closed variant over LinFrame and CanFrame, as normalized by
// the log normalizer (C2) from whatever external parser produced the raw
// trace. Exactly one of Lin/Can is populated, selected by Kind.
type LogEntry struct {
	Kind LogEntryKind
	Lin  LinFrame
	Can  CanFrame
}

// Ts returns the entry's timestamp regardless of variant.
func (e LogEntry) Ts() Timestamp {
	if e.Kind == KindLin {
		return e.Lin.Timestamp
	}
	return e.Can.Timestamp
}

// Chan returns the entry's channel regardless of variant.
func (e LogEntry) Chan() Channel {
	if e.Kind == KindLin {
		return e.Lin.Channel
	}
	return e.Can.Channel
}

// Seq returns the entry's per-channel sequence number regardless of variant.
func (e LogEntry) Seq() uint64 {
	if e.Kind == KindLin {
		return e.Lin.Sequence
	}
	return e.Can.Sequence
}
