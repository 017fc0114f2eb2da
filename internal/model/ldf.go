package model

// ChecksumKind selects the LIN checksum algorithm a frame uses.
type ChecksumKind uint8

const (
	ChecksumClassic ChecksumKind = iota
	ChecksumEnhanced
)

// ByteOrder is the DBC/LDF signal packing convention.
type ByteOrder uint8

const (
	Intel     ByteOrder = iota // little-endian, LSB=0 within byte
	Motorola                   // big-endian, DBC convention
)

// MuxRoleKind tags whether a signal is an ordinary signal, the multiplexor
// selector, or a signal gated by a multiplexor group value. This is the
// closed-variant replacement for the "sentinel mux id" approach spec.md §9
// flags as something to re-architect.
type MuxRoleKind uint8

const (
	MuxNone MuxRoleKind = iota
	MuxMultiplexor
	MuxMultiplexed
)

// MuxRole is a closed alternative: None/Multiplexor carry no extra data,
// Multiplexed carries the group id the signal is gated on.
type MuxRole struct {
	Kind    MuxRoleKind
	GroupID int64 // valid iff Kind == MuxMultiplexed
}

// SignalID is a stable arena index into a description's Signals slice.
type SignalID int

// Signal describes one physical value packed into a frame's payload.
type Signal struct {
	Name      string
	StartBit  int // meaning depends on ByteOrder, see spec.md §4.1
	Length    int // bits
	Order     ByteOrder
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Unit      string
	Mux       MuxRole
}

// FrameID is the unprotected LIN frame identifier, 0..63.
type FrameID int

// LinFrameSpec is the LDF's description of one LIN frame.
type LinFrameSpec struct {
	ID           FrameID
	Length       int // declared payload length, 1..8
	ChecksumKind ChecksumKind
	Publisher    string
	Subscribers  []string
	Signals      []SignalID
}

// ScheduleSlot is one entry in a LIN schedule table.
type ScheduleSlot struct {
	FrameID FrameID
	Period  float64 // seconds
	Delay   float64 // seconds, offset within the slot (informational)
}

// ScheduleTable is the ordered sequence of slots a LIN master cycles
// through.
type ScheduleTable struct {
	Slots []ScheduleSlot
}

// LdfDescription is the parsed LIN Description File: a mapping from
// unprotected frame id to its spec, the cluster's shared signal arena, and
// the active schedule table.
type LdfDescription struct {
	Frames     map[FrameID]LinFrameSpec
	Signals    []Signal // arena; indexed by SignalID
	Schedule   ScheduleTable
	BitRateHz  float64
}

// SignalByID resolves a SignalID against the description's arena. ok is
// false for an out-of-range index, which callers treat as MalformedDescription.
func (d *LdfDescription) SignalByID(id SignalID) (Signal, bool) {
	if int(id) < 0 || int(id) >= len(d.Signals) {
		return Signal{}, false
	}
	return d.Signals[id], true
}
