package model

// MessageKey identifies a CAN message by its arbitration id and width; the
// same numeric id can mean different messages at 11 and 29 bits.
type MessageKey struct {
	ID      uint32
	IDWidth IDWidth
}

// CanMessage is the DBC's description of one CAN message.
type CanMessage struct {
	Key     MessageKey
	Length  int // bytes
	IsFD    bool
	Signals []SignalID // indexes into DbcDatabase.Signals
}

// DbcDatabase is the parsed CAN database: a mapping from (id, width) to
// message, and the shared signal arena referenced by message.Signals.
type DbcDatabase struct {
	Messages map[MessageKey]CanMessage
	Signals  []Signal // arena; indexed by SignalID
}

// SignalByID resolves a SignalID against the database's arena.
func (d *DbcDatabase) SignalByID(id SignalID) (Signal, bool) {
	if int(id) < 0 || int(id) >= len(d.Signals) {
		return Signal{}, false
	}
	return d.Signals[id], true
}

// FDLengths is the discrete set of legal CAN FD payload lengths above 8
// bytes (spec.md §3 invariant 3).
var FDLengths = [...]int{12, 16, 20, 24, 32, 48, 64}

// IsLegalFDLength reports whether n is a member of FDLengths.
func IsLegalFDLength(n int) bool {
	for _, v := range FDLengths {
		if v == n {
			return true
		}
	}
	return false
}
