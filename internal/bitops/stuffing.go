package bitops

// FrameKind distinguishes classic CAN from CAN FD for the fixed-overhead
// table used by the bit-stuffing estimator (spec.md §4.1).
type FrameKind uint8

const (
	FrameClassic FrameKind = iota
	FrameFD
)

// fixedOverheadBits returns the worst-case non-stuffed framing overhead
// (SOF, arbitration/control fixed fields, CRC delimiter, ACK, EOF, IFS)
// for classic vs. FD frames. These are the commonly cited worst-case
// field-count totals used for bus-load estimation, not a bit-exact
// reproduction of the ISO 11898 frame grammar.
func fixedOverheadBits(kind FrameKind, idWidth int) int {
	base := 0
	switch idWidth {
	case 29:
		base = 67 // SOF+arbitration(extended)+control+CRC delim+ACK+EOF
	default:
		base = 47 // SOF+arbitration(standard)+control+CRC delim+ACK+EOF
	}
	if kind == FrameFD {
		base += 15 // FDF/BRS/ESI/stuff-count+parity, wider CRC
	}
	return base
}

// ceilDiv4_5 returns ceil(n*5/4), the worst-case stuff-bit inflation: one
// extra stuff bit for every four bits.
func ceilDiv4_5(n int) int {
	return (n*5 + 3) / 4
}

// EstimatedStuffedBits computes the worst-case on-wire bit length of a CAN
// frame: fixed overhead plus ceil(stuffable*5/4), where stuffable is
// payloadBits plus half of the fixed overhead (the stuffable part of the
// header and CRC), per spec.md §4.1.
func EstimatedStuffedBits(kind FrameKind, idWidth int, payloadBits int) int {
	overhead := fixedOverheadBits(kind, idWidth)
	stuffable := payloadBits + overhead/2 // payload plus roughly the stuffable half of the header/CRC
	return overhead + ceilDiv4_5(stuffable)
}
