// Package bitops implements the bit- and byte-level primitives the rest of
// the analyzer builds on: LIN PID parity, LIN checksums, Intel/Motorola
// signal extraction, and the CAN bit-stuffing estimator. Every function here
// is pure and total — out-of-range inputs produce a reported value, never a
// panic, matching spec.md's invariant that the core never hits undefined
// behavior on malformed-but-parseable wire data.
package bitops

// PID computes the protected identifier byte for a 6-bit unprotected LIN
// frame id (spec.md §4.1). Only the low 6 bits of id are consulted.
func PID(id uint8) uint8 {
	id &= 0x3F
	b := func(n uint8) uint8 { return (id >> n) & 1 }
	p0 := b(0) ^ b(1) ^ b(2) ^ b(4)
	p1 := 1 ^ (b(1) ^ b(3) ^ b(4) ^ b(5))
	return id | (p0 << 6) | (p1 << 7)
}

// CheckPID reports whether pidByte's parity bits match the ones computed
// from its embedded unprotected id, along with the expected byte so callers
// can populate a PidParityError finding with both values.
func CheckPID(pidByte uint8) (ok bool, expected uint8) {
	expected = PID(pidByte & 0x3F)
	return expected == pidByte, expected
}
