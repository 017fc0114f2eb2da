package model

// FindingKind is the closed set of in-report, non-fatal finding kinds
// spec.md §7 enumerates. It is a string enum (not iota) so serialized
// reports stay stable across reorderings of this list.
type FindingKind string

const (
	FindingPidParityError         FindingKind = "PidParityError"
	FindingChecksumError          FindingKind = "ChecksumError"
	FindingLengthMismatch         FindingKind = "LengthMismatch"
	FindingUnknownFrameId         FindingKind = "UnknownFrameId"
	FindingBreakTooShort          FindingKind = "BreakTooShort"
	FindingSyncByteWrong          FindingKind = "SyncByteWrong"
	FindingBreakDelimiterShort    FindingKind = "BreakDelimiterShort"
	FindingBitRateOutOfTolerance  FindingKind = "BitRateOutOfTolerance"
	FindingIllegalDlc             FindingKind = "IllegalDlc"
	FindingNonMonotonicTimestamp  FindingKind = "NonMonotonicTimestamp"
	FindingScheduleDrift          FindingKind = "ScheduleDrift"
	FindingJitterExceeded         FindingKind = "JitterExceeded"
	FindingMissedSlot             FindingKind = "MissedSlot"
	FindingUnexpectedFrame        FindingKind = "UnexpectedFrame"
	FindingSignalFieldOutOfPayload FindingKind = "SignalFieldOutOfPayload"
	FindingSignalOutOfRange       FindingKind = "SignalOutOfRange"
	FindingNoLinSourceInWindow    FindingKind = "NoLinSourceInWindow"
	FindingGatewayValueMismatch   FindingKind = "GatewayValueMismatch"
	FindingTruncatedInput         FindingKind = "TruncatedInput"
)

// Finding is one recoverable, in-report defect observation. Context fields
// that don't apply to a given Kind are left zero.
type Finding struct {
	Kind       FindingKind
	Timestamp  Timestamp
	Channel    Channel
	Sequence   uint64 // stable per-channel sequence id for deterministic sort
	Identifier string // frame id / signal name / rule description, as text
	Expected   float64
	Observed   float64
	Detail     string
}
