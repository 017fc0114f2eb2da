package model

// SignalSample is one decoded physical value, as produced by the signal
// extractor (C6) and consumed by the gateway correlator (C7).
type SignalSample struct {
	Timestamp Timestamp
	Channel   Channel
	Sequence  uint64
	Name      string
	Value     float64
}
