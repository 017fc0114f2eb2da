// Package transport declares the narrow interfaces linspectord's server
// depends on, so it can be wired against *wire.Codec without an import
// cycle, grounded on the teacher's transport package (same shape, CAN frame
// swapped for model.Finding).
package transport

import (
	"io"

	"github.com/linspector/linspector/internal/model"
	"github.com/linspector/linspector/internal/wire"
)

// EventDecoder decodes a single finding event from a stream.
type EventDecoder interface {
	Decode(r io.Reader) (model.Finding, error)
}

// MultiEventDecoder optionally drains multiple events from a stream.
type MultiEventDecoder interface {
	DecodeN(r io.Reader, max int, onEvent func(model.Finding)) (int, error)
}

// EventBatchEncoder can encode batches efficiently (either to bytes or
// directly to a writer).
type EventBatchEncoder interface {
	Encode([]model.Finding) []byte
	EncodeTo(w io.Writer, events []model.Finding) (int, error)
}

// Compile-time assertions that *wire.Codec satisfies the optional
// capabilities.
var (
	_ EventDecoder      = (*wire.Codec)(nil)
	_ MultiEventDecoder = (*wire.Codec)(nil)
	_ EventBatchEncoder = (*wire.Codec)(nil)
)
