// Package wire implements the binary codec linspectord uses to stream
// model.Finding events to dashboard clients over the hub's TCP broadcast.
// It is grounded on the teacher's cannelloni codec (internal/cnl): the same
// length-prefixed, big-endian, io.Writer/io.Reader shape, repurposed from
// CAN frame relay to finding streaming.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/linspector/linspector/internal/metrics"
	"github.com/linspector/linspector/internal/model"
)

// Codec encodes/decodes Finding events. Stateless and safe for concurrent
// use.
type Codec struct{}

// ErrInvalidLength is exported for error classification; no function in
// this package returns it. A length byte that claims more data than the
// reader holds surfaces as ErrTruncatedFrame.
var ErrInvalidLength = errors.New("wire: invalid length")

// ErrTruncatedFrame is returned when the underlying reader ends mid-frame.
var ErrTruncatedFrame = errors.New("wire: truncated frame")

const maxStringLen = 255

// Encode packs events into a single byte slice.
func (c *Codec) Encode(events []model.Finding) []byte {
	if len(events) == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.Grow(len(events) * 64)
	_, _ = c.EncodeTo(&buf, events)
	return buf.Bytes()
}

// EncodeTo writes the wire representation of events to w and returns bytes
// written. Each event is encoded as:
//
//	1-byte kind length + kind bytes
//	8-byte BE timestamp (float64 bits)
//	1-byte channel length + channel bytes
//	8-byte BE sequence
//	1-byte identifier length + identifier bytes
//	8-byte BE expected (float64 bits)
//	8-byte BE observed (float64 bits)
//	2-byte BE detail length + detail bytes
func (c *Codec) EncodeTo(w io.Writer, events []model.Finding) (int, error) {
	var total int
	for _, e := range events {
		n, err := writeShortString(w, string(e.Kind))
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode kind: %w", err)
		}
		n, err = writeUint64(w, math.Float64bits(float64(e.Timestamp)))
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode timestamp: %w", err)
		}
		n, err = writeShortString(w, string(e.Channel))
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode channel: %w", err)
		}
		n, err = writeUint64(w, e.Sequence)
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode sequence: %w", err)
		}
		n, err = writeShortString(w, e.Identifier)
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode identifier: %w", err)
		}
		n, err = writeUint64(w, math.Float64bits(e.Expected))
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode expected: %w", err)
		}
		n, err = writeUint64(w, math.Float64bits(e.Observed))
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode observed: %w", err)
		}
		n, err = writeLongString(w, e.Detail)
		total += n
		if err != nil {
			return total, fmt.Errorf("wire encode detail: %w", err)
		}
	}
	return total, nil
}

func writeShortString(w io.Writer, s string) (int, error) {
	if len(s) > maxStringLen {
		s = s[:maxStringLen]
	}
	n, err := w.Write([]byte{byte(len(s))})
	if err != nil {
		return n, err
	}
	if len(s) == 0 {
		return n, nil
	}
	m, err := w.Write([]byte(s))
	return n + m, err
}

func writeLongString(w io.Writer, s string) (int, error) {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(len(s)))
	n, err := w.Write(lb[:])
	if err != nil {
		return n, err
	}
	if len(s) == 0 {
		return n, nil
	}
	m, err := w.Write([]byte(s))
	return n + m, err
}

func writeUint64(w io.Writer, v uint64) (int, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return w.Write(b[:])
}

func readShortString(r io.Reader) (string, error) {
	var lb [1]byte
	n, err := r.Read(lb[:])
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", io.EOF
	}
	ln := int(lb[0])
	if ln == 0 {
		return "", nil
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", truncatedOr(err)
	}
	return string(buf), nil
}

func readLongString(r io.Reader) (string, error) {
	var lb [2]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return "", truncatedOr(err)
	}
	ln := int(binary.BigEndian.Uint16(lb[:]))
	if ln == 0 {
		return "", nil
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", truncatedOr(err)
	}
	return string(buf), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, truncatedOr(err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func truncatedOr(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedFrame
	}
	return err
}

// Decode reads exactly one Finding from r. It returns io.EOF if called at a
// clean event boundary and no more data is available.
func (c *Codec) Decode(r io.Reader) (model.Finding, error) {
	var f model.Finding

	kind, err := readShortString(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return f, io.EOF
		}
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode kind: %w", err)
	}
	f.Kind = model.FindingKind(kind)

	ts, err := readUint64(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode timestamp: %w", err)
	}
	f.Timestamp = model.Timestamp(math.Float64frombits(ts))

	ch, err := readShortString(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode channel: %w", err)
	}
	f.Channel = model.Channel(ch)

	seq, err := readUint64(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode sequence: %w", err)
	}
	f.Sequence = seq

	ident, err := readShortString(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode identifier: %w", err)
	}
	f.Identifier = ident

	exp, err := readUint64(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode expected: %w", err)
	}
	f.Expected = math.Float64frombits(exp)

	obs, err := readUint64(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode observed: %w", err)
	}
	f.Observed = math.Float64frombits(obs)

	detail, err := readLongString(r)
	if err != nil {
		metrics.IncError(metrics.ErrWireDecode)
		return f, fmt.Errorf("wire decode detail: %w", err)
	}
	f.Detail = detail

	return f, nil
}

// DecodeN decodes up to max events (if max>0) or until EOF (if max<=0),
// invoking onEvent for each. It returns the number decoded and the terminal
// error (which can be io.EOF).
func (c *Codec) DecodeN(r io.Reader, max int, onEvent func(model.Finding)) (int, error) {
	var n int
	for max <= 0 || n < max {
		f, err := c.Decode(r)
		if err != nil {
			return n, err
		}
		onEvent(f)
		n++
	}
	return n, nil
}
