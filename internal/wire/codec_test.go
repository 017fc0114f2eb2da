package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/linspector/linspector/internal/model"
)

func sampleFindings() []model.Finding {
	return []model.Finding{
		{Kind: model.FindingChecksumError, Timestamp: 1.5, Channel: "LIN0", Sequence: 1, Identifier: "0x10", Expected: 0xB2, Observed: 0xB3},
		{Kind: model.FindingGatewayValueMismatch, Timestamp: 2.0, Channel: "CAN0", Sequence: 7, Identifier: "speed->veh_speed", Expected: 60, Observed: 62, Detail: "latency_s=0.004000"},
		{Kind: model.FindingTruncatedInput, Timestamp: 0},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := Codec{}
	in := sampleFindings()

	data := codec.Encode(in)
	var out []model.Finding
	br := bytes.NewReader(data)
	n, err := codec.DecodeN(br, 0, func(f model.Finding) { out = append(out, f) })
	if err != io.EOF && err != nil {
		t.Fatalf("DecodeN unexpected err: %v", err)
	}
	if n != len(in) {
		t.Fatalf("decoded %d, want %d", n, len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("finding %d mismatch: got %+v want %+v", i, out[i], in[i])
		}
	}
}

func TestCodec_EncodeToMatchesEncode(t *testing.T) {
	codec := Codec{}
	in := sampleFindings()
	a := codec.Encode(in)
	var buf bytes.Buffer
	if _, err := codec.EncodeTo(&buf, in); err != nil {
		t.Fatalf("EncodeTo error: %v", err)
	}
	if !bytes.Equal(a, buf.Bytes()) {
		t.Fatalf("Encode vs EncodeTo mismatch")
	}
}

func TestCodec_DecodeTruncated(t *testing.T) {
	codec := Codec{}
	full := codec.Encode(sampleFindings()[:1])
	truncated := full[:len(full)-3]
	if _, err := codec.Decode(bytes.NewReader(truncated)); err == nil {
		t.Fatalf("expected truncated error")
	}
}

func TestCodec_DecodeEmptyIsEOF(t *testing.T) {
	codec := Codec{}
	if _, err := codec.Decode(bytes.NewReader(nil)); err != io.EOF {
		t.Fatalf("expected io.EOF on empty input, got %v", err)
	}
}
