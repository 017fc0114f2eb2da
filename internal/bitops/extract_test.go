package bitops

import "testing"

func TestExtractRaw_Intel(t *testing.T) {
	payload := []byte{0x12, 0x34, 0x56, 0x78}
	// 16-bit little-endian field starting at bit 0 recovers the first two
	// bytes in Intel order: 0x3412.
	raw, ok := ExtractRaw(payload, 0, 16, Intel)
	if !ok {
		t.Fatal("expected ok")
	}
	if raw != 0x3412 {
		t.Fatalf("raw = 0x%04X, want 0x3412", raw)
	}
}

func TestExtractRaw_Motorola(t *testing.T) {
	payload := []byte{0x12, 0x34, 0x56, 0x78}
	// MSB at absolute bit 7 (byte0's top bit) walking down through byte0
	// then into byte1's bit 7 recovers the big-endian pair 0x1234.
	raw, ok := ExtractRaw(payload, 7, 16, Motorola)
	if !ok {
		t.Fatal("expected ok")
	}
	if raw != 0x1234 {
		t.Fatalf("raw = 0x%04X, want 0x1234", raw)
	}
}

func TestExtractRaw_OutOfPayload(t *testing.T) {
	payload := []byte{0x00, 0x01}
	if _, ok := ExtractRaw(payload, 8, 16, Intel); ok {
		t.Fatal("expected out-of-range extraction to fail")
	}
	if _, ok := ExtractRaw(payload, 200, 8, Motorola); ok {
		t.Fatal("expected out-of-range extraction to fail")
	}
}

func TestSignExtend(t *testing.T) {
	if v := SignExtend(0xFF, 8); v != -1 {
		t.Fatalf("SignExtend(0xFF,8) = %d, want -1", v)
	}
	if v := SignExtend(0x7F, 8); v != 127 {
		t.Fatalf("SignExtend(0x7F,8) = %d, want 127", v)
	}
	if v := SignExtend(0x01, 1); v != -1 {
		t.Fatalf("SignExtend(0x01,1) = %d, want -1", v)
	}
}

func TestExtractEncodeRoundTrip_Intel(t *testing.T) {
	payload := make([]byte, 4)
	if !EncodeRaw(payload, 3, 12, Intel, 0xABC) {
		t.Fatal("encode failed")
	}
	raw, ok := ExtractRaw(payload, 3, 12, Intel)
	if !ok || raw != 0xABC {
		t.Fatalf("round trip failed: raw=0x%X ok=%v", raw, ok)
	}
}

func TestExtractEncodeRoundTrip_Motorola(t *testing.T) {
	// MSB at bit 23 (byte 2's top bit) and 20 bits wide spans bytes 2..4.
	payload := make([]byte, 8)
	if !EncodeRaw(payload, 23, 20, Motorola, 0xABCDE) {
		t.Fatal("encode failed")
	}
	raw, ok := ExtractRaw(payload, 23, 20, Motorola)
	if !ok || raw != 0xABCDE {
		t.Fatalf("round trip failed: raw=0x%X ok=%v", raw, ok)
	}
}
