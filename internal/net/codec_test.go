package net

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x10, 0x02, 0xAA, 0xBB}
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	// Header is total length including itself.
	if got := int(buf.Bytes()[0]) | int(buf.Bytes()[1])<<8; got != len(payload)+2 {
		t.Errorf("header length = %d, want %d", got, len(payload)+2)
	}

	out, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Errorf("payload = %v, want %v", out, payload)
	}
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	// Length of 1 is below the header size.
	if _, err := ReadFrame(bytes.NewReader([]byte{0x01, 0x00})); err == nil {
		t.Error("ReadFrame accepted an undersized length")
	}
	// Length of exactly 2 means an empty payload, also invalid.
	if _, err := ReadFrame(bytes.NewReader([]byte{0x02, 0x00})); err == nil {
		t.Error("ReadFrame accepted an empty frame")
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	if _, err := ReadFrame(bytes.NewReader([]byte{0x06, 0x00, 0xAA})); err == nil {
		t.Error("ReadFrame accepted a truncated payload")
	}
}
