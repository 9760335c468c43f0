package framerelay

import (
	"bytes"
	"testing"
)

func TestEncodeMessage_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01},
		{0x01, 0x02, 0x03},
		bytes.Repeat([]byte{0xab}, 4096),
		bytes.Repeat([]byte{0x00, 0xff}, 70000),
	}

	for _, p := range payloads {
		msg := EncodeMessage(p)
		if len(msg) != HeaderSize+len(p) {
			t.Fatalf("len(msg) = %d, want %d", len(msg), HeaderSize+len(p))
		}

		var header [HeaderSize]byte
		copy(header[:], msg[:HeaderSize])
		if got := DecodeLength(header); got != uint32(len(p)) {
			t.Errorf("DecodeLength = %d, want %d", got, len(p))
		}
		if !bytes.Equal(msg[HeaderSize:], p) {
			t.Errorf("payload mismatch for %d bytes", len(p))
		}
	}
}

func TestEncodeMessage_BigEndian(t *testing.T) {
	msg := EncodeMessage(make([]byte, 0x010203))
	want := []byte{0x00, 0x01, 0x02, 0x03}
	if !bytes.Equal(msg[:HeaderSize], want) {
		t.Errorf("header = % x, want % x", msg[:HeaderSize], want)
	}
}

func TestEncodeMessage_CopiesPayload(t *testing.T) {
	p := []byte{1, 2, 3}
	msg := EncodeMessage(p)
	p[0] = 9
	if msg[HeaderSize] != 1 {
		t.Error("EncodeMessage aliases the payload")
	}
}

func TestDecodeLength(t *testing.T) {
	tests := []struct {
		header [HeaderSize]byte
		want   uint32
	}{
		{[HeaderSize]byte{0, 0, 0, 0}, 0},
		{[HeaderSize]byte{0, 0, 0, 3}, 3},
		{[HeaderSize]byte{0, 0, 0x10, 0}, 4096},
		{[HeaderSize]byte{0xff, 0xff, 0xff, 0xff}, 0xffffffff},
	}

	for _, tt := range tests {
		if got := DecodeLength(tt.header); got != tt.want {
			t.Errorf("DecodeLength(% x) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
