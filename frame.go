package framerelay

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the size of the big-endian length prefix that precedes every payload.
const HeaderSize = 4

// EncodeMessage builds a wire message: the payload length as a 4-byte big-endian
// unsigned integer followed by the payload itself.
// It panics if the payload length cannot be represented in 32 bits.
func EncodeMessage(payload []byte) []byte {
	if uint64(len(payload)) > math.MaxUint32 {
		panic(fmt.Sprintf("framerelay: payload of %d bytes exceeds the 32-bit length prefix", len(payload)))
	}

	msg := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(msg[:HeaderSize], uint32(len(payload)))
	copy(msg[HeaderSize:], payload)
	return msg
}

// DecodeLength parses a big-endian length prefix.
func DecodeLength(header [HeaderSize]byte) uint32 {
	return binary.BigEndian.Uint32(header[:])
}
