// Package link implements the Link Layer (spec.md §4.6): the framed byte
// protocol to the UI terminal, its decoder state machine, the inbound and
// outbound message catalogs, heartbeat supervision, and the 8x21 screen
// composer.
package link

import "github.com/pkg/errors"

// StartByte begins every frame (spec.md §4.6).
const StartByte = 0xAA

// MaxPayloadLen is PAYLOAD's upper bound; MaxFrameLen is the hard ceiling
// on an entire encoded frame (start + length + type + payload + checksum).
const (
	MaxPayloadLen = 250
	MaxFrameLen   = 254
)

// ErrPayloadTooLong is returned by Encode when the payload exceeds
// MaxPayloadLen.
var ErrPayloadTooLong = errors.New("link: payload exceeds maximum frame length")

// Frame is one decoded or to-be-encoded protocol unit: spec.md §4.6 "0xAA |
// LENGTH | TYPE | PAYLOAD(0..250) | CHECKSUM". LENGTH carries the payload
// length only (spec.md §8 scenario 6's worked checksum: a 1-byte payload
// frame has LENGTH=1, and a payload-less PING has LENGTH=0); TYPE is framed
// separately and is not counted by LENGTH.
type Frame struct {
	Type    byte
	Payload []byte
}

// checksum is the XOR of LENGTH, TYPE, and every payload byte (spec.md
// §4.6).
func checksum(length, typ byte, payload []byte) byte {
	sum := length ^ typ
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// Encode serializes f into its wire representation: 0xAA, LENGTH (=
// len(payload)), TYPE, PAYLOAD, CHECKSUM.
func Encode(f Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	length := byte(len(f.Payload))
	out := make([]byte, 0, 3+len(f.Payload)+1)
	out = append(out, StartByte, length, f.Type)
	out = append(out, f.Payload...)
	out = append(out, checksum(length, f.Type, f.Payload))
	return out, nil
}
