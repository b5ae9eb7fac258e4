package link

import "time"

// InterByteTimeout is the "incomplete frame that exceeds an inter-byte
// timeout (>=50 ms) resets to Idle" bound from spec.md §4.6.
const InterByteTimeout = 50 * time.Millisecond

// decoderState names the Decoder's position in spec.md §4.6's state
// machine: "Idle, GotStart, GotLength, ReadingPayload, Complete".
type decoderState int

const (
	stateIdle decoderState = iota
	stateGotStart
	stateGotLength
	stateReadingPayload
	stateComplete
)

// KnownType reports whether typ is a recognized message type. Decoder uses
// it to silently drop frames with an unknown TYPE, per spec.md §4.6. A nil
// KnownType accepts every type.
type KnownType func(typ byte) bool

// Decoder implements spec.md §4.6's byte-at-a-time decoder state machine.
// It is fed one byte at a time via Feed and reports a complete,
// checksum-valid, known-type Frame when one is available. Bad checksums,
// unknown types, and inter-byte timeouts are all handled by silently
// resetting to Idle — the protocol defines no NAK.
type Decoder struct {
	state decoderState

	length byte
	typ    byte
	tail   []byte // PAYLOAD bytes followed by the trailing CHECKSUM byte
	want   int     // len(tail) once complete: length payload bytes + 1 checksum

	lastByte time.Time
	haveLast bool

	isKnown KnownType
}

// NewDecoder builds a Decoder. isKnown may be nil to accept all types.
func NewDecoder(isKnown KnownType) *Decoder {
	return &Decoder{isKnown: isKnown}
}

// Feed consumes one incoming byte at time now and returns a decoded Frame
// and true once a complete, checksum-valid, known-type frame has arrived.
func (d *Decoder) Feed(b byte, now time.Time) (Frame, bool) {
	if d.haveLast && d.state != stateIdle && now.Sub(d.lastByte) >= InterByteTimeout {
		d.reset()
	}
	d.lastByte = now
	d.haveLast = true

	switch d.state {
	case stateIdle:
		// Bytes that are not 0xAA in Idle are dropped (spec.md §4.6).
		if b == StartByte {
			d.state = stateGotStart
		}
		return Frame{}, false

	case stateGotStart:
		d.length = b
		if int(d.length) > MaxPayloadLen {
			// Anything absurd resyncs rather than reading garbage into an
			// oversized frame. LENGTH==0 is legitimate (e.g. PING).
			d.reset()
			return Frame{}, false
		}
		d.state = stateGotLength
		return Frame{}, false

	case stateGotLength:
		d.typ = b
		d.tail = d.tail[:0]
		d.want = int(d.length) + 1 // payload bytes + 1 trailing checksum byte
		d.state = stateReadingPayload
		return Frame{}, false

	case stateReadingPayload:
		d.tail = append(d.tail, b)
		if len(d.tail) < d.want {
			return Frame{}, false
		}
		d.state = stateComplete
		return d.complete()

	default:
		d.reset()
		return Frame{}, false
	}
}

// complete validates checksum and type for the just-assembled frame,
// returning it on success. Either way it resets to Idle: the protocol has
// no NAK, so a bad frame is simply dropped.
func (d *Decoder) complete() (Frame, bool) {
	payload := d.tail[:len(d.tail)-1]
	gotChecksum := d.tail[len(d.tail)-1]
	wantChecksum := checksum(d.length, d.typ, payload)

	typ := d.typ
	d.reset()

	if gotChecksum != wantChecksum {
		return Frame{}, false
	}
	if d.isKnown != nil && !d.isKnown(typ) {
		return Frame{}, false
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return Frame{Type: typ, Payload: out}, true
}

func (d *Decoder) reset() {
	d.state = stateIdle
	d.length = 0
	d.typ = 0
	d.tail = d.tail[:0]
	d.want = 0
}
