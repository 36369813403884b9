package answer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/tcpcalc/internal/protocol/tlv"
)

const accumulatorLen = 8

var (
	ErrNotAnAnswer        = errors.New("answer: not an answer frame")
	ErrMissingAccumulator = errors.New("answer: no accumulator sub-frame")
	ErrBadAccumulator     = errors.New("answer: accumulator must be 8 bytes")
	ErrBadDiagnostic      = errors.New("answer: diagnostic is not valid text")
	ErrUnknownOrder       = errors.New("answer: unknown answer order")
)

// Order fixes the position of the diagnostic sub-frame relative to the
// accumulator inside the answer container. One deployment uses one order,
// but receivers must scan for both tags rather than assume a position.
type Order uint8

const (
	MessageFirst Order = iota
	MessageLast
)

// ParseOrder maps the configuration spelling of an order to its value.
func ParseOrder(raw string) (Order, error) {
	switch raw {
	case "message-first", "":
		return MessageFirst, nil
	case "message-last":
		return MessageLast, nil
	}
	return MessageFirst, fmt.Errorf("%w: %q", ErrUnknownOrder, raw)
}

// Answer is one response to one request: the session accumulator after the
// request was handled, plus an optional diagnostic. An empty Message means
// no diagnostic; the wire format cannot carry an empty one.
type Answer struct {
	Acc     int64
	Message string
}

// Encode wraps the accumulator sub-frame and, when present, the diagnostic
// sub-frame in one answer container frame, ordered per order. Encoding
// fails only when the diagnostic pushes the container past the one-byte
// length limit.
func (a Answer) Encode(order Order) ([]byte, error) {
	var accBytes [accumulatorLen]byte
	binary.BigEndian.PutUint64(accBytes[:], uint64(a.Acc))
	acc, _ := tlv.Encode(tlv.TagAccumulator, accBytes[:])

	payload := acc
	if a.Message != "" {
		msg, err := tlv.Encode(tlv.TagDiagnostic, []byte(a.Message))
		if err != nil {
			return nil, err
		}
		switch order {
		case MessageFirst:
			payload = append(msg, acc...)
		default:
			payload = append(acc, msg...)
		}
	}
	return tlv.Encode(tlv.TagAnswer, payload)
}

// FromFrame decodes an answer container. The container payload is scanned
// sequentially; the first accumulator sub-frame and the first diagnostic
// sub-frame win, any other nested tags are ignored. A container without an
// accumulator is an error, as is a matching sub-frame with a bad value.
func FromFrame(f tlv.Frame) (Answer, error) {
	if f.Tag != tlv.TagAnswer || f.Length == 0 {
		return Answer{}, fmt.Errorf("%w: tag 0x%02x length %d", ErrNotAnAnswer, byte(f.Tag), f.Length)
	}

	var (
		out    Answer
		hasAcc bool
	)
	r := tlv.NewReader(f.Value)
	for {
		sub, ok := r.Next()
		if !ok {
			break
		}
		switch sub.Tag {
		case tlv.TagAccumulator:
			if hasAcc {
				continue
			}
			if sub.Length != accumulatorLen {
				return Answer{}, fmt.Errorf("%w: got %d", ErrBadAccumulator, sub.Length)
			}
			out.Acc = int64(binary.BigEndian.Uint64(sub.Value))
			hasAcc = true
		case tlv.TagDiagnostic:
			if out.Message != "" {
				continue
			}
			if sub.Length == 0 || !utf8.Valid(sub.Value) {
				return Answer{}, ErrBadDiagnostic
			}
			out.Message = string(sub.Value)
		}
	}
	if !hasAcc {
		return Answer{}, ErrMissingAccumulator
	}
	return out, nil
}
