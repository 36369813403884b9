package tlv

import (
	"errors"
	"fmt"
)

// HeaderLen is the fixed tag+length prefix of every frame.
const HeaderLen = 2

// MaxValueLen is the largest value a one-byte length field can describe.
const MaxValueLen = 255

// Tag identifies the value type of one frame.
type Tag uint8

// Tag registry from the wire contract. Any other byte is unknown.
const (
	TagAdd         Tag = 1
	TagSub         Tag = 2
	TagMul         Tag = 3
	TagDiv         Tag = 4
	TagMod         Tag = 5
	TagFactorial   Tag = 6
	TagAnswer      Tag = 10
	TagDiagnostic  Tag = 11
	TagAccumulator Tag = 16
)

var (
	ErrShortFrame    = errors.New("tlv: short frame")
	ErrUnknownTag    = errors.New("tlv: unknown tag")
	ErrValueTooLarge = errors.New("tlv: value too large")
)

// Registered reports whether t is part of the tag registry.
func Registered(t Tag) bool {
	switch t {
	case TagAdd, TagSub, TagMul, TagDiv, TagMod, TagFactorial,
		TagAnswer, TagDiagnostic, TagAccumulator:
		return true
	}
	return false
}

// Frame is one decoded tag-length-value unit. Value aliases the buffer it
// was decoded from; callers must treat it as read-only.
type Frame struct {
	Tag    Tag
	Length uint8
	Value  []byte
}

// Encode builds the wire form [tag, length, value...] of one frame.
func Encode(tag Tag, value []byte) ([]byte, error) {
	if len(value) > MaxValueLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}
	buf := make([]byte, HeaderLen+len(value))
	buf[0] = byte(tag)
	buf[1] = byte(len(value))
	copy(buf[HeaderLen:], value)
	return buf, nil
}

// Decode parses one frame from the start of buf and returns it together
// with the number of bytes it occupied. The returned Frame borrows its
// value from buf. Trailing bytes beyond the frame are ignored.
func Decode(buf []byte) (Frame, int, error) {
	if len(buf) < HeaderLen {
		return Frame{}, 0, fmt.Errorf("%w: need at least %d bytes, have %d", ErrShortFrame, HeaderLen, len(buf))
	}
	length := int(buf[1])
	if len(buf) < HeaderLen+length {
		return Frame{}, 0, fmt.Errorf("%w: declared %d value bytes, have %d", ErrShortFrame, length, len(buf)-HeaderLen)
	}
	tag := Tag(buf[0])
	if !Registered(tag) {
		return Frame{}, 0, fmt.Errorf("%w: 0x%02x", ErrUnknownTag, buf[0])
	}
	return Frame{
		Tag:    tag,
		Length: uint8(length),
		Value:  buf[HeaderLen : HeaderLen+length],
	}, HeaderLen + length, nil
}
