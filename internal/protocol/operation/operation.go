package operation

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/tcpcalc/internal/protocol/tlv"
)

var (
	ErrMalformed   = errors.New("operation: malformed operation frame")
	ErrOverflow    = errors.New("operation: result is out of range")
	ErrWrongDomain = errors.New("operation: wrong domain")
)

// Kind is the closed set of calculator operators.
type Kind uint8

const (
	KindAdd Kind = iota
	KindSub
	KindMul
	KindDiv
	KindMod
	KindFactorial
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindSub:
		return "sub"
	case KindMul:
		return "mul"
	case KindDiv:
		return "div"
	case KindMod:
		return "mod"
	case KindFactorial:
		return "fact"
	}
	return "unknown"
}

// Operation is one calculator request: an operator plus its signed 8-bit
// operand(s). B is meaningless for factorial. Values are immutable once
// built by parsing or frame decoding.
type Operation struct {
	Kind Kind
	A    int8
	B    int8
}

func Add(a, b int8) Operation { return Operation{Kind: KindAdd, A: a, B: b} }
func Sub(a, b int8) Operation { return Operation{Kind: KindSub, A: a, B: b} }
func Mul(a, b int8) Operation { return Operation{Kind: KindMul, A: a, B: b} }
func Div(a, b int8) Operation { return Operation{Kind: KindDiv, A: a, B: b} }
func Mod(a, b int8) Operation { return Operation{Kind: KindMod, A: a, B: b} }
func Factorial(a int8) Operation {
	return Operation{Kind: KindFactorial, A: a}
}

// FromFrame dispatches on the frame tag. Binary operators require exactly
// two operand bytes, factorial exactly one; anything else is malformed.
func FromFrame(f tlv.Frame) (Operation, error) {
	switch f.Tag {
	case tlv.TagAdd, tlv.TagSub, tlv.TagMul, tlv.TagDiv, tlv.TagMod:
		if f.Length != 2 {
			return Operation{}, fmt.Errorf("%w: tag 0x%02x with %d value bytes", ErrMalformed, byte(f.Tag), f.Length)
		}
		return Operation{Kind: kindForTag(f.Tag), A: int8(f.Value[0]), B: int8(f.Value[1])}, nil
	case tlv.TagFactorial:
		if f.Length != 1 {
			return Operation{}, fmt.Errorf("%w: factorial with %d value bytes", ErrMalformed, f.Length)
		}
		return Factorial(int8(f.Value[0])), nil
	default:
		return Operation{}, fmt.Errorf("%w: tag 0x%02x is not an operation", ErrMalformed, byte(f.Tag))
	}
}

func kindForTag(t tlv.Tag) Kind {
	switch t {
	case tlv.TagAdd:
		return KindAdd
	case tlv.TagSub:
		return KindSub
	case tlv.TagMul:
		return KindMul
	case tlv.TagDiv:
		return KindDiv
	}
	return KindMod
}

func (o Operation) tag() tlv.Tag {
	switch o.Kind {
	case KindAdd:
		return tlv.TagAdd
	case KindSub:
		return tlv.TagSub
	case KindMul:
		return tlv.TagMul
	case KindDiv:
		return tlv.TagDiv
	case KindMod:
		return tlv.TagMod
	}
	return tlv.TagFactorial
}

// Encode builds the request frame for the operation. Operand values are
// fixed width, so encoding cannot fail.
func (o Operation) Encode() []byte {
	var value []byte
	if o.Kind == KindFactorial {
		value = []byte{byte(o.A)}
	} else {
		value = []byte{byte(o.A), byte(o.B)}
	}
	buf, _ := tlv.Encode(o.tag(), value)
	return buf
}

// Reduce evaluates the operation to a 64-bit result. Binary add, sub and
// mul are widened to int64 before the arithmetic, so two 8-bit operands can
// never spuriously overflow during the check. Div and mod work on the raw
// operands: a zero divisor and the MinInt8/-1 pair are WrongDomain.
func (o Operation) Reduce() (int64, error) {
	switch o.Kind {
	case KindAdd:
		return int64(o.A) + int64(o.B), nil
	case KindSub:
		return int64(o.A) - int64(o.B), nil
	case KindMul:
		return int64(o.A) * int64(o.B), nil
	case KindDiv:
		if o.B == 0 || (o.A == math.MinInt8 && o.B == -1) {
			return 0, fmt.Errorf("%w: %s", ErrWrongDomain, o)
		}
		return int64(o.A / o.B), nil
	case KindMod:
		if o.B == 0 || (o.A == math.MinInt8 && o.B == -1) {
			return 0, fmt.Errorf("%w: %s", ErrWrongDomain, o)
		}
		return int64(o.A % o.B), nil
	case KindFactorial:
		return o.factorial()
	}
	return 0, fmt.Errorf("%w: kind %d", ErrMalformed, o.Kind)
}

func (o Operation) factorial() (int64, error) {
	if o.A < 0 {
		return 0, fmt.Errorf("%w: %s", ErrWrongDomain, o)
	}
	product := int64(1)
	for i := int64(2); i <= int64(o.A); i++ {
		if product > math.MaxInt64/i {
			return 0, fmt.Errorf("%w: %s", ErrOverflow, o)
		}
		product *= i
	}
	return product, nil
}

// String renders the operation with its canonical symbol.
func (o Operation) String() string {
	switch o.Kind {
	case KindAdd:
		return fmt.Sprintf("%d+%d", o.A, o.B)
	case KindSub:
		return fmt.Sprintf("%d-%d", o.A, o.B)
	case KindMul:
		return fmt.Sprintf("%d×%d", o.A, o.B)
	case KindDiv:
		return fmt.Sprintf("%d÷%d", o.A, o.B)
	case KindMod:
		return fmt.Sprintf("%d%%%d", o.A, o.B)
	case KindFactorial:
		return fmt.Sprintf("%d!", o.A)
	}
	return "invalid"
}
