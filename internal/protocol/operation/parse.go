package operation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrParse        = errors.New("operation: could not parse operation")
	ErrUnsupported  = errors.New("operation: unsupported operation")
	ErrOperandRange = errors.New("operation: operand does not fit 8 bits")
)

// Infix grammar: operand, operator symbol, optional second operand. The
// operator group first tries the known single-character symbols, then any
// run of non-space non-digit characters so an unrecognized symbol can be
// reported verbatim.
var exprRE = regexp.MustCompile(`^\s*(-?\d+)\s*([+\-*×x/÷%!]|[^\s\d]+)\s*(-?\d+)?\s*$`)

// Parse converts one infix expression line into an Operation. The second
// operand is required for binary operators and forbidden for factorial;
// either mismatch is a plain parse error. A symbol outside the operator set
// is reported as unsupported, carrying the raw symbol text.
func Parse(s string) (Operation, error) {
	m := exprRE.FindStringSubmatch(s)
	if m == nil {
		return Operation{}, ErrParse
	}
	a, err := parseOperand(m[1])
	if err != nil {
		return Operation{}, err
	}
	symbol, rawB := m[2], m[3]

	if symbol == "!" {
		if rawB != "" {
			return Operation{}, ErrParse
		}
		return Factorial(a), nil
	}

	var build func(a, b int8) Operation
	switch symbol {
	case "+":
		build = Add
	case "-":
		build = Sub
	case "*", "×", "x":
		build = Mul
	case "/", "÷":
		build = Div
	case "%":
		build = Mod
	default:
		return Operation{}, fmt.Errorf("%w %q", ErrUnsupported, symbol)
	}
	if rawB == "" {
		return Operation{}, ErrParse
	}
	b, err := parseOperand(rawB)
	if err != nil {
		return Operation{}, err
	}
	return build(a, b), nil
}

func parseOperand(raw string) (int8, error) {
	v, err := strconv.ParseInt(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrOperandRange, raw)
	}
	return int8(v), nil
}
