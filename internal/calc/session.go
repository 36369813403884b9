// Package calc holds the per-connection session state of the calculator.
//
// A Session is owned by exactly one connection handler and is never shared,
// so it needs no locking. It has no terminal state of its own: the owning
// I/O layer drops it when the connection ends.
package calc

import (
	"math"

	"github.com/danmuck/tcpcalc/internal/protocol/answer"
	"github.com/danmuck/tcpcalc/internal/protocol/operation"
)

// Session reduces a stream of operations into one running accumulator.
type Session struct {
	acc int64
}

func NewSession() *Session {
	return &Session{}
}

// Accumulator returns the current running value.
func (s *Session) Accumulator() int64 {
	return s.acc
}

// Apply evaluates one operation and produces exactly one answer for it.
// A successful result is folded into the accumulator with saturating
// addition. A failed evaluation leaves the accumulator untouched and
// carries the failure as the answer diagnostic.
func (s *Session) Apply(op operation.Operation) answer.Answer {
	result, err := op.Reduce()
	if err != nil {
		return answer.Answer{Acc: s.acc, Message: err.Error()}
	}
	s.acc = saturatingAdd(s.acc, result)
	return answer.Answer{Acc: s.acc}
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return math.MaxInt64
	case b < 0 && sum > a:
		return math.MinInt64
	}
	return sum
}
