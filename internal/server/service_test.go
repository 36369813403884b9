package server

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/tcpcalc/internal/protocol/answer"
	"github.com/danmuck/tcpcalc/internal/protocol/operation"
	"github.com/danmuck/tcpcalc/internal/protocol/tlv"
	"github.com/danmuck/tcpcalc/internal/testutil/testlog"
)

func startService(t *testing.T, order answer.Order) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Order = order
	svc := New(cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx, ln)
	}()
	return ln.Addr().String(), func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("service did not stop")
		}
	}
}

// readAnswers collects exactly n answer frames from conn, tolerating both
// coalesced and split TCP segments.
func readAnswers(t *testing.T, conn net.Conn, n int) []answer.Answer {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var (
		pending []byte
		out     []answer.Answer
		chunk   = make([]byte, 2048)
	)
	for len(out) < n {
		read, err := conn.Read(chunk)
		if err != nil {
			t.Fatalf("read answers: %v (have %d of %d)", err, len(out), n)
		}
		pending = append(pending, chunk[:read]...)
		for len(out) < n {
			f, consumed, err := tlv.Decode(pending)
			if err != nil {
				break // need more bytes
			}
			a, err := answer.FromFrame(f)
			if err != nil {
				t.Fatalf("decode answer: %v", err)
			}
			out = append(out, a)
			pending = pending[consumed:]
		}
	}
	return out
}

func TestSessionAccumulatesAcrossRequests(t *testing.T) {
	testlog.Start(t)
	addr, stop := startService(t, answer.MessageFirst)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write(operation.Add(2, 3).Encode()); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := readAnswers(t, conn, 1)[0]
	if first.Acc != 5 || first.Message != "" {
		t.Fatalf("first answer: %+v", first)
	}

	if _, err := conn.Write(operation.Mul(10, 10).Encode()); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := readAnswers(t, conn, 1)[0]
	if second.Acc != 105 || second.Message != "" {
		t.Fatalf("second answer: %+v", second)
	}
}

func TestPackedRequestsGetOneAnswerEachInOrder(t *testing.T) {
	testlog.Start(t)
	addr, stop := startService(t, answer.MessageLast)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	packed := append(operation.Add(2, 3).Encode(), operation.Mul(10, 10).Encode()...)
	packed = append(packed, operation.Factorial(5).Encode()...)
	if _, err := conn.Write(packed); err != nil {
		t.Fatalf("write: %v", err)
	}

	answers := readAnswers(t, conn, 3)
	wantAccs := []int64{5, 105, 225}
	for i, want := range wantAccs {
		if answers[i].Acc != want || answers[i].Message != "" {
			t.Fatalf("answer %d: %+v, want acc %d", i, answers[i], want)
		}
	}
}

func TestFailedOperationAnswersWithDiagnostic(t *testing.T) {
	testlog.Start(t)
	addr, stop := startService(t, answer.MessageFirst)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write(operation.Add(2, 3).Encode()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readAnswers(t, conn, 1)[0]; got.Acc != 5 {
		t.Fatalf("setup answer: %+v", got)
	}

	if _, err := conn.Write(operation.Div(5, 0).Encode()); err != nil {
		t.Fatalf("write: %v", err)
	}
	failed := readAnswers(t, conn, 1)[0]
	if failed.Acc != 5 {
		t.Fatalf("accumulator moved on failure: %+v", failed)
	}
	if failed.Message == "" || !strings.Contains(failed.Message, "wrong domain") {
		t.Fatalf("diagnostic missing or wrong: %+v", failed)
	}

	// The session keeps serving after a rejected request.
	if _, err := conn.Write(operation.Sub(0, 5).Encode()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readAnswers(t, conn, 1)[0]; got.Acc != 0 || got.Message != "" {
		t.Fatalf("answer after failure: %+v", got)
	}
}

func TestMalformedRequestFrameAnswersWithDiagnostic(t *testing.T) {
	testlog.Start(t)
	addr, stop := startService(t, answer.MessageFirst)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registered tag with the wrong operand count still gets an answer.
	if _, err := conn.Write([]byte{1, 1, 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	a := readAnswers(t, conn, 1)[0]
	if a.Acc != 0 || a.Message == "" {
		t.Fatalf("malformed frame answer: %+v", a)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	testlog.Start(t)
	addr, stop := startService(t, answer.MessageFirst)
	defer stop()

	connA, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial a: %v", err)
	}
	defer connA.Close()
	connB, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial b: %v", err)
	}
	defer connB.Close()

	if _, err := connA.Write(operation.Add(100, 27).Encode()); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if got := readAnswers(t, connA, 1)[0]; got.Acc != 127 {
		t.Fatalf("session a: %+v", got)
	}

	if _, err := connB.Write(operation.Add(1, 1).Encode()); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if got := readAnswers(t, connB, 1)[0]; got.Acc != 2 {
		t.Fatalf("session b must not see session a state: %+v", got)
	}
}
