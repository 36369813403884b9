// Package server runs the TCP accept loop and the per-connection
// read-evaluate-write sessions of the calculator.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/danmuck/tcpcalc/internal/calc"
	"github.com/danmuck/tcpcalc/internal/observability"
	"github.com/danmuck/tcpcalc/internal/protocol/answer"
	"github.com/danmuck/tcpcalc/internal/protocol/operation"
	"github.com/danmuck/tcpcalc/internal/protocol/tlv"
)

// Config fixes the deployment behavior of one Service.
type Config struct {
	ListenAddr      string
	Order           answer.Order
	ReadBufferBytes int
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":9300",
		Order:           answer.MessageFirst,
		ReadBufferBytes: 2048,
	}
}

// Service accepts connections and runs one independent session per
// connection. Sessions share no mutable state with each other.
type Service struct {
	cfg Config
	log zerolog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	sessionCount atomic.Int64
}

func New(cfg Config, log zerolog.Logger) *Service {
	if cfg.ReadBufferBytes < tlv.HeaderLen {
		cfg.ReadBufferBytes = DefaultConfig().ReadBufferBytes
	}
	observability.RegisterMetrics()
	return &Service{
		cfg:   cfg,
		log:   log,
		conns: make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("calculator listening")
	return s.Serve(ctx, ln)
}

func (s *Service) listen() (net.Listener, error) {
	// net.Listen on a wildcard address binds dual-stack where the host
	// supports it.
	return net.Listen("tcp", s.cfg.ListenAddr)
}

// Serve runs the accept loop on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(conn)
	}
}

// handleConn owns one session for the lifetime of one connection. A read
// failure or end-of-stream ends the session; so does a failed write, since
// the client would otherwise observe a gap in the answer sequence.
func (s *Service) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	remote := conn.RemoteAddr().String()
	active := s.sessionCount.Add(1)
	observability.SessionOpened()
	log := s.log.With().Str("remote", remote).Logger()
	log.Info().Int64("active_sessions", active).Msg("session started")
	defer func() {
		remaining := s.sessionCount.Add(-1)
		observability.SessionClosed()
		log.Info().Int64("active_sessions", remaining).Msg("session ended")
	}()

	session := calc.NewSession()
	buf := make([]byte, s.cfg.ReadBufferBytes)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if !s.serveBuffer(log, session, conn, buf[:n]) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// serveBuffer answers every frame packed into one read, in order. Returns
// false when the connection is no longer usable.
func (s *Service) serveBuffer(log zerolog.Logger, session *calc.Session, conn net.Conn, buf []byte) bool {
	r := tlv.NewReader(buf)
	for {
		f, ok := r.Next()
		if !ok {
			if err := r.Err(); err != nil {
				log.Warn().Err(err).Int("offset", r.Offset()).Msg("dropped undecodable bytes")
			}
			return true
		}
		ans := s.evaluate(log, session, f)
		encoded, err := ans.Encode(s.cfg.Order)
		if err != nil {
			log.Error().Err(err).Msg("answer encode failed")
			return false
		}
		if _, err := conn.Write(encoded); err != nil {
			log.Warn().Err(err).Msg("answer write failed")
			return false
		}
		observability.RecordAnswer()
	}
}

func (s *Service) evaluate(log zerolog.Logger, session *calc.Session, f tlv.Frame) answer.Answer {
	op, err := operation.FromFrame(f)
	if err != nil {
		observability.RecordOperation("invalid", observability.OutcomeRejected)
		log.Warn().Err(err).Msg("could not decode operation")
		return answer.Answer{Acc: session.Accumulator(), Message: err.Error()}
	}

	ans := session.Apply(op)
	if ans.Message != "" {
		observability.RecordOperation(op.Kind.String(), observability.OutcomeRejected)
		log.Warn().Str("op", op.String()).Str("reason", ans.Message).Msg("operation rejected")
		return ans
	}
	observability.RecordOperation(op.Kind.String(), observability.OutcomeOK)
	log.Info().Str("op", op.String()).Int64("acc", ans.Acc).Msg("operation evaluated")
	return ans
}

func (s *Service) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Service) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
