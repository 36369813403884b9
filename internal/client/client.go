// Package client is the transport driver and interactive front end for the
// calculator protocol.
package client

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/danmuck/tcpcalc/internal/protocol/answer"
	"github.com/danmuck/tcpcalc/internal/protocol/operation"
	"github.com/danmuck/tcpcalc/internal/protocol/tlv"
)

const replyBufferBytes = 2048

// Client holds one stream connection to a calculator server.
type Client struct {
	addr string
	conn net.Conn
	buf  []byte
}

// Dial opens one connection without retrying.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{addr: addr, conn: conn, buf: make([]byte, replyBufferBytes)}, nil
}

// DialRetry keeps dialing with backoff until a connection succeeds, the
// attempt budget runs out, or ctx is cancelled.
func DialRetry(ctx context.Context, addr string, cfg BackoffConfig, maxAttempts int) (*Client, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 1; maxAttempts <= 0 || attempt <= maxAttempts; attempt++ {
		c, err := Dial(addr)
		if err == nil {
			return c, nil
		}
		lastErr = err
		if maxAttempts > 0 && attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(NextBackoffDelay(cfg, attempt, rng)):
		}
	}
	return nil, lastErr
}

// Submit writes one encoded request and decodes the next reply buffer into
// an answer. One submit maps to exactly one answer.
func (c *Client) Submit(op operation.Operation) (answer.Answer, error) {
	if _, err := c.conn.Write(op.Encode()); err != nil {
		return answer.Answer{}, fmt.Errorf("client: write request: %w", err)
	}
	n, err := c.conn.Read(c.buf)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("client: read reply: %w", err)
	}
	f, _, err := tlv.Decode(c.buf[:n])
	if err != nil {
		return answer.Answer{}, fmt.Errorf("client: decode reply: %w", err)
	}
	return answer.FromFrame(f)
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) Close() error {
	return c.conn.Close()
}
