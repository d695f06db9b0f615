package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tgifai/sessiond/internal/protocol"
)

const (
	defaultTimeout  = 2 * time.Second
	maxResponseSize = 1 << 20
)

// Client speaks the one-request-per-connection socket protocol.
type Client struct {
	network string
	address string
	timeout time.Duration
}

func New(network, address string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{network: network, address: address, timeout: timeout}
}

// Reply is a decoded response envelope. Err is nil when the daemon
// reported success.
type Reply struct {
	Err    *protocol.Error
	Result any
}

// Do sends one request object and returns the daemon's reply. Transport
// failures are returned as errors; protocol failures are reported in
// Reply.Err.
func (c *Client) Do(ctx context.Context, req map[string]any) (*Reply, error) {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	raw, err := c.roundTrip(ctx, append(payload, '\n'))
	if err != nil {
		return nil, err
	}
	return decodeReply(raw)
}

// Flush asks the daemon to sweep everything due now.
func (c *Client) Flush(ctx context.Context) error {
	reply, err := c.Do(ctx, map[string]any{"flush": true})
	if err != nil {
		return err
	}
	if reply.Err != nil {
		return reply.Err
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, c.network, c.address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", c.network, c.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = hc.CloseWrite()
	}

	line, err := bufio.NewReader(io.LimitReader(conn, maxResponseSize)).ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

func decodeReply(raw []byte) (*Reply, error) {
	var env struct {
		Error  any `json:"error"`
		Result any `json:"result"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	reply := &Reply{Result: env.Result}
	switch e := env.Error.(type) {
	case bool:
		if e {
			reply.Err = &protocol.Error{Target: protocol.TargetInternal, Message: "unspecified error"}
		}
	case map[string]any:
		target, _ := e["target"].(string)
		message, _ := e["message"].(string)
		reply.Err = &protocol.Error{Target: target, Message: message}
	default:
		return nil, fmt.Errorf("decode response: unexpected error field %v", env.Error)
	}
	return reply, nil
}
