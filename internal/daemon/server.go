package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/tgifai/sessiond/internal/consts"
	"github.com/tgifai/sessiond/internal/pkg/logs"
)

const maxAcceptBackoff = time.Second

// Handler answers one raw request with one encoded response.
type Handler interface {
	Handle(ctx context.Context, raw []byte) []byte
}

type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int
}

func (o *Options) fill() {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = consts.DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = consts.DefaultWriteTimeout
	}
	if o.MaxRequestBytes <= 0 {
		o.MaxRequestBytes = consts.DefaultMaxRequestBytes
	}
}

// Server is the accept loop. Connections are handled strictly one at a
// time on the goroutine running Serve, so the handler's state needs no
// locking.
type Server struct {
	ln      net.Listener
	handler Handler
	opts    Options
	closing atomic.Bool
}

func NewServer(ln net.Listener, h Handler, opts Options) *Server {
	opts.fill()
	return &Server{ln: ln, handler: h, opts: opts}
}

// Serve accepts until Close is called or the listener fails for good.
// Per-connection errors are logged and never end the loop.
func (s *Server) Serve(ctx context.Context) error {
	logs.CtxInfo(ctx, "[daemon] accepting on %s %s", s.ln.Addr().Network(), s.ln.Addr())

	var backoff time.Duration
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = nextBackoff(backoff)
			logs.CtxWarn(ctx, "[daemon] accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		s.serveConn(ctx, conn)
	}
}

// Close stops the accept loop. The in-flight connection, if any, finishes.
func (s *Server) Close() error {
	s.closing.Store(true)
	return s.ln.Close()
}

func nextBackoff(cur time.Duration) time.Duration {
	if cur == 0 {
		return 5 * time.Millisecond
	}
	return min(cur*2, maxAcceptBackoff)
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	ctx = logs.SetLogID(ctx, logs.NewLogID())
	ctx = context.WithValue(ctx, consts.CtxKeyRemote, conn.RemoteAddr().String())

	buf := mcache.Malloc(s.opts.MaxRequestBytes)
	defer func() {
		clear(buf)
		mcache.Free(buf)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	n, err := readRequest(conn, buf)
	if err != nil {
		logs.CtxDebug(ctx, "[daemon] dropping connection: %v", err)
		return
	}

	resp := s.handler.Handle(ctx, buf[:n])
	defer clear(resp)

	_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	if _, err := conn.Write(resp); err != nil {
		logs.CtxDebug(ctx, "[daemon] write response: %v", err)
	}
}

// readRequest fills buf until a newline, end of stream, or a full buffer.
// It returns the length of the request without the terminator. Any read
// error, including the deadline, is a failed read.
func readRequest(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		if i := bytes.IndexByte(buf[n:n+m], '\n'); i >= 0 {
			return n + i, nil
		}
		n += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return 0, fmt.Errorf("read request: %w", err)
		}
	}
	return n, nil
}
