package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"

	"github.com/tgifai/sessiond/internal/config"
)

type stubFlusher struct {
	calls int
	err   error
}

func (f *stubFlusher) Flush(context.Context) error {
	f.calls++
	return f.err
}

func newTestServer(f Flusher) *Server {
	return New(config.AdminConfig{Bind: "127.0.0.1:0"}, f)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubFlusher{})
	w := ut.PerformRequest(s.httpServer.Engine, http.MethodGet, "/healthz", nil)
	resp := w.Result()
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), `"ok"`) {
		t.Fatalf("body = %s", resp.Body())
	}
}

func TestFlush(t *testing.T) {
	f := &stubFlusher{}
	s := newTestServer(f)

	w := ut.PerformRequest(s.httpServer.Engine, http.MethodPost, "/flush", nil)
	if code := w.Result().StatusCode(); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if f.calls != 1 {
		t.Fatalf("flush calls = %d, want 1", f.calls)
	}
}

func TestFlush_DaemonUnavailable(t *testing.T) {
	f := &stubFlusher{err: errors.New("dial unix: no such file")}
	s := newTestServer(f)

	w := ut.PerformRequest(s.httpServer.Engine, http.MethodPost, "/flush", nil)
	resp := w.Result()
	if resp.StatusCode() != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), "no such file") {
		t.Fatalf("body = %s", resp.Body())
	}
}

func TestFlush_WrongMethod(t *testing.T) {
	f := &stubFlusher{}
	s := newTestServer(f)

	w := ut.PerformRequest(s.httpServer.Engine, http.MethodGet, "/flush", nil)
	if code := w.Result().StatusCode(); code == http.StatusOK {
		t.Fatal("GET /flush should not succeed")
	}
	if f.calls != 0 {
		t.Fatal("flush must not run on GET")
	}
}
