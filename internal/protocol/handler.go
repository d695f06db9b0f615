package protocol

import (
	"context"
	"errors"

	"github.com/tgifai/sessiond/internal/pkg/logs"
	"github.com/tgifai/sessiond/internal/pkg/prometheus"
	"github.com/tgifai/sessiond/internal/session"
)

const opInvalid = "invalid"

// Handler turns one raw request into one encoded response. It owns no
// connection state; the accept loop calls it once per connection.
type Handler struct {
	store   *session.Store
	metrics *prometheus.Metrics
}

func NewHandler(store *session.Store, metrics *prometheus.Metrics) *Handler {
	return &Handler{store: store, metrics: metrics}
}

// Handle decodes raw, dispatches it against the store and returns the
// newline-terminated response. It never fails: every error becomes an error
// envelope.
func (h *Handler) Handle(ctx context.Context, raw []byte) []byte {
	return Encode(h.Serve(ctx, raw))
}

func (h *Handler) Serve(ctx context.Context, raw []byte) Response {
	req, err := Decode(raw)
	if err != nil {
		var perr *Error
		errors.As(err, &perr)
		logs.CtxDebug(ctx, "[protocol] rejected request: %v", perr)
		h.metrics.ObserveRequest(opInvalid, false)
		return Failure(perr)
	}

	before := h.store.Len()
	resp := h.dispatch(ctx, req)
	after := h.store.Len()

	if req.Op == OpLoad && after < before {
		h.metrics.AddSwept(before - after)
	}
	h.metrics.SetSessions(after)
	h.metrics.ObserveRequest(string(req.Op), resp.Error == false)
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req *Request) Response {
	switch req.Op {
	case OpSave:
		res, err := h.store.Save(req.Save)
		if err != nil {
			return h.storeFailure(ctx, req, err)
		}
		logs.CtxInfo(ctx, "[protocol] saved session for %s@%s", req.Save.Name, req.Addr)
		return Success(SaveResult{
			SessionID: res.ID,
			Expire:    res.Expire,
			Max:       res.Max,
			Interval:  res.Interval,
		})

	case OpLoad:
		res, err := h.store.Load(req.Addr, req.SessionID)
		if err != nil {
			return h.storeFailure(ctx, req, err)
		}
		settings := res.Settings
		if settings == nil {
			settings = map[string]any{}
		}
		return Success(LoadResult{
			Name:     res.Name,
			Password: res.Password,
			Expire:   res.Expire,
			Max:      res.Max,
			Interval: res.Interval,
			Settings: settings,
		})

	case OpClose:
		if err := h.store.Close(req.Addr, req.SessionID); err != nil {
			return h.storeFailure(ctx, req, err)
		}
		logs.CtxInfo(ctx, "[protocol] closed session for %s", req.Addr)
		return Success(true)

	case OpFlush:
		n := h.store.Flush()
		h.metrics.AddSwept(n)
		if n > 0 {
			logs.CtxInfo(ctx, "[protocol] flush removed %d sessions", n)
		}
		return Success(true)
	}

	return Failure(newError(TargetRequest, "unrecognized request"))
}

func (h *Handler) storeFailure(ctx context.Context, req *Request, err error) Response {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return Failure(newError(TargetNotFound, "session not found"))
	case errors.Is(err, session.ErrConflict):
		logs.CtxWarn(ctx, "[protocol] session id collision for %s, client must retry", req.Addr)
		return Failure(newError(TargetConflict, "session id collision, retry"))
	case errors.Is(err, session.ErrEntropy):
		logs.CtxError(ctx, "[protocol] %s failed: %v", req.Op, err)
		return Failure(newError(TargetInternal, "entropy source unavailable"))
	default:
		logs.CtxError(ctx, "[protocol] %s failed: %v", req.Op, err)
		return Failure(newError(TargetInternal, "internal error"))
	}
}
