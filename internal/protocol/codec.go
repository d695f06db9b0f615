package protocol

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/bytedance/gg/gconv"
	"github.com/bytedance/gg/gslice"
	"github.com/bytedance/sonic"

	"github.com/tgifai/sessiond/internal/session"
)

type Op string

const (
	OpSave  Op = "save"
	OpLoad  Op = "load"
	OpClose Op = "close"
	OpFlush Op = "flush"
)

// Error targets. Validation targets name the offending request key.
const (
	TargetRequest   = "request"
	TargetIP        = "ip"
	TargetName      = "name"
	TargetPassword  = "password"
	TargetExpire    = "expire"
	TargetMax       = "max"
	TargetSettings  = "settings"
	TargetSessionID = "session_id"
	TargetNotFound  = "not_found"
	TargetConflict  = "conflict"
	TargetInternal  = "internal"
)

// Error is the error object of a response envelope.
type Error struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Target + ": " + e.Message
}

func newError(target, format string, args ...any) *Error {
	return &Error{Target: target, Message: fmt.Sprintf(format, args...)}
}

// Request is a decoded and validated request. Only the fields relevant to
// Op are set.
type Request struct {
	Op        Op
	Addr      string
	SessionID string
	Save      session.SaveParams
}

var allowedKeys = map[Op][]string{
	OpSave:  {"name", "ip", "password", "expire", "max", "settings"},
	OpLoad:  {"ip", "session_id"},
	OpClose: {"ip", "session_id", "close"},
	OpFlush: {"flush"},
}

var requiredKeys = map[Op][]string{
	OpSave:  {"name", "ip", "password"},
	OpLoad:  {"ip", "session_id"},
	OpClose: {"ip", "session_id", "close"},
	OpFlush: {"flush"},
}

// wire rejects invalid UTF-8 on decode and escapes it on encode, so every
// stored string can be written back as valid JSON.
var wire = sonic.Config{ValidateString: true}.Froze()

// Decode parses one request object. The returned error is always an *Error.
func Decode(raw []byte) (*Request, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, newError(TargetRequest, "empty request")
	}

	if !utf8.Valid(raw) {
		return nil, newError(TargetRequest, "malformed JSON")
	}

	var fields map[string]any
	if err := wire.Unmarshal(raw, &fields); err != nil {
		return nil, newError(TargetRequest, "malformed JSON")
	}
	if fields == nil {
		return nil, newError(TargetRequest, "request must be a JSON object")
	}

	op := classify(fields)
	if op == "" {
		return nil, newError(TargetRequest, "unrecognized request")
	}
	for key := range fields {
		if !gslice.Contains(allowedKeys[op], key) {
			return nil, newError(TargetRequest, "unexpected key %q for %s", key, op)
		}
	}
	for _, key := range requiredKeys[op] {
		if _, ok := fields[key]; !ok {
			return nil, newError(TargetRequest, "missing key %q for %s", key, op)
		}
	}

	req := &Request{Op: op}
	switch op {
	case OpFlush:
		if fields["flush"] != true {
			return nil, newError(TargetRequest, "flush must be true")
		}
		return req, nil
	case OpClose:
		if fields["close"] != true {
			return nil, newError(TargetRequest, "close must be true")
		}
	}

	addr, err := decodeAddr(fields["ip"])
	if err != nil {
		return nil, err
	}
	req.Addr = addr

	if op == OpLoad || op == OpClose {
		id, ok := fields["session_id"].(string)
		if !ok || id == "" {
			return nil, newError(TargetSessionID, "session_id must be a non-empty string")
		}
		req.SessionID = id
		return req, nil
	}

	params, err := decodeSave(fields)
	if err != nil {
		return nil, err
	}
	params.Addr = addr
	req.Save = params
	return req, nil
}

// classify picks the operation from the keys present, in priority order
// flush, close, save, load.
func classify(fields map[string]any) Op {
	for _, cand := range []struct {
		key string
		op  Op
	}{
		{"flush", OpFlush},
		{"close", OpClose},
		{"name", OpSave},
		{"session_id", OpLoad},
	} {
		if _, ok := fields[cand.key]; ok {
			return cand.op
		}
	}
	return ""
}

func decodeAddr(v any) (string, error) {
	raw, ok := v.(string)
	if !ok {
		return "", newError(TargetIP, "ip must be a string")
	}
	addr, ok := session.NormalizeAddr(raw)
	if !ok {
		return "", newError(TargetIP, "invalid address")
	}
	return addr, nil
}

func decodeSave(fields map[string]any) (session.SaveParams, error) {
	var p session.SaveParams

	name, ok := fields["name"].(string)
	if !ok || !session.ValidName(name) {
		return p, newError(TargetName, "name must match [A-Za-z0-9_-]+")
	}
	p.Name = name

	switch pw := fields["password"].(type) {
	case nil:
	case string:
		p.Password = &pw
	default:
		return p, newError(TargetPassword, "password must be a string or null")
	}

	var err error
	if p.Expire, err = decodeSeconds(TargetExpire, fields["expire"]); err != nil {
		return p, err
	}
	if p.Max, err = decodeSeconds(TargetMax, fields["max"]); err != nil {
		return p, err
	}

	switch s := fields["settings"].(type) {
	case nil:
	case map[string]any:
		p.Settings = s
	default:
		return p, newError(TargetSettings, "settings must be an object")
	}
	return p, nil
}

// decodeSeconds accepts a positive whole number of seconds. Absent and null
// both mean no request. Values beyond int64 saturate and get clamped later.
func decodeSeconds(target string, v any) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f <= 0 {
		return nil, newError(target, "%s must be a positive whole number of seconds", target)
	}
	n := int64(math.MaxInt64)
	if f < math.MaxInt64 {
		n = gconv.To[int64](f)
	}
	return &n, nil
}

// Response is the envelope written back for every request. Error is false
// on success, Result is false on failure.
type Response struct {
	Error  any `json:"error"`
	Result any `json:"result"`
}

type SaveResult struct {
	SessionID string `json:"session_id"`
	Expire    int64  `json:"expire"`
	Max       int64  `json:"max"`
	Interval  int64  `json:"interval"`
}

type LoadResult struct {
	Name     string         `json:"name"`
	Password *string        `json:"password"`
	Expire   int64          `json:"expire"`
	Max      int64          `json:"max"`
	Interval int64          `json:"interval"`
	Settings map[string]any `json:"settings"`
}

func Success(result any) Response {
	return Response{Error: false, Result: result}
}

func Failure(err *Error) Response {
	return Response{Error: err, Result: false}
}

var internalFailure = []byte(`{"error":{"target":"internal","message":"encode response"},"result":false}` + "\n")

// Encode renders resp as one newline-terminated line.
func Encode(resp Response) []byte {
	out, err := wire.Marshal(resp)
	if err != nil {
		return bytes.Clone(internalFailure)
	}
	return append(out, '\n')
}
