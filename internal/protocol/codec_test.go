package protocol

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

func TestDecode_Classification(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		op   Op
	}{
		{"save", `{"name":"alice","ip":"203.0.113.5","password":"pw"}`, OpSave},
		{"save null password", `{"name":"alice","ip":"203.0.113.5","password":null,"expire":60,"max":120,"settings":{"a":1}}`, OpSave},
		{"load", `{"ip":"203.0.113.5","session_id":"abc"}`, OpLoad},
		{"close", `{"ip":"203.0.113.5","session_id":"abc","close":true}`, OpClose},
		{"flush", `{"flush":true}`, OpFlush},
		{"flush with newline", "{\"flush\":true}\n", OpFlush},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := Decode([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if req.Op != tc.op {
				t.Fatalf("op = %s, want %s", req.Op, tc.op)
			}
		})
	}
}

func TestDecode_SaveFields(t *testing.T) {
	req, err := Decode([]byte(`{"name":"alice","ip":"::ffff:203.0.113.5","password":"s3cret","expire":600,"max":1800,"settings":{"theme":"dark"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p := req.Save
	if p.Addr != "203.0.113.5" || req.Addr != "203.0.113.5" {
		t.Errorf("addr = %q", p.Addr)
	}
	if p.Name != "alice" || p.Password == nil || *p.Password != "s3cret" {
		t.Errorf("name/password = %q/%v", p.Name, p.Password)
	}
	if p.Expire == nil || *p.Expire != 600 || p.Max == nil || *p.Max != 1800 {
		t.Errorf("expire/max = %v/%v", p.Expire, p.Max)
	}
	if p.Settings["theme"] != "dark" {
		t.Errorf("settings = %v", p.Settings)
	}

	req, err = Decode([]byte(`{"name":"bob","ip":"10.0.0.1","password":null,"settings":null,"expire":1e30}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Save.Password != nil || req.Save.Settings != nil || req.Save.Max != nil {
		t.Errorf("null values should decode as absent: %+v", req.Save)
	}
	if req.Save.Expire == nil || *req.Save.Expire <= 0 {
		t.Errorf("huge expire should saturate, got %v", req.Save.Expire)
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		target string
	}{
		{"empty", "", TargetRequest},
		{"whitespace", " \n", TargetRequest},
		{"malformed", `{"flush":`, TargetRequest},
		{"array", `[1,2]`, TargetRequest},
		{"invalid utf8 password", "{\"name\":\"a\",\"ip\":\"10.0.0.1\",\"password\":\"p\xffw\"}", TargetRequest},
		{"invalid utf8 key", "{\"flush\":true,\"\xfe\":1}", TargetRequest},
		{"null", `null`, TargetRequest},
		{"no known key", `{"ip":"10.0.0.1"}`, TargetRequest},
		{"flush extra key", `{"flush":true,"ip":"10.0.0.1"}`, TargetRequest},
		{"flush false", `{"flush":false}`, TargetRequest},
		{"close extra key", `{"ip":"10.0.0.1","session_id":"x","close":true,"name":"a"}`, TargetRequest},
		{"close missing id", `{"ip":"10.0.0.1","close":true}`, TargetRequest},
		{"close not true", `{"ip":"10.0.0.1","session_id":"x","close":1}`, TargetRequest},
		{"load extra key", `{"ip":"10.0.0.1","session_id":"x","expire":5}`, TargetRequest},
		{"save unknown key", `{"name":"a","ip":"10.0.0.1","password":null,"role":"admin"}`, TargetRequest},
		{"save missing password", `{"name":"a","ip":"10.0.0.1"}`, TargetRequest},
		{"bad ip", `{"name":"a","ip":"300.1.1.1","password":null}`, TargetIP},
		{"ip not string", `{"ip":42,"session_id":"x"}`, TargetIP},
		{"bad name", `{"name":"a b","ip":"10.0.0.1","password":null}`, TargetName},
		{"empty name", `{"name":"","ip":"10.0.0.1","password":null}`, TargetName},
		{"password number", `{"name":"a","ip":"10.0.0.1","password":5}`, TargetPassword},
		{"expire zero", `{"name":"a","ip":"10.0.0.1","password":null,"expire":0}`, TargetExpire},
		{"expire fraction", `{"name":"a","ip":"10.0.0.1","password":null,"expire":1.5}`, TargetExpire},
		{"max string", `{"name":"a","ip":"10.0.0.1","password":null,"max":"60"}`, TargetMax},
		{"max negative", `{"name":"a","ip":"10.0.0.1","password":null,"max":-1}`, TargetMax},
		{"settings list", `{"name":"a","ip":"10.0.0.1","password":null,"settings":[1]}`, TargetSettings},
		{"empty session id", `{"ip":"10.0.0.1","session_id":""}`, TargetSessionID},
		{"session id number", `{"ip":"10.0.0.1","session_id":7}`, TargetSessionID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if perr.Target != tc.target {
				t.Fatalf("target = %q (%s), want %q", perr.Target, perr.Message, tc.target)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	out := Encode(Failure(newError(TargetNotFound, "session not found")))
	if !strings.HasSuffix(string(out), "\n") {
		t.Fatalf("response must end with newline: %q", out)
	}

	var env map[string]any
	if err := sonic.Unmarshal(out, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env["result"] != false {
		t.Errorf("result = %v, want false", env["result"])
	}
	errObj, ok := env["error"].(map[string]any)
	if !ok || errObj["target"] != TargetNotFound {
		t.Errorf("error = %v", env["error"])
	}

	out = Encode(Success(true))
	if string(out) != "{\"error\":false,\"result\":true}\n" {
		t.Errorf("success = %q", out)
	}

	pw := "p\xffw"
	out = Encode(Success(LoadResult{Name: "a", Password: &pw, Settings: map[string]any{}}))
	if !utf8.Valid(out) {
		t.Errorf("invalid UTF-8 leaked into response: %q", out)
	}
}
