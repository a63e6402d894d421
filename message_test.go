package mcp

import (
	"strings"
	"testing"

	"github.com/mcpkit/mcpcore/code"
)

func TestFrameClassify(t *testing.T) {
	tests := []struct {
		name string
		data string
		want frameKind
	}{
		{"request", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, frameRequest},
		{"notification", `{"jsonrpc":"2.0","method":"ping"}`, frameNotification},
		{"result-response", `{"jsonrpc":"2.0","id":1,"result":{}}`, frameResponse},
		{"error-response", `{"jsonrpc":"2.0","id":1,"error":{"code":-32600,"message":"bad"}}`, frameResponse},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := parseFrame([]byte(test.data))
			if f.parseErr != nil {
				t.Fatalf("parseFrame: %v", f.parseErr)
			}
			if got := f.classify(); got != test.want {
				t.Errorf("classify() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestParseFrameRejectsNonObject(t *testing.T) {
	f := parseFrame([]byte(`[1,2,3]`))
	if f.parseErr == nil {
		t.Fatalf("parseFrame of an array should fail")
	}
	if f.parseErr.Code != code.ParseError {
		t.Errorf("parseErr.Code = %v, want %v", f.parseErr.Code, code.ParseError)
	}
}

func TestParseFrameRejectsMixedFields(t *testing.T) {
	f := parseFrame([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping","result":{}}`))
	if f.parseErr == nil {
		t.Fatalf("parseFrame should reject a frame with both method and result")
	}
	if f.parseErr.Code != code.InvalidRequest {
		t.Errorf("parseErr.Code = %v, want %v", f.parseErr.Code, code.InvalidRequest)
	}
}

func TestParseFrameRejectsScalarParams(t *testing.T) {
	f := parseFrame([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping","params":5}`))
	if f.parseErr == nil {
		t.Fatalf("parseFrame should reject scalar params")
	}
}

func TestFrameEncodeKeyOrder(t *testing.T) {
	f := &frame{hasID: true, id: []byte(`7`), method: "ping", params: Value(`{"a":1}`)}
	bits, err := f.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := string(bits)
	wantOrder := []string{`"id"`, `"jsonrpc"`, `"method"`, `"params"`}
	last := -1
	for _, key := range wantOrder {
		idx := strings.Index(got, key)
		if idx < 0 {
			t.Fatalf("encoded frame %s missing key %s", got, key)
		}
		if idx < last {
			t.Fatalf("encoded frame %s has key %s out of order", got, key)
		}
		last = idx
	}
}

func TestFrameEncodeNoEscapeHTML(t *testing.T) {
	f := &frame{method: "echo", params: Value(`{"text":"<b>&amp;</b>"}`)}
	bits, err := f.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(bits), `<b>&amp;</b>`) {
		t.Errorf("encode escaped HTML characters: %s", bits)
	}
}

func TestFrameEncodeDeterministic(t *testing.T) {
	f1 := &frame{hasID: true, id: []byte(`1`), hasResult: true, result: Value(`{"x":1}`)}
	f2 := &frame{hasID: true, id: []byte(`1`), hasResult: true, result: Value(`{"x":1}`)}
	b1, err := f1.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b2, err := f2.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b1) != string(b2) {
		t.Errorf("encode not deterministic: %s != %s", b1, b2)
	}
}

func TestRecoverID(t *testing.T) {
	if id, ok := recoverID([]byte(`{"id":"x","method":"broken"`)); ok {
		t.Errorf("recoverID of truncated JSON should fail, got %s", id)
	}
	id, ok := recoverID([]byte(`{"id":9,"method":"ping"}`))
	if !ok {
		t.Fatalf("recoverID should find the id")
	}
	if string(id) != "9" {
		t.Errorf("recoverID = %s, want 9", id)
	}
}
