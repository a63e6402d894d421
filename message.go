package mcp

import (
	"bytes"
	"encoding/json"

	"github.com/mcpkit/mcpcore/code"
)

const jsonrpcVersion = "2.0"

// frame is the wire transmission form of a single JSON-RPC message, before it
// has been classified as a request, a notification, or a response.
//
// Encoding always emits keys in the fixed lexicographic order
// error, id, jsonrpc, method, params, result (omitting absent fields) and
// never escapes forward slashes, so that two frames built from equal inputs
// always produce byte-identical output.
type frame struct {
	hasID  bool
	id     json.RawMessage
	method string
	params Value

	hasResult bool
	result    Value
	err       *Error

	parseErr *Error // non-nil if the frame could not be parsed at all
}

type frameKind int

const (
	frameInvalid frameKind = iota
	frameRequest
	frameNotification
	frameResponse
)

func (f *frame) classify() frameKind {
	switch {
	case f.hasID && (f.hasResult || f.err != nil):
		return frameResponse
	case f.hasID && f.method != "":
		return frameRequest
	case f.method != "" && !f.hasID:
		return frameNotification
	default:
		return frameInvalid
	}
}

// parseFrame decodes one JSON-RPC envelope. It never returns a nil *frame;
// a frame that could not be understood at all carries a non-nil parseErr.
func parseFrame(data []byte) *frame {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return &frame{parseErr: &Error{Code: code.ParseError, Message: "request is not a JSON object"}}
	}
	f := &frame{}

	if raw, ok := obj["id"]; ok && !isNullJSON(raw) {
		f.hasID = true
		f.id = raw
	}
	if raw, ok := obj["method"]; ok {
		var m string
		if err := json.Unmarshal(raw, &m); err != nil {
			f.parseErr = &Error{Code: code.ParseError, Message: "invalid method name"}
			return f
		}
		f.method = m
	}
	if raw, ok := obj["params"]; ok && !isNullJSON(raw) {
		if fb := firstNonSpace(raw); fb != '[' && fb != '{' {
			f.parseErr = &Error{Code: code.InvalidRequest, Message: "params must be an array or object"}
			return f
		}
		f.params = Value(raw)
	}
	if raw, ok := obj["result"]; ok {
		f.hasResult = true
		f.result = Value(raw)
	}
	if raw, ok := obj["error"]; ok {
		var e Error
		if err := json.Unmarshal(raw, &e); err != nil {
			f.parseErr = &Error{Code: code.ParseError, Message: "invalid error value"}
			return f
		}
		f.err = &e
	}
	if f.method != "" && (f.hasResult || f.err != nil) {
		f.parseErr = &Error{Code: code.InvalidRequest, Message: "mixed request and response fields"}
		return f
	}
	return f
}

// recoverID best-effort extracts a usable id from a frame that otherwise
// failed to parse, for use in a diagnostic ParseError/InvalidRequest reply.
func recoverID(data []byte) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	raw, ok := obj["id"]
	if !ok || isNullJSON(raw) {
		return nil, false
	}
	return raw, true
}

// encode renders f to its canonical wire form.
func (f *frame) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	wrote := false
	put := func(key string, raw []byte) {
		if wrote {
			buf.WriteByte(',')
		}
		wrote = true
		buf.WriteByte('"')
		buf.WriteString(key)
		buf.WriteString(`":`)
		buf.Write(raw)
	}

	if f.err != nil {
		eb, err := marshalNoEscape(f.err)
		if err != nil {
			return nil, err
		}
		put("error", eb)
	}
	if f.hasID {
		put("id", f.id)
	}
	put("jsonrpc", []byte(`"`+jsonrpcVersion+`"`))
	if f.method != "" {
		mb, err := marshalNoEscape(f.method)
		if err != nil {
			return nil, err
		}
		put("method", mb)
		if len(f.params) != 0 {
			put("params", []byte(f.params))
		}
	} else if f.hasResult {
		result := f.result
		if len(result) == 0 {
			result = Null
		}
		put("result", []byte(result))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape marshals v to JSON without HTML-escaping '<', '>', '&', so
// that encode's output never differs from what a caller inspecting the JSON
// text by eye would expect.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isNullJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func firstNonSpace(data []byte) byte {
	t := bytes.TrimSpace(data)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}
