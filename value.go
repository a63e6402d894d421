package mcp

import "encoding/json"

// A Value is an untyped JSON document tree: the params of a request or
// notification, or the result of a response. It round-trips to and from
// bytes without interpreting its contents, and supports decoding into a
// caller-chosen Go type on demand.
type Value json.RawMessage

// Null is the JSON null value.
var Null = Value("null")

// IsNull reports whether v is empty or is exactly the JSON null literal.
func (v Value) IsNull() bool {
	return len(v) == 0 || string(v) == "null"
}

// Decode unmarshals v into out. If v is empty, out is left unmodified and no
// error is returned — this matches the treatment of absent params/result.
func (v Value) Decode(out any) error {
	if len(v) == 0 {
		return nil
	}
	return json.Unmarshal(v, out)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = append((*v)[:0], data...)
	return nil
}

// ValueOf marshals x to JSON and wraps the result as a Value. A nil x
// produces an empty Value (absent params/result), not a JSON null.
func ValueOf(x any) (Value, error) {
	if x == nil {
		return nil, nil
	}
	bits, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	return Value(bits), nil
}
