package mcp

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"
)

// An ID is a JSON-RPC request identifier. It is either a string or a number;
// the zero ID is the number 0, which is distinct from an absent ID (used by
// notifications).
type ID struct {
	str      string
	num      int64
	isString bool
}

// StringID returns an ID whose wire representation is the JSON string s.
func StringID(s string) ID { return ID{str: s, isString: true} }

// IntID returns an ID whose wire representation is the JSON number n.
func IntID(n int64) ID { return ID{num: n} }

// IsZero reports whether id is the zero value of ID (the integer 0). The
// zero ID is a valid id like any other; callers that need to distinguish
// "no id" (as for a notification) must track that separately, e.g. with a
// *ID or a bool.
func (id ID) IsZero() bool { return !id.isString && id.num == 0 }

// String returns a human-readable rendering of id, primarily for logs.
func (id ID) String() string {
	if id.isString {
		return strconv.Quote(id.str)
	}
	return strconv.FormatInt(id.num, 10)
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

// UnmarshalJSON implements json.Unmarshaler. It accepts a JSON string or a
// JSON number; any other value is rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("mcp: empty id")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{str: s, isString: true}
		return nil
	case 'n':
		return fmt.Errorf("mcp: invalid id %s", data)
	default:
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("mcp: invalid id %s: %w", data, err)
		}
		*id = ID{num: n}
		return nil
	}
}

// Equal reports whether id and other denote the same JSON-RPC identifier,
// preserving the string/number variant: the string "1" and the number 1 are
// distinct ids.
func (id ID) Equal(other ID) bool {
	return id.isString == other.isString && id.str == other.str && id.num == other.num
}

// key returns a value suitable for use as a map key that preserves the
// string/number distinction.
func (id ID) key() any {
	if id.isString {
		return "s:" + id.str
	}
	return "n:" + strconv.FormatInt(id.num, 10)
}

// An IDGenerator produces fresh, session-unique request identifiers.
type IDGenerator interface {
	Next() ID
}

// counterIDs generates monotonically increasing integer ids starting at 1,
// so that a server implementation treating 0 as equivalent to an absent id
// is never confused by a live request.
type counterIDs struct{ next atomic.Int64 }

// NewCounterIDs returns an IDGenerator that produces 1, 2, 3, ... in order.
func NewCounterIDs() IDGenerator {
	c := &counterIDs{}
	c.next.Store(1)
	return c
}

func (c *counterIDs) Next() ID { return IntID(c.next.Add(1) - 1) }

// randomID generates an id for a diagnostic response to a frame whose own
// id could not be recovered. Randomness keeps it from colliding with any id
// a live caller may be waiting on.
func randomID() ID { return IntID(rand.Int63()) }
