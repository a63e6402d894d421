package mcp

import "github.com/mcpkit/mcpcore/code"

// A Request is an inbound or outbound JSON-RPC request: it carries an id
// that its matching Response must echo.
type Request struct {
	id     ID
	method string
	params Value
}

// NewRequest constructs a Request with the given id, method, and params.
func NewRequest(id ID, method string, params Value) *Request {
	return &Request{id: id, method: method, params: params}
}

// ID returns the request's identifier.
func (r *Request) ID() ID { return r.id }

// Method returns the request's method name.
func (r *Request) Method() string { return r.method }

// Params returns the request's raw parameter value.
func (r *Request) Params() Value { return r.params }

// UnmarshalParams decodes the request's params into v. A request with no
// params leaves v unmodified. A decoding failure is reported as an
// InvalidParams *Error so that handler code can return it unchanged.
func (r *Request) UnmarshalParams(v any) error {
	if err := r.params.Decode(v); err != nil {
		return Errorf(code.InvalidParams, "invalid parameters for %q: %v", r.method, err)
	}
	return nil
}

func (r *Request) toFrame() *frame {
	return &frame{hasID: true, id: mustMarshalID(r.id), method: r.method, params: r.params}
}

// A Notification is an inbound or outbound JSON-RPC notification: a request
// that carries no id and receives no Response.
type Notification struct {
	method string
	params Value
}

// NewNotification constructs a Notification with the given method and
// params.
func NewNotification(method string, params Value) *Notification {
	return &Notification{method: method, params: params}
}

// Method returns the notification's method name.
func (n *Notification) Method() string { return n.method }

// Params returns the notification's raw parameter value.
func (n *Notification) Params() Value { return n.params }

// UnmarshalParams decodes the notification's params into v, as
// Request.UnmarshalParams does for requests.
func (n *Notification) UnmarshalParams(v any) error {
	if err := n.params.Decode(v); err != nil {
		return Errorf(code.InvalidParams, "invalid parameters for %q: %v", n.method, err)
	}
	return nil
}

func (n *Notification) toFrame() *frame {
	return &frame{method: n.method, params: n.params}
}

func mustMarshalID(id ID) []byte {
	b, err := id.MarshalJSON()
	if err != nil {
		// ID.MarshalJSON only fails if json.Marshal of a string or int64
		// fails, which cannot happen.
		panic(err)
	}
	return b
}
