package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"

	"github.com/mcpkit/mcpcore"
	"github.com/mcpkit/mcpcore/code"
	"github.com/mcpkit/mcpcore/transport"
)

// rawFrame is a loose decoding of a wire frame for assertions that need to
// see exactly what the server put on the transport.
type rawFrame struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int32  `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func startRawServer(t *testing.T, opts *mcp.ServerOptions) (transport.Transport, *mcp.Server, func()) {
	t.Helper()
	clientSide, serverSide := transport.Direct()
	srv := mcp.NewServer(serverSide, opts)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := clientSide.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return clientSide, srv, func() {
		clientSide.Disconnect()
		srv.Stop()
		srv.Wait()
		cancel()
	}
}

// readResponse reads frames from tr until one carries an id, skipping over
// any interleaved notifications.
func readResponse(t *testing.T, tr transport.Transport) rawFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		bits, err := tr.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		var f rawFrame
		if err := json.Unmarshal(bits, &f); err != nil {
			t.Fatalf("Unmarshal %q: %v", bits, err)
		}
		if len(f.ID) != 0 {
			return f
		}
	}
}

func sendRaw(t *testing.T, tr transport.Transport, frame string) {
	t.Helper()
	if err := tr.Send(context.Background(), []byte(frame)); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func initializeFrame(t *testing.T, id int, version string) string {
	t.Helper()
	params, err := json.Marshal(mcp.InitializeParams{
		ProtocolVersion: version,
		ClientInfo:      mcp.PeerInfo{Name: "raw", Version: "0"},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"initialize","params":%s}`, id, params)
}

func TestStrictServerRejectsPrematureRequest(t *testing.T) {
	defer leaktest.Check(t)()

	tr, srv, done := startRawServer(t, &mcp.ServerOptions{Strict: true})
	defer done()

	// Registration does not exempt a method from the initialize gate.
	mcp.RegisterMethod(srv.Methods(), "tools/list", func(_ context.Context, _ mcp.ListToolsParams) (mcp.ListToolsResult, error) {
		return mcp.ListToolsResult{}, nil
	})

	sendRaw(t, tr, `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`)
	resp := readResponse(t, tr)
	if resp.Error == nil || code.Code(resp.Error.Code) != code.InvalidRequest {
		t.Fatalf("premature request: got %+v, want InvalidRequest", resp)
	}
	if resp.Error.Message != "Server is not initialized" {
		t.Errorf("error message = %q, want %q", resp.Error.Message, "Server is not initialized")
	}

	// The rejection must not have consumed the handshake.
	sendRaw(t, tr, initializeFrame(t, 3, mcp.ProtocolVersion))
	if resp := readResponse(t, tr); resp.Error != nil {
		t.Errorf("initialize after rejection: %+v", resp.Error)
	}
}

func TestUnknownMethodResponse(t *testing.T) {
	defer leaktest.Check(t)()

	tr, _, done := startRawServer(t, nil)
	defer done()

	sendRaw(t, tr, initializeFrame(t, 1, mcp.ProtocolVersion))
	if resp := readResponse(t, tr); resp.Error != nil {
		t.Fatalf("initialize: %+v", resp.Error)
	}

	sendRaw(t, tr, `{"jsonrpc":"2.0","id":3,"method":"no/such","params":{}}`)
	resp := readResponse(t, tr)
	if resp.Error == nil || code.Code(resp.Error.Code) != code.MethodNotFound {
		t.Fatalf("unknown method: got %+v, want MethodNotFound", resp)
	}
	if !strings.Contains(resp.Error.Message, "no/such") {
		t.Errorf("error message %q should name the method", resp.Error.Message)
	}
}

func TestParseErrorKeepsRecoverableID(t *testing.T) {
	defer leaktest.Check(t)()

	tr, _, done := startRawServer(t, nil)
	defer done()

	// Parseable envelope, but not a valid initialize call: the error must
	// be keyed to the id the caller used.
	sendRaw(t, tr, `{"jsonrpc":"2.0","id":7,"method":"initialize"}`)
	resp := readResponse(t, tr)
	if string(resp.ID) != "7" {
		t.Errorf("response id = %s, want 7", resp.ID)
	}
	if resp.Error == nil {
		t.Errorf("an initialize call with no params should fail")
	}
}

func TestParseErrorGeneratesID(t *testing.T) {
	defer leaktest.Check(t)()

	tr, _, done := startRawServer(t, nil)
	defer done()

	sendRaw(t, tr, `not json`)
	resp := readResponse(t, tr)
	if len(resp.ID) == 0 {
		t.Errorf("a parse-error response should carry a generated id")
	}
	if resp.Error == nil || code.Code(resp.Error.Code) != code.ParseError {
		t.Fatalf("parse error: got %+v, want ParseError", resp)
	}
}

func TestSecondInitializeRejected(t *testing.T) {
	defer leaktest.Check(t)()

	tr, _, done := startRawServer(t, nil)
	defer done()

	sendRaw(t, tr, initializeFrame(t, 1, mcp.ProtocolVersion))
	if resp := readResponse(t, tr); resp.Error != nil {
		t.Fatalf("first initialize: %+v", resp.Error)
	}

	sendRaw(t, tr, initializeFrame(t, 2, mcp.ProtocolVersion))
	resp := readResponse(t, tr)
	if resp.Error == nil || code.Code(resp.Error.Code) != code.InvalidRequest {
		t.Fatalf("second initialize: got %+v, want InvalidRequest", resp)
	}
	if resp.Error.Message != "Server is already initialized" {
		t.Errorf("error message = %q, want %q", resp.Error.Message, "Server is already initialized")
	}
}

func TestProtocolVersionMismatch(t *testing.T) {
	defer leaktest.Check(t)()

	tr, _, done := startRawServer(t, nil)
	defer done()

	sendRaw(t, tr, initializeFrame(t, 1, "1867-07-01"))
	resp := readResponse(t, tr)
	if resp.Error == nil || code.Code(resp.Error.Code) != code.InvalidParams {
		t.Fatalf("version mismatch: got %+v, want InvalidParams", resp)
	}

	// A mismatch must not consume the handshake either.
	sendRaw(t, tr, initializeFrame(t, 2, mcp.ProtocolVersion))
	if resp := readResponse(t, tr); resp.Error != nil {
		t.Errorf("initialize after mismatch: %+v", resp.Error)
	}
}

func TestInitializeHookVeto(t *testing.T) {
	defer leaktest.Check(t)()

	allow := false
	tr, _, done := startRawServer(t, &mcp.ServerOptions{
		OnInitialize: func(_ context.Context, info mcp.PeerInfo, _ mcp.ClientCapabilities) error {
			if !allow {
				return errors.New("not today, " + info.Name)
			}
			return nil
		},
	})
	defer done()

	sendRaw(t, tr, initializeFrame(t, 1, mcp.ProtocolVersion))
	resp := readResponse(t, tr)
	if resp.Error == nil {
		t.Fatalf("a vetoed initialize should fail, got %+v", resp)
	}

	allow = true
	sendRaw(t, tr, initializeFrame(t, 2, mcp.ProtocolVersion))
	if resp := readResponse(t, tr); resp.Error != nil {
		t.Errorf("initialize after veto lifted: %+v", resp.Error)
	}
}

// tempErr mimics an EAGAIN-style transient transport condition.
type tempErr struct{}

func (tempErr) Error() string   { return "resource temporarily unavailable" }
func (tempErr) Temporary() bool { return true }

// flaky wraps a Transport and fails the first n Receive calls with a
// transient error.
type flaky struct {
	transport.Transport
	remaining int
}

func (f *flaky) Receive(ctx context.Context) ([]byte, error) {
	if f.remaining > 0 {
		f.remaining--
		return nil, tempErr{}
	}
	return f.Transport.Receive(ctx)
}

func TestTransientReceiveErrorsRetried(t *testing.T) {
	defer leaktest.Check(t)()

	clientSide, serverSide := transport.Direct()
	srv := mcp.NewServer(&flaky{Transport: serverSide, remaining: 3}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		srv.Stop()
		srv.Wait()
	}()

	sendRaw(t, clientSide, initializeFrame(t, 1, mcp.ProtocolVersion))
	if resp := readResponse(t, clientSide); resp.Error != nil {
		t.Errorf("initialize over a flaky transport: %+v", resp.Error)
	}
	clientSide.Disconnect()
}

func TestNotifyPreservesOrder(t *testing.T) {
	defer leaktest.Check(t)()

	tr, srv, done := startRawServer(t, nil)
	defer done()

	ctx := context.Background()
	const n = 10
	for i := 0; i < n; i++ {
		if err := srv.Notify(ctx, "tick", map[string]int{"i": i}); err != nil {
			t.Fatalf("Notify(%d): %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		bits, err := tr.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		var f struct {
			Params struct {
				I int `json:"i"`
			} `json:"params"`
		}
		if err := json.Unmarshal(bits, &f); err != nil {
			t.Fatalf("Unmarshal %q: %v", bits, err)
		}
		if f.Params.I != i {
			t.Fatalf("notification %d arrived out of order (got i=%d)", i, f.Params.I)
		}
	}
}

func TestServerSubscriptionStore(t *testing.T) {
	_, serverSide := transport.Direct()
	srv := mcp.NewServer(serverSide, nil)

	srv.Subscribe("file:///a", mcp.IntID(1))
	srv.Subscribe("file:///a", mcp.StringID("1"))
	srv.Subscribe("file:///b", mcp.IntID(1))

	if got := len(srv.Subscribers("file:///a")); got != 2 {
		t.Errorf("Subscribers(a) = %d ids, want 2 (string and int variants are distinct)", got)
	}

	srv.Unsubscribe("file:///a", mcp.IntID(1))
	subs := srv.Subscribers("file:///a")
	if len(subs) != 1 || !subs[0].Equal(mcp.StringID("1")) {
		t.Errorf("Subscribers(a) after Unsubscribe = %v, want [%v]", subs, mcp.StringID("1"))
	}
	if got := srv.Subscribers("file:///missing"); len(got) != 0 {
		t.Errorf("Subscribers of an unknown uri = %v, want empty", got)
	}
}
