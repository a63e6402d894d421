package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/mcpkit/mcpcore/code"
	"github.com/mcpkit/mcpcore/metrics"
	"github.com/mcpkit/mcpcore/transport"
)

// ClientOptions configures a Client. A nil *ClientOptions is equivalent to
// the zero value.
type ClientOptions struct {
	// Capabilities are advertised to the server during initialize.
	Capabilities *ClientCapabilities

	// ClientInfo identifies this client in the initialize handshake.
	ClientInfo PeerInfo

	// Strict, if true, makes the high-level helpers fail fast with
	// MethodNotFound when the server has not advertised the capability
	// group a method belongs to, instead of attempting the call anyway.
	Strict bool

	// Logger receives diagnostic output. Nil discards it.
	Logger Logger

	// Metrics, if non-nil, receives dispatch-loop counters.
	Metrics *metrics.Metrics
}

func (o *ClientOptions) capabilities() *ClientCapabilities {
	if o == nil {
		return nil
	}
	return o.Capabilities
}

func (o *ClientOptions) clientInfo() PeerInfo {
	if o == nil {
		return PeerInfo{}
	}
	return o.ClientInfo
}

func (o *ClientOptions) strict() bool { return o != nil && o.Strict }

func (o *ClientOptions) logger() Logger {
	if o == nil {
		return nil
	}
	return o.Logger
}

func (o *ClientOptions) metrics() *metrics.Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}

// A Client drives a single session against one Server over a
// transport.Transport: it sends requests and notifications, correlates
// responses to their requests, and dispatches inbound server-initiated
// requests and notifications of its own (MCP permits both directions to
// initiate traffic).
type Client struct {
	tr   transport.Transport
	opts *ClientOptions

	ids     IDGenerator
	pending *pendingTable

	methods *MethodRegistry
	notifs  *NotificationRegistry
	lc      *lifecycle

	sendMu sync.Mutex

	mu           sync.Mutex
	serverCaps   ServerCapabilities
	serverInfo   PeerInfo
	instructions string

	cancel context.CancelFunc

	wg   sync.WaitGroup
	done chan struct{}
	err  error
}

// NewClient constructs a Client bound to tr.
func NewClient(tr transport.Transport, opts *ClientOptions) *Client {
	c := &Client{
		tr:      tr,
		opts:    opts,
		ids:     NewCounterIDs(),
		pending: newPendingTable(),
		methods: NewMethodRegistry(),
		notifs:  NewNotificationRegistry(),
		lc:      newLifecycle(opts.strict()),
		done:    make(chan struct{}),
	}
	RegisterMethod(c.methods, methodPing, func(_ context.Context, _ PingParams) (PingResult, error) {
		return PingResult{}, nil
	})
	return c
}

// Methods returns the registry used to dispatch inbound, server-initiated
// requests.
func (c *Client) Methods() *MethodRegistry { return c.methods }

// Notifications returns the registry used to dispatch inbound
// notifications, such as notifications/resources/updated.
func (c *Client) Notifications() *NotificationRegistry { return c.notifs }

// ServerInfo returns the PeerInfo the server reported during initialize. It
// is only meaningful once Initialize has returned successfully.
func (c *Client) ServerInfo() PeerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// ServerCapabilities returns the capabilities the server advertised during
// initialize.
func (c *Client) ServerCapabilities() ServerCapabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverCaps
}

// Instructions returns the usage guidance the server provided during
// initialize, if any.
func (c *Client) Instructions() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instructions
}

// Connect connects the underlying transport and starts the background
// dispatch loop that reads inbound frames. Connect returns once the
// transport is connected; the dispatch loop itself runs until ctx is
// cancelled or Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.tr.Connect(ctx); err != nil {
		return err
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.readLoop(ctx)
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.done)

	for {
		msg, err := c.tr.Receive(ctx)
		if err != nil {
			if transport.IsTemporary(err) {
				select {
				case <-time.After(transientRetryDelay):
					continue
				case <-ctx.Done():
					c.finish(ctx.Err())
					return
				}
			}
			c.finish(err)
			return
		}
		c.handleInbound(ctx, msg)
	}
}

func (c *Client) finish(err error) {
	c.lc.terminate()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		c.err = err
	}
	c.pending.drain(errClientStopped)
	c.cancel()
}

func (c *Client) handleInbound(ctx context.Context, msg []byte) {
	f := parseFrame(msg)
	if f.parseErr != nil {
		c.opts.logger().Printf("mcp: dropping unparseable frame: %v", f.parseErr)
		return
	}

	switch f.classify() {
	case frameResponse:
		var id ID
		if err := json.Unmarshal(f.id, &id); err != nil {
			return
		}
		if !c.pending.resolve(id, f.result, f.err) {
			c.opts.logger().Printf("mcp: response for unknown id %s", id)
		}
	case frameRequest:
		c.serveRequest(ctx, f)
	case frameNotification:
		c.serveNotification(ctx, f)
	default:
		c.opts.logger().Printf("mcp: client ignoring unexpected frame kind")
	}
}

func (c *Client) serveRequest(ctx context.Context, f *frame) {
	var id ID
	if err := json.Unmarshal(f.id, &id); err != nil {
		return
	}
	req := &Request{id: id, method: f.method, params: f.params}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, rpcErr := c.methods.dispatch(ctx, req)
		var resp *Response
		if rpcErr != nil {
			resp = NewErrorResponse(id, rpcErr)
		} else {
			resp = NewResultResponse(id, result)
		}
		c.send(ctx, resp.toFrame())
	}()
}

func (c *Client) serveNotification(ctx context.Context, f *frame) {
	c.opts.metrics().Count(metrics.Notifications, 1)
	n := &Notification{method: f.method, params: f.params}
	c.notifs.dispatch(ctx, n, c.opts.logger().Printf)
}

func (c *Client) send(ctx context.Context, f *frame) error {
	bits, err := f.encode()
	if err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.tr.Send(ctx, bits)
}

// Initialize performs the initialize handshake: it sends an initialize
// request carrying this client's capabilities and info, and records the
// server's advertised capabilities, info, and instructions from the reply.
// The server follows up with a notifications/initialized acknowledgement
// of its own once it considers the session open.
func (c *Client) Initialize(ctx context.Context) (InitializeResult, error) {
	if err := c.lc.beginInitialize(); err != nil {
		return InitializeResult{}, err
	}

	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      c.opts.clientInfo(),
	}
	if caps := c.opts.capabilities(); caps != nil {
		params.Capabilities = *caps
	}

	result, err := Call[InitializeParams, InitializeResult](ctx, c, methodInitialize, params)
	if err != nil {
		return InitializeResult{}, err
	}

	c.mu.Lock()
	c.serverCaps = result.Capabilities
	c.serverInfo = result.ServerInfo
	c.instructions = result.Instructions
	c.mu.Unlock()
	c.lc.finishInitialize()
	return result, nil
}

// Notify sends a one-way notification to the server.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	value, err := ValueOf(params)
	if err != nil {
		return err
	}
	return c.send(ctx, NewNotification(method, value).toFrame())
}

// Ping issues a liveness check to the server.
func (c *Client) Ping(ctx context.Context) error {
	_, err := Call[PingParams, PingResult](ctx, c, methodPing, PingParams{})
	return err
}

// ListPrompts lists the server's available prompts.
func (c *Client) ListPrompts(ctx context.Context, params ListPromptsParams) (ListPromptsResult, error) {
	if err := c.requireCapability("prompts"); err != nil {
		return ListPromptsResult{}, err
	}
	return Call[ListPromptsParams, ListPromptsResult](ctx, c, methodListPrompts, params)
}

// GetPrompt expands a named prompt.
func (c *Client) GetPrompt(ctx context.Context, params GetPromptParams) (GetPromptResult, error) {
	if err := c.requireCapability("prompts"); err != nil {
		return GetPromptResult{}, err
	}
	return Call[GetPromptParams, GetPromptResult](ctx, c, methodGetPrompt, params)
}

// ListResources lists the server's available resources.
func (c *Client) ListResources(ctx context.Context, params ListResourcesParams) (ListResourcesResult, error) {
	if err := c.requireCapability("resources"); err != nil {
		return ListResourcesResult{}, err
	}
	return Call[ListResourcesParams, ListResourcesResult](ctx, c, methodListResources, params)
}

// ReadResource reads one resource's contents.
func (c *Client) ReadResource(ctx context.Context, params ReadResourceParams) (ReadResourceResult, error) {
	if err := c.requireCapability("resources"); err != nil {
		return ReadResourceResult{}, err
	}
	return Call[ReadResourceParams, ReadResourceResult](ctx, c, methodReadResource, params)
}

// SubscribeToResource asks the server to notify this client of future
// changes to the named resource. In strict mode it fails fast with
// MethodNotFound, without a wire call, unless the server advertised the
// resources.subscribe sub-capability.
func (c *Client) SubscribeToResource(ctx context.Context, params SubscribeResourceParams) (SubscribeResourceResult, error) {
	if c.opts.strict() {
		c.mu.Lock()
		caps := c.serverCaps
		c.mu.Unlock()
		if !caps.supportsResourceSubscribe() {
			return SubscribeResourceResult{}, Errorf(code.MethodNotFound, "server does not advertise resource subscriptions")
		}
	}
	return Call[SubscribeResourceParams, SubscribeResourceResult](ctx, c, methodSubscribeResource, params)
}

// ListTools lists the server's available tools.
func (c *Client) ListTools(ctx context.Context, params ListToolsParams) (ListToolsResult, error) {
	if err := c.requireCapability("tools"); err != nil {
		return ListToolsResult{}, err
	}
	return Call[ListToolsParams, ListToolsResult](ctx, c, methodListTools, params)
}

// CallTool invokes a named tool.
func (c *Client) CallTool(ctx context.Context, params CallToolParams) (CallToolResult, error) {
	if err := c.requireCapability("tools"); err != nil {
		return CallToolResult{}, err
	}
	return Call[CallToolParams, CallToolResult](ctx, c, methodCallTool, params)
}

// requireCapability gates a high-level helper on the server having
// advertised the named capability group. In non-strict mode the gate is
// skipped and the request is attempted regardless; in strict mode a
// missing group (including the case where initialize has not yet run, so
// no capabilities are known at all) fails fast with MethodNotFound before
// anything reaches the wire.
func (c *Client) requireCapability(group string) error {
	if !c.opts.strict() {
		return nil
	}
	c.mu.Lock()
	caps := c.serverCaps
	c.mu.Unlock()
	if !caps.has(group) {
		return Errorf(code.MethodNotFound, "server does not advertise the %q capability", group)
	}
	return nil
}

// Disconnect tears down the underlying transport, fails every pending
// call with an InternalError, and waits for the dispatch loop and any
// in-flight inbound handlers to finish. It is safe to call more than once.
func (c *Client) Disconnect() error {
	c.lc.terminate()
	if c.cancel != nil {
		c.cancel()
	}
	err := c.tr.Disconnect()
	c.pending.drain(errClientStopped)
	c.wg.Wait()
	return err
}

// Wait blocks until the client's dispatch loop has exited, and reports the
// error that ended it, if any.
func (c *Client) Wait() error {
	<-c.done
	return c.err
}
