package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mcpkit/mcpcore/code"
	"github.com/mcpkit/mcpcore/metrics"
	"github.com/mcpkit/mcpcore/transport"
)

// transientRetryDelay is how long a dispatch loop backs off after a
// transient transport failure before retrying.
const transientRetryDelay = 10 * time.Millisecond

// ServerOptions configures a Server. A nil *ServerOptions is equivalent to
// the zero value, which selects all defaults.
type ServerOptions struct {
	// Capabilities are advertised to the client during initialize. If nil,
	// a Server advertises no optional capability groups.
	Capabilities *ServerCapabilities

	// ServerInfo identifies this server in the initialize handshake.
	ServerInfo PeerInfo

	// Instructions, if set, is returned to the client in the initialize
	// result as usage guidance for the session.
	Instructions string

	// Strict, if true, rejects any method but initialize and ping until the
	// handshake has completed.
	Strict bool

	// Concurrency bounds the number of requests dispatched at once. Zero
	// means unbounded.
	Concurrency int64

	// Logger receives diagnostic output. Nil discards it.
	Logger Logger

	// Metrics, if non-nil, receives dispatch-loop counters. A nil Metrics
	// is valid and simply discards them.
	Metrics *metrics.Metrics

	// OnInitialize, if non-nil, runs inside the initialize handler with the
	// connecting client's info and capabilities, before any session state
	// changes. Returning an error vetoes the handshake: the error becomes
	// the initialize response and the server stays uninitialized.
	OnInitialize func(ctx context.Context, info PeerInfo, caps ClientCapabilities) error

	// InitializedDelay is how long the server waits after answering
	// initialize before emitting notifications/initialized, so that an
	// in-order transport delivers the response first. Zero selects the
	// 10ms default; a negative value emits immediately.
	InitializedDelay time.Duration
}

func (o *ServerOptions) capabilities() *ServerCapabilities {
	if o == nil {
		return nil
	}
	return o.Capabilities
}

func (o *ServerOptions) serverInfo() PeerInfo {
	if o == nil {
		return PeerInfo{}
	}
	return o.ServerInfo
}

func (o *ServerOptions) instructions() string {
	if o == nil {
		return ""
	}
	return o.Instructions
}

func (o *ServerOptions) strict() bool { return o != nil && o.Strict }

func (o *ServerOptions) concurrency() int64 {
	if o == nil || o.Concurrency <= 0 {
		return 0
	}
	return o.Concurrency
}

func (o *ServerOptions) logger() Logger {
	if o == nil {
		return nil
	}
	return o.Logger
}

func (o *ServerOptions) metrics() *metrics.Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}

func (o *ServerOptions) onInitialize() func(context.Context, PeerInfo, ClientCapabilities) error {
	if o == nil {
		return nil
	}
	return o.OnInitialize
}

func (o *ServerOptions) initializedDelay() time.Duration {
	if o == nil || o.InitializedDelay == 0 {
		return 10 * time.Millisecond
	}
	if o.InitializedDelay < 0 {
		return 0
	}
	return o.InitializedDelay
}

// A Server answers requests and fans out notifications to a single
// connected peer over a transport.Transport. Construct one with NewServer,
// register method and notification handlers, then call Start.
type Server struct {
	tr   transport.Transport
	opts *ServerOptions

	methods *MethodRegistry
	notifs  *NotificationRegistry
	lc      *lifecycle

	sem      *semaphore.Weighted
	inflight atomic.Int64

	mu         sync.Mutex
	clientCaps ClientCapabilities
	clientInfo PeerInfo

	subMu sync.Mutex
	subs  map[string]map[any]ID

	sendMu sync.Mutex

	cancel context.CancelFunc

	wg   sync.WaitGroup
	done chan struct{}
	err  error
}

// NewServer constructs a Server bound to tr, with built-in handlers for
// initialize and ping already registered.
func NewServer(tr transport.Transport, opts *ServerOptions) *Server {
	s := &Server{
		tr:      tr,
		opts:    opts,
		methods: NewMethodRegistry(),
		notifs:  NewNotificationRegistry(),
		lc:      newLifecycle(opts.strict()),
		subs:    make(map[string]map[any]ID),
		done:    make(chan struct{}),
	}
	if c := opts.concurrency(); c > 0 {
		s.sem = semaphore.NewWeighted(c)
	}
	RegisterMethod(s.methods, methodInitialize, s.handleInitialize)
	RegisterMethod(s.methods, methodPing, func(_ context.Context, _ PingParams) (PingResult, error) {
		return PingResult{}, nil
	})
	return s
}

// Methods returns the registry used to dispatch inbound requests, so that
// callers may add handlers beyond the built-in initialize and ping.
func (s *Server) Methods() *MethodRegistry { return s.methods }

// Notifications returns the registry used to dispatch inbound
// notifications.
func (s *Server) Notifications() *NotificationRegistry { return s.notifs }

// Metrics returns the metrics collector this server was configured with,
// or nil if none was; a nil *metrics.Metrics is valid and discards all updates.
func (s *Server) Metrics() *metrics.Metrics { return s.opts.metrics() }

// ClientInfo returns the PeerInfo the client reported during initialize. It
// is only meaningful once the handshake has completed.
func (s *Server) ClientInfo() PeerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientInfo
}

// ClientCapabilities returns the capabilities the client reported during
// initialize.
func (s *Server) ClientCapabilities() ClientCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientCaps
}

// Subscribe records that the caller identified by id wants change
// notifications for the resource at uri. The core stores subscriptions on
// behalf of embedder-registered resources/subscribe handlers; it does not
// act on them itself.
func (s *Server) Subscribe(uri string, id ID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	set := s.subs[uri]
	if set == nil {
		set = make(map[any]ID)
		s.subs[uri] = set
	}
	set[id.key()] = id
}

// Unsubscribe removes id's subscription to uri, if one exists.
func (s *Server) Unsubscribe(uri string, id ID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	set := s.subs[uri]
	delete(set, id.key())
	if len(set) == 0 {
		delete(s.subs, uri)
	}
}

// Subscribers returns the ids currently subscribed to uri, in unspecified
// order.
func (s *Server) Subscribers(uri string) []ID {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ids := make([]ID, 0, len(s.subs[uri]))
	for _, id := range s.subs[uri] {
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) handleInitialize(ctx context.Context, params InitializeParams) (InitializeResult, error) {
	if params.ProtocolVersion != ProtocolVersion {
		return InitializeResult{}, Errorf(code.InvalidParams,
			"unsupported protocol version %q (want %q)", params.ProtocolVersion, ProtocolVersion)
	}
	if hook := s.opts.onInitialize(); hook != nil {
		if err := hook(ctx, params.ClientInfo, params.Capabilities); err != nil {
			return InitializeResult{}, err
		}
	}
	if err := s.lc.beginInitialize(); err != nil {
		return InitializeResult{}, Errorf(code.InvalidRequest, "Server is already initialized")
	}
	s.mu.Lock()
	s.clientCaps = params.Capabilities
	s.clientInfo = params.ClientInfo
	s.mu.Unlock()
	s.lc.finishInitialize()

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      s.opts.serverInfo(),
		Instructions:    s.opts.instructions(),
	}
	if caps := s.opts.capabilities(); caps != nil {
		result.Capabilities = *caps
	}

	// The acknowledgement goes out after the initialize response, once the
	// transport has had a moment to deliver the response in order.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if d := s.opts.initializedDelay(); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return
			}
		}
		if err := s.Notify(ctx, notificationInitialized, struct{}{}); err != nil {
			s.opts.logger().Printf("mcp: sending initialized notification: %v", err)
		}
	}()
	return result, nil
}

// Start connects the transport and spawns the dispatch loop. It returns as
// soon as the transport is connected; use Wait to block until the loop has
// terminated, and Stop to terminate it early.
func (s *Server) Start(ctx context.Context) error {
	if err := s.tr.Connect(ctx); err != nil {
		return err
	}
	ctx, s.cancel = context.WithCancel(ctx)
	go s.readLoop(ctx)
	return nil
}

func (s *Server) readLoop(ctx context.Context) {
	defer close(s.done)
	for {
		msg, err := s.tr.Receive(ctx)
		if transport.IsTemporary(err) {
			select {
			case <-time.After(transientRetryDelay):
				continue
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				s.opts.logger().Printf("mcp: dispatch loop terminated: %v", err)
				s.err = err
			}
			s.lc.terminate()
			s.wg.Wait()
			s.cancel()
			return
		}
		s.handleInbound(ctx, msg)
	}
}

func (s *Server) handleInbound(ctx context.Context, msg []byte) {
	f := parseFrame(msg)
	if f.parseErr != nil || f.classify() == frameInvalid {
		e := f.parseErr
		if e == nil {
			e = &Error{Code: code.ParseError, Message: "unrecognized message envelope"}
		}
		rawID, ok := recoverID(msg)
		if !ok {
			rawID = mustMarshalID(randomID())
		}
		if err := s.writeFrame(ctx, &frame{hasID: true, id: rawID, err: e}); err != nil {
			s.opts.logger().Printf("mcp: sending parse-error response: %v", err)
		}
		s.opts.logger().Printf("mcp: invalid inbound frame: %v", e)
		return
	}

	switch f.classify() {
	case frameRequest:
		s.serveRequest(ctx, f)
	case frameNotification:
		s.serveNotification(ctx, f)
	default:
		// A response frame: this server issued no request it could answer.
		s.opts.logger().Printf("mcp: server ignoring unexpected response frame")
	}
}

func (s *Server) serveRequest(ctx context.Context, f *frame) {
	var id ID
	if err := json.Unmarshal(f.id, &id); err != nil {
		return
	}
	req := &Request{id: id, method: f.method, params: f.params}

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.sem != nil {
			defer s.sem.Release(1)
		}
		s.runRequest(ctx, req)
	}()
}

func (s *Server) runRequest(ctx context.Context, req *Request) {
	m := s.opts.metrics()
	m.Count(metrics.Requests, 1)
	m.SetMax(metrics.MaxInflight, s.inflight.Add(1))
	defer s.inflight.Add(-1)

	var resp *Response
	if !s.lc.allow(req.method) {
		m.Count(metrics.Errors, 1)
		resp = NewErrorResponse(req.id, Errorf(code.InvalidRequest, "Server is not initialized"))
	} else if result, rpcErr := s.methods.dispatch(ctx, req); rpcErr != nil {
		m.Count(metrics.Errors, 1)
		s.opts.logger().Printf("mcp: method %q failed: %v", req.Method(), rpcErr)
		resp = NewErrorResponse(req.id, rpcErr)
	} else {
		resp = NewResultResponse(req.id, result)
	}
	if err := s.writeFrame(ctx, resp.toFrame()); err != nil {
		s.opts.logger().Printf("mcp: sending response for %q: %v", req.Method(), err)
	}
}

func (s *Server) serveNotification(ctx context.Context, f *frame) {
	s.opts.metrics().Count(metrics.Notifications, 1)
	n := &Notification{method: f.method, params: f.params}
	if !s.lc.allow(n.method) {
		s.opts.logger().Printf("mcp: dropping notification %q before initialization", n.method)
		return
	}
	s.notifs.dispatch(ctx, n, s.opts.logger().Printf)
}

func (s *Server) writeFrame(ctx context.Context, f *frame) error {
	bits, err := f.encode()
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.tr.Send(ctx, bits)
}

// Send encodes resp and hands it to the transport, preserving call order
// with any concurrent Notify. It is intended for embedder handlers that
// answer requests out of band rather than by returning from a registered
// handler.
func (s *Server) Send(ctx context.Context, resp *Response) error {
	return s.writeFrame(ctx, resp.toFrame())
}

// Notify sends a one-way notification to the client.
func (s *Server) Notify(ctx context.Context, method string, params any) error {
	value, err := ValueOf(params)
	if err != nil {
		return err
	}
	return s.writeFrame(ctx, NewNotification(method, value).toFrame())
}

// Stop cancels the dispatch loop and disconnects the underlying transport.
// It is safe to call more than once.
func (s *Server) Stop() error {
	s.lc.terminate()
	if s.cancel != nil {
		s.cancel()
	}
	return s.tr.Disconnect()
}

// Wait blocks until the dispatch loop has exited, and reports the error
// that terminated it, if any. An orderly shutdown (the peer closing the
// connection, or a caller-initiated Stop) is not reported as a failure.
func (s *Server) Wait() error {
	<-s.done
	return s.err
}
