// Package lsp implements the Client runtime: one Client per spawned backend
// process, translating typed method calls into framed JSON-RPC requests and
// dispatching the server's responses and notifications back to callers.
//
// The pending-request table and handler registries are csync.Map values: a
// correlation map from request id to a one-shot response slot, and two
// method-name-keyed handler registries, all safe for concurrent access from
// the read loop and callers.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polyls/polyls/internal/csync"
	polylog "github.com/polyls/polyls/internal/log"
	"github.com/polyls/polyls/internal/lsp/protocol"
	"github.com/polyls/polyls/internal/perr"
	"github.com/polyls/polyls/internal/process"
	"github.com/polyls/polyls/internal/rpc"
)

// ServerState tracks where a Client is in its lifecycle.
type ServerState int32

const (
	StateStarting ServerState = iota
	StateReady
	StateError
	StateShutdown
)

func (s ServerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// NotificationHandler processes a notification sent by the server.
type NotificationHandler func(ctx context.Context, client *Client, params json.RawMessage)

// ServerRequestHandler answers a request the server initiates (as opposed
// to a response to one of the client's own requests).
type ServerRequestHandler func(ctx context.Context, client *Client, params json.RawMessage) (any, error)

const defaultCallTimeout = 30 * time.Second

// pendingCall is the one-shot awaiter slot a correlation id resolves into.
type pendingCall struct {
	result chan *rpc.Message
}

// Client drives one LSP backend process: request/response correlation,
// capability-gated dispatch, and diagnostics/open-file bookkeeping.
type Client struct {
	name string
	sup  *process.Supervisor
	dec  *rpc.Decoder
	enc  *rpc.Encoder

	nextID atomic.Int64

	pending *csync.Map[int64, *pendingCall]

	notificationHandlers *csync.Map[string, NotificationHandler]

	serverRequestHandlers *csync.Map[string, ServerRequestHandler]

	state atomic.Int32

	initialized atomic.Bool

	capsMu  sync.RWMutex
	caps    protocol.ServerCapabilities
	capsSet atomic.Bool

	diagMu      sync.RWMutex
	diagnostics map[protocol.DocumentURI][]protocol.Diagnostic

	openMu sync.Mutex
	open   map[protocol.DocumentURI]*openFileInfo

	onDiagnosticsChanged func(name string, count int)
}

// NewClient spawns command as a child process and begins its read loop. It
// does not perform the LSP initialize handshake; call Initialize for that.
func NewClient(ctx context.Context, name, workspaceDir, command string, args, env []string) (*Client, error) {
	sup, err := process.Spawn(ctx, name, workspaceDir, command, args, env)
	if err != nil {
		return nil, err
	}

	c := &Client{
		name:                  name,
		sup:                   sup,
		dec:                   rpc.NewDecoder(sup.Stdout),
		enc:                   rpc.NewEncoder(sup.Stdin),
		pending:               csync.NewMap[int64, *pendingCall](),
		notificationHandlers:  csync.NewMap[string, NotificationHandler](),
		serverRequestHandlers: csync.NewMap[string, ServerRequestHandler](),
		diagnostics:           make(map[protocol.DocumentURI][]protocol.Diagnostic),
		open:                  make(map[protocol.DocumentURI]*openFileInfo),
	}
	c.state.Store(int32(StateStarting))

	c.RegisterNotificationHandler("textDocument/publishDiagnostics", handleDiagnostics)
	c.RegisterServerRequestHandler("workspace/configuration", handleWorkspaceConfiguration)
	c.RegisterServerRequestHandler("client/registerCapability", handleRegisterCapability)

	go func() {
		defer polylog.RecoverPanic(fmt.Sprintf("lsp-read-loop[%s]", name), func() {
			c.state.Store(int32(StateError))
		})
		c.readLoop()
	}()

	return c, nil
}

// State returns the client's current lifecycle state.
func (c *Client) State() ServerState { return ServerState(c.state.Load()) }

// Name returns the backend's configured name (its language identifier).
func (c *Client) Name() string { return c.name }

// OnDiagnosticsChanged registers a callback invoked after every diagnostics
// update with the total diagnostic count across every document that has
// cached diagnostics.
func (c *Client) OnDiagnosticsChanged(fn func(name string, count int)) {
	c.onDiagnosticsChanged = fn
}

// RegisterNotificationHandler installs handler for notifications the server
// sends under method. Only one handler per method is kept.
func (c *Client) RegisterNotificationHandler(method string, handler NotificationHandler) {
	c.notificationHandlers.Set(method, handler)
}

// RegisterServerRequestHandler installs handler for requests the server
// initiates under method.
func (c *Client) RegisterServerRequestHandler(method string, handler ServerRequestHandler) {
	c.serverRequestHandlers.Set(method, handler)
}

// Call sends a request and blocks for its response, or until ctx is
// cancelled, or until defaultCallTimeout elapses. A transport failure (the
// backend's stdin pipe closing) is reported as perr.TransportFailed.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	msg, err := rpc.NewRequest(id, method, params)
	if err != nil {
		return perr.Wrap(perr.ProtocolError, "marshal request params", err)
	}

	pc := &pendingCall{result: make(chan *rpc.Message, 1)}
	c.pending.Set(id, pc)
	defer c.pending.Del(id)

	if err := c.enc.WriteMessage(msg); err != nil {
		return perr.Wrap(perr.TransportFailed, fmt.Sprintf("write %s request", method), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	select {
	case resp, ok := <-pc.result:
		if !ok {
			return perr.New(perr.TransportFailed, fmt.Sprintf("%s aborted: backend transport closed", method))
		}
		if resp.Error != nil {
			return perr.Backend(resp.Error.Code, resp.Error.Message)
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return perr.Wrap(perr.ProtocolError, fmt.Sprintf("unmarshal %s response", method), err)
		}
		return nil
	case <-callCtx.Done():
		if callCtx.Err() == context.DeadlineExceeded {
			return perr.New(perr.Timeout, fmt.Sprintf("%s timed out", method))
		}
		return callCtx.Err()
	}
}

// Notify sends a one-way notification; the server sends no response.
func (c *Client) Notify(method string, params any) error {
	msg, err := rpc.NewNotification(method, params)
	if err != nil {
		return perr.Wrap(perr.ProtocolError, "marshal notification params", err)
	}
	if err := c.enc.WriteMessage(msg); err != nil {
		return perr.Wrap(perr.TransportFailed, fmt.Sprintf("write %s notification", method), err)
	}
	return nil
}

// readLoop pulls messages off the decoder until it errors (typically
// because the backend process exited and closed stdout), dispatching each
// to a pending call, a notification handler, or a server request handler.
func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		msg, err := c.dec.ReadMessage()
		if err != nil {
			// A client already shut down by Close keeps StateShutdown; the
			// EOF that follows its kill is not a transport failure.
			for {
				s := c.state.Load()
				if ServerState(s) == StateShutdown || c.state.CompareAndSwap(s, int32(StateError)) {
					break
				}
			}
			c.failAllPending()
			return
		}

		switch msg.Kind() {
		case rpc.KindResponse:
			c.dispatchResponse(msg)
		case rpc.KindNotification:
			c.dispatchNotification(ctx, msg)
		case rpc.KindRequest:
			c.dispatchServerRequest(ctx, msg)
		}
	}
}

func (c *Client) dispatchResponse(msg *rpc.Message) {
	pc, ok := c.pending.Get(*msg.ID)
	if !ok {
		return
	}
	select {
	case pc.result <- msg:
	default:
	}
}

func (c *Client) dispatchNotification(ctx context.Context, msg *rpc.Message) {
	if handler, ok := c.notificationHandlers.Get(msg.Method); ok {
		handler(ctx, c, msg.Params)
	}
}

func (c *Client) dispatchServerRequest(ctx context.Context, msg *rpc.Message) {
	handler, ok := c.serverRequestHandlers.Get(msg.Method)

	var resp *rpc.Message
	if !ok {
		resp = rpc.NewErrorResponse(*msg.ID, -32601, "method not found: "+msg.Method)
	} else {
		result, err := handler(ctx, c, msg.Params)
		if err != nil {
			resp = rpc.NewErrorResponse(*msg.ID, -32603, err.Error())
		} else {
			var buildErr error
			resp, buildErr = rpc.NewResponse(*msg.ID, result)
			if buildErr != nil {
				resp = rpc.NewErrorResponse(*msg.ID, -32603, buildErr.Error())
			}
		}
	}
	_ = c.enc.WriteMessage(resp)
}

func (c *Client) failAllPending() {
	for id, pc := range c.pending.Seq2() {
		close(pc.result)
		c.pending.Del(id)
	}
}

// Close sends shutdown/exit if the client is still ready, then kills the
// backend process and waits for it to be reaped. The exit status from a
// forced kill is expected and not reported as a failure; only an error
// starting the kill itself is.
func (c *Client) Close(ctx context.Context) error {
	if c.State() == StateReady {
		_ = c.Call(ctx, "shutdown", nil, nil)
		_ = c.Notify("exit", nil)
	}
	c.state.Store(int32(StateShutdown))
	if err := c.sup.Kill(); err != nil {
		return perr.Wrap(perr.IoError, "kill backend process", err)
	}
	c.sup.Wait()
	return nil
}
