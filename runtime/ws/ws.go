// Package ws implements the WebSocket host capability: components open
// outbound connections, send frames, and receive on-message/on-close
// callbacks dispatched back into their own long-lived instance. A read
// failure other than a close handshake is reported through on-close with
// code 1006; on-error is never dispatched.
// Grounded on runtime/src/runtime/ws.rs.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
)

// incomingHandlerInterface is the local (package- and version-stripped)
// interface name a component must export to receive WebSocket callbacks:
// asterai:host-ws/incoming-handler@0.1.0.
const incomingHandlerInterface = "incoming-handler"

var (
	onMessageFunc = component.NewFunctionName(incomingHandlerInterface, "on-message")
	onCloseFunc   = component.NewFunctionName(incomingHandlerInterface, "on-close")
	onErrorFunc   = component.NewFunctionName(incomingHandlerInterface, "on-error")
)

const (
	writeChannelCapacity = 64
	initialBackoff       = time.Second
	maxBackoff           = 30 * time.Second
)

// ConnectionID identifies one open (or reconnecting) WebSocket connection.
type ConnectionID uint64

// Config describes how to open a connection, mirroring the WIT
// ws-config record.
type Config struct {
	URL           string
	Headers       map[string]string
	AutoReconnect bool
}

type outboundMessage struct {
	messageType websocket.MessageType
	data        []byte
}

type connectionState struct {
	mu      sync.Mutex
	writeCh chan outboundMessage
	cancel  context.CancelFunc
}

func (s *connectionState) replaceWriter(ch chan outboundMessage) {
	s.mu.Lock()
	s.writeCh = ch
	s.mu.Unlock()
}

func (s *connectionState) writer() chan outboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCh
}

// Manager owns every open connection and dispatches their callbacks
// through eng.
type Manager struct {
	mu          sync.RWMutex
	connections map[ConnectionID]*connectionState
	nextID      atomic.Uint64

	eng        *engine.Engine
	log        *zap.Logger
	httpClient *http.Client
}

// NewManager constructs a Manager; httpClient is reused for every dial
// (its Transport and Timeout govern the TCP/TLS handshake, not individual
// frames). eng may be nil at construction time and supplied later via
// Rewire, mirroring runtime/cron.Manager's deferred-factory wiring.
func NewManager(eng *engine.Engine, log *zap.Logger, httpClient *http.Client) *Manager {
	return &Manager{
		connections: make(map[ConnectionID]*connectionState),
		eng:         eng,
		log:         log,
		httpClient:  httpClient,
	}
}

// Rewire supplies (or replaces) the engine used to validate the
// incoming-handler export at connect time and to dispatch callbacks.
func (m *Manager) Rewire(eng *engine.Engine) {
	m.eng = eng
}

// Connect validates that owner exports the incoming-handler interface,
// opens the connection, and starts its read/write loops.
func (m *Manager) Connect(ctx context.Context, cfg Config, owner component.ID) (ConnectionID, error) {
	if _, err := m.eng.FindFunction(owner, onMessageFunc, nil); err != nil {
		return 0, asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("component %s must export asterai:host-ws/incoming-handler to open a connection", owner.String()))
	}

	conn, err := m.dial(ctx, cfg)
	if err != nil {
		return 0, err
	}

	id := ConnectionID(m.nextID.Add(1))
	connCtx, cancel := context.WithCancel(context.Background())
	writeCh := make(chan outboundMessage, writeChannelCapacity)
	state := &connectionState{writeCh: writeCh, cancel: cancel}

	m.mu.Lock()
	m.connections[id] = state
	m.mu.Unlock()

	go writeLoop(connCtx, conn, writeCh)
	go m.readLoop(connCtx, conn, id, cfg, owner, state)

	m.log.Info("ws connection opened", zap.Uint64("connection_id", uint64(id)))
	return id, nil
}

func (m *Manager) dial(ctx context.Context, cfg Config) (*websocket.Conn, error) {
	header := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	conn, _, err := websocket.Dial(ctx, cfg.URL, &websocket.DialOptions{
		HTTPClient: m.httpClient,
		HTTPHeader: header,
	})
	if err != nil {
		return nil, asterror.Wrap(asterror.KindTransportError, err, "ws connect failed")
	}
	return conn, nil
}

// Send enqueues data as a binary frame on connection id's write channel.
func (m *Manager) Send(ctx context.Context, id ConnectionID, data []byte) error {
	m.mu.RLock()
	state, ok := m.connections[id]
	m.mu.RUnlock()
	if !ok {
		return asterror.New(asterror.KindNotFound, fmt.Sprintf("connection %d not found", id))
	}
	select {
	case state.writer() <- outboundMessage{messageType: websocket.MessageBinary, data: data}:
		return nil
	case <-ctx.Done():
		return asterror.Wrap(asterror.KindTransportError, ctx.Err(), "send cancelled")
	}
}

// Close cancels connection id and removes it from the manager. No
// WebSocket close frame is sent: the empty text message offered to the
// write channel is not a close frame, and the write loop drops the socket
// with CloseNow once the connection's context is cancelled.
func (m *Manager) Close(id ConnectionID) {
	m.mu.Lock()
	state, ok := m.connections[id]
	delete(m.connections, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	state.cancel()
	select {
	case state.writer() <- outboundMessage{messageType: websocket.MessageText, data: nil}:
	default:
	}
	m.log.Info("ws connection closed", zap.Uint64("connection_id", uint64(id)))
}

// CloseAll cancels every open connection, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]ConnectionID, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		m.Close(id)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, ch <-chan outboundMessage) {
	defer conn.CloseNow()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.Write(ctx, msg.messageType, msg.data); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, id ConnectionID, cfg Config, owner component.ID, state *connectionState) {
	for {
		typ, data, err := conn.Read(ctx)
		disconnected := false
		switch {
		case err == nil && (typ == websocket.MessageBinary || typ == websocket.MessageText):
			m.dispatch(ctx, owner, onMessageFunc, []any{float64(id), toByteArgs(data)})
		case err != nil:
			// coder/websocket surfaces both a received close frame and an
			// abrupt stream end as an error from Read, unlike
			// tokio-tungstenite's separate Some(Err)/None cases. A close
			// handshake unwraps to CloseError with the peer's code/reason;
			// anything else (including an unexpected EOF) is treated the
			// same way the original treats "stream ended with no close
			// frame": on-close with code 1006.
			var closeErr websocket.CloseError
			if ctx.Err() != nil {
				return
			} else if errors.As(err, &closeErr) {
				m.dispatch(ctx, owner, onCloseFunc, []any{float64(id), float64(closeErr.Code), closeErr.Reason})
			} else {
				m.dispatch(ctx, owner, onCloseFunc, []any{float64(id), float64(1006), "connection lost"})
			}
			disconnected = true
		}

		if !disconnected {
			continue
		}
		if !cfg.AutoReconnect || ctx.Err() != nil {
			return
		}
		newConn, ok := m.reconnect(ctx, id, cfg, state)
		if !ok {
			return
		}
		conn = newConn
	}
}

func (m *Manager) reconnect(ctx context.Context, id ConnectionID, cfg Config, state *connectionState) (*websocket.Conn, bool) {
	backoff := initialBackoff
	for {
		m.log.Info("ws connection reconnecting", zap.Uint64("connection_id", uint64(id)), zap.Duration("delay", backoff))
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		}

		conn, err := m.dial(ctx, cfg)
		if err == nil {
			writeCh := make(chan outboundMessage, writeChannelCapacity)
			state.replaceWriter(writeCh)
			go writeLoop(ctx, conn, writeCh)
			m.log.Info("ws connection reconnected", zap.Uint64("connection_id", uint64(id)))
			return conn, true
		}
		m.log.Warn("ws reconnect failed", zap.Uint64("connection_id", uint64(id)), zap.Error(err))
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// dispatch calls fnName on owner's existing instance through the engine,
// which also sets the "last calling component" marker so any host calls
// the callback makes attribute back to owner.
func (m *Manager) dispatch(ctx context.Context, owner component.ID, fnName component.FunctionName, args []any) {
	fn, err := m.eng.FindFunction(owner, fnName, nil)
	if err != nil {
		m.log.Error("ws dispatch target not found", zap.String("function", fnName.String()), zap.Error(err))
		return
	}
	if _, err := m.eng.CallFunction(ctx, *fn, args); err != nil {
		m.log.Error("ws dispatch failed", zap.String("function", fnName.String()), zap.Error(err))
	}
}

func toByteArgs(data []byte) []any {
	out := make([]any, len(data))
	for i, b := range data {
		out[i] = float64(b)
	}
	return out
}
