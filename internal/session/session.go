// internal/session/session.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/qrc-bridge/internal/frame"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	"github.com/tamzrod/qrc-bridge/internal/protocol"
)

var (
	// ErrNoHost means the endpoint has no host configured. Terminal until
	// the session is rebuilt with a new configuration.
	ErrNoHost = errors.New("session: no host configured")

	// ErrNotConnected is returned by Send when the socket is not writable.
	ErrNotConnected = errors.New("session: not connected")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("session: closed")
)

// State is the connection state of one session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

// DefaultKeepalive is the NoOp interval while connected.
const DefaultKeepalive = time.Second

const readBufferSize = 64 * 1024

// Handler receives session events from the session's own goroutines.
// A closed or superseded connection stops reporting.
type Handler interface {
	// Connected fires once per successful dial, after the receive buffer
	// was cleared.
	Connected(role protocol.Role)
	// Frame delivers one complete JSON document.
	Frame(role protocol.Role, doc json.RawMessage)
	// ProtocolError reports a dropped malformed frame. Not fatal.
	ProtocolError(role protocol.Role, err error)
	// Failed reports a dial or mid-stream transport error.
	Failed(role protocol.Role, err error)
	// Ended reports an orderly close by the peer.
	Ended(role protocol.Role)
	// Keepalive fires every keepalive interval while connected.
	Keepalive(role protocol.Role)
}

// Config is minimal transport config.
type Config struct {
	Role         protocol.Role
	Host         string
	Port         int
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Keepalive    time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Session owns one TCP connection to one core.
// Config is immutable: a new endpoint means a new Session.
type Session struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
	dialer  net.Dialer

	mu      sync.Mutex
	state   State
	conn    net.Conn
	connID  string
	cancel  context.CancelFunc
	kaStop  chan struct{}
	closed  bool
	lastErr error
	decoder frame.Decoder
	wmu     sync.Mutex
}

// New creates an idle session. Nothing is dialed until Start.
func New(cfg Config, h Handler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = DefaultKeepalive
	}
	return &Session{
		cfg:     cfg,
		handler: h,
		logger:  logger.With(logging.Role(cfg.Role), logging.String("host", cfg.Host)),
		dialer:  net.Dialer{Timeout: cfg.DialTimeout},
	}
}

// Role returns the session's role.
func (s *Session) Role() protocol.Role { return s.cfg.Role }

// Host returns the configured host.
func (s *Session) Host() string { return s.cfg.Host }

// Start dials the core in the background. It returns ErrNoHost without
// dialing when no host is configured, and is a no-op while a dial or a
// live connection is in progress. Calling Start after a failure re-arms
// the connection; there is no retry loop of its own.
func (s *Session) Start(ctx context.Context) error {
	if s.cfg.Host == "" {
		s.mu.Lock()
		s.state = Failed
		s.lastErr = ErrNoHost
		s.mu.Unlock()
		return ErrNoHost
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state == Connecting || s.state == Connected {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	dctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = Connecting
	s.connID = uuid.NewString()
	s.decoder.Reset()

	go s.run(dctx, s.connID)
	return nil
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Writable reports whether Send can currently succeed.
func (s *Session) Writable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.state == Connected && s.conn != nil
}

// LastError returns the error behind the last Failed state.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Send writes one framed payload. It never queues: a session that is
// not writable drops the payload and returns ErrNotConnected.
// A failed write may have left part of a document on the wire, so the
// connection is torn down and the session reports Failed.
func (s *Session) Send(payload []byte) error {
	s.mu.Lock()
	if s.closed || s.state != Connected || s.conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn, connID := s.conn, s.connID
	s.mu.Unlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := writeAll(conn, payload); err != nil {
		err = fmt.Errorf("session: write %s: %w", s.cfg.Addr(), err)
		s.lost(connID, conn, err)
		return err
	}
	return nil
}

// Close stops the keepalive, then destroys the socket.
// Idempotent and callable from any state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	s.stopKeepaliveLocked()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.state = Disconnected
}

// ---- lifecycle ----

func (s *Session) run(ctx context.Context, connID string) {
	log := s.logger.With(logging.String("conn_id", connID))
	log.Debug("dialing core", logging.String("addr", s.cfg.Addr()))

	conn, err := s.dialer.DialContext(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		s.lost(connID, nil, err)
		return
	}

	s.mu.Lock()
	if s.closed || s.connID != connID {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.state = Connected
	s.lastErr = nil
	s.decoder.Reset()
	s.mu.Unlock()

	log.Info("connected to core", logging.String("addr", s.cfg.Addr()))
	s.handler.Connected(s.cfg.Role)
	s.startKeepalive(connID)

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if !s.current(connID) {
				return
			}
			docs, perrs := s.decoder.Feed(buf[:n])
			for _, perr := range perrs {
				s.handler.ProtocolError(s.cfg.Role, perr)
			}
			for _, d := range docs {
				s.handler.Frame(s.cfg.Role, d)
			}
		}
		if err != nil {
			s.lost(connID, conn, err)
			return
		}
	}
}

// lost handles the end of a connection attempt or a live connection.
// Stale attempts (closed session, superseded connID, a conn already
// torn down by a failed write) exit silently.
func (s *Session) lost(connID string, conn net.Conn, err error) {
	s.mu.Lock()
	if s.closed || s.connID != connID || (conn != nil && s.conn != conn) {
		s.mu.Unlock()
		return
	}
	s.stopKeepaliveLocked()
	if conn != nil {
		_ = conn.Close()
	}
	s.conn = nil

	ended := errors.Is(err, io.EOF)
	if ended {
		s.state = Disconnected
	} else {
		s.state = Failed
	}
	s.lastErr = err
	s.mu.Unlock()

	if ended {
		s.handler.Ended(s.cfg.Role)
		return
	}
	s.handler.Failed(s.cfg.Role, err)
}

func (s *Session) current(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.connID == connID
}

// ---- keepalive ----

func (s *Session) startKeepalive(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.connID != connID || s.kaStop != nil {
		return
	}
	stop := make(chan struct{})
	s.kaStop = stop

	go func() {
		t := time.NewTicker(s.cfg.Keepalive)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if !s.current(connID) {
					return
				}
				s.handler.Keepalive(s.cfg.Role)
			}
		}
	}()
}

// stopKeepaliveLocked is idempotent. Caller holds mu.
func (s *Session) stopKeepaliveLocked() {
	if s.kaStop != nil {
		close(s.kaStop)
		s.kaStop = nil
	}
}

// ---- helpers ----

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
