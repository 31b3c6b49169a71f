package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// writeTimeout bounds one frame write on a healthy connection.
const writeTimeout = 10 * time.Second

// Session represents one client connection. Network I/O runs in dedicated
// goroutines; the simulation thread only touches the queues.
type Session struct {
	ID   uint64
	conn net.Conn

	InQueue  chan []byte // simulation thread reads frames from here
	OutQueue chan []byte // writer goroutine drains this

	IP string

	// AccountID and CharacterID are set by the handshake handlers; zero
	// until authenticated. Only the simulation thread writes them.
	AccountID   int
	CharacterID int

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize int, log *zap.Logger) *Session {
	return &Session{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan []byte, inSize),
		OutQueue: make(chan []byte, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send queues an already-built frame for delivery. Non-blocking: a full
// queue means the client cannot keep up and the session is dropped.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- data:
	default:
		s.log.Warn("out queue full, dropping slow session")
		s.Close()
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool { return s.closed.Load() }

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.closeCh }

// readLoop reads frames from the connection and pushes them onto InQueue
// for the simulation thread. It blocks when the queue is full: the
// goroutine is per-session, so backpressure only stalls this client.
func (s *Session) readLoop() {
	defer s.Close()
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.Close()
	for {
		select {
		case data := <-s.OutQueue:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := WriteFrame(s.conn, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
