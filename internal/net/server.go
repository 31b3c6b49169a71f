package net

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections and creates Sessions. New and dead
// sessions reach the simulation thread via channels.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64
	inSize   int
	outSize  int

	maxClients int
	clients    atomic.Int64

	log     *zap.Logger
	closeCh chan struct{}
}

func NewServer(bindAddr string, inSize, outSize, maxClients int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener:   ln,
		newConns:   make(chan *Session, 64),
		deadCh:     make(chan uint64, 64),
		inSize:     inSize,
		outSize:    outSize,
		maxClients: maxClients,
		log:        log,
		closeCh:    make(chan struct{}),
	}, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		if s.maxClients > 0 && int(s.clients.Load()) >= s.maxClients {
			s.log.Warn("server full, rejecting connection",
				zap.String("ip", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.inSize, s.outSize, s.log)
		s.clients.Add(1)
		go func() {
			<-sess.closeCh
			s.clients.Add(-1)
			s.NotifyDead(sess.ID)
		}()
		sess.Start()

		s.log.Info("client connected",
			zap.Uint64("session", id),
			zap.String("ip", sess.IP),
		)

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("connection queue full, rejecting")
			sess.Close()
		}
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session { return s.newConns }

// NotifyDead reports a dead session id to the simulation thread.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session ids.
func (s *Server) DeadSessions() <-chan uint64 { return s.deadCh }

func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }
