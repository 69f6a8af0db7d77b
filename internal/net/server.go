package net

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections and creates Sessions. AcceptLoop accepts
// continuously on its own goroutine; new/dead sessions are communicated to
// the tick loop via channels, and the tick loop drains NewSessions() at
// its own pace (every 8th tick, see cmd/worldserver's ioPump).
type Server struct {
	listener net.Listener
	nextSeq  atomic.Uint64
	newConns chan *Session
	deadCh   chan uuidString
	inSize   int
	outSize  int
	log      *zap.Logger
	closeCh  chan struct{}
}

type uuidString = string

func NewServer(bindAddr string, inSize, outSize int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uuidString, 64),
		inSize:   inSize,
		outSize:  outSize,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop runs in its own goroutine, accepting connections and pushing
// them onto the newConns channel for the tick loop to pick up.
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

		seq := s.nextSeq.Add(1)
		sess := NewSession(conn, seq, s.inSize, s.outSize, s.log)
		sess.Start()

		s.log.Info("connection accepted", zap.Uint64("seq", seq), zap.String("ip", sess.IP))

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("new-connection queue full, rejecting")
			sess.Close()
		}
	}
}

func (s *Server) NewSessions() <-chan *Session { return s.newConns }

func (s *Server) NotifyDead(id string) {
	select {
	case s.deadCh <- id:
	default:
	}
}

func (s *Server) DeadSessions() <-chan string { return s.deadCh }

func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }
