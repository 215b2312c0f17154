// Package stream serves captured events to remote subscribers over SSH.
//
// A client connects with a whitelisted key and names the format as the
// session command: "text" (the default), "json", or "raw" for length-prefixed
// protobuf frames.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/logger"
	"github.com/bnema/keytap/internal/wire"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

const (
	subscriberBuffer = 256
	flushDelay       = 10 * time.Millisecond
	flushSize        = 16 << 10
	shutdownGrace    = 2 * time.Second
)

// Authorizer decides whether a key fingerprint may subscribe.
type Authorizer func(fingerprint string) bool

// Options configures a Server.
type Options struct {
	Address     string
	HostKeyPath string
	MaxClients  int
	Authorize   Authorizer
}

// Server streams events from a hub to SSH sessions
type Server struct {
	opts     Options
	hub      *input.Hub
	sshSrv   *ssh.Server
	listener net.Listener

	mu      sync.Mutex
	clients map[string]string // session id -> remote address

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	OnClientConnected    func(addr, fingerprint string)
	OnClientDisconnected func(addr string)
}

// NewServer creates a server publishing hub's events
func NewServer(hub *input.Hub, opts Options) *Server {
	if opts.Authorize == nil {
		opts.Authorize = func(string) bool { return false }
	}
	return &Server{
		opts:    opts,
		hub:     hub,
		clients: make(map[string]string),
		stop:    make(chan struct{}),
	}
}

// Start listens and serves until ctx is done or Stop is called
func (s *Server) Start(ctx context.Context) error {
	server, err := wish.NewServer(
		wish.WithAddress(s.opts.Address),
		wish.WithHostKeyPath(s.opts.HostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(
			s.streamHandler(),
			s.loggingMiddleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	l, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Address, err)
	}
	s.sshSrv = server
	s.listener = l

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Infof("Event stream listening on %s", l.Addr())
		if err := server.Serve(l); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Errorf("SSH server error: %v", err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stop:
		}
	}()
	return nil
}

// Addr returns the listening address once started
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Clients returns the number of streaming sessions
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Stop shuts the server down and ends every session
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.sshSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := s.sshSrv.Shutdown(ctx); err != nil {
				_ = s.sshSrv.Close()
			}
		}
		s.wg.Wait()
	})
}

func (s *Server) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	fingerprint := gossh.FingerprintSHA256(key)
	if s.opts.Authorize(fingerprint) {
		logger.Infof("SSH key accepted addr=%s key=%s", ctx.RemoteAddr(), fingerprint)
		return true
	}
	logger.Warnf("SSH key denied addr=%s key=%s", ctx.RemoteAddr(), fingerprint)
	return false
}

func (s *Server) loggingMiddleware() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			logger.Debugf("SSH session started: user=%s addr=%s command=%v", sess.User(), sess.RemoteAddr(), sess.Command())
			h(sess)
			logger.Debugf("SSH session ended: addr=%s", sess.RemoteAddr())
		}
	}
}

// sessionFormat maps the session command to a wire format
func sessionFormat(cmd []string) (wire.Format, error) {
	switch {
	case len(cmd) == 0:
		return wire.FormatText, nil
	case len(cmd) == 1 && cmd[0] == "raw":
		return wire.FormatProto, nil
	case len(cmd) == 1:
		return wire.ParseFormat(cmd[0])
	}
	return "", fmt.Errorf("unexpected arguments %v", cmd)
}

func (s *Server) streamHandler() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			format, err := sessionFormat(sess.Command())
			if err != nil {
				fmt.Fprintf(sess.Stderr(), "%v\n", err)
				_ = sess.Exit(2)
				return
			}

			id := sess.Context().SessionID()
			addr := sess.RemoteAddr().String()

			s.mu.Lock()
			if s.opts.MaxClients > 0 && len(s.clients) >= s.opts.MaxClients {
				s.mu.Unlock()
				logger.Infof("Rejecting client - max clients reached addr=%s", addr)
				fmt.Fprintf(sess.Stderr(), "Server already has maximum number of active clients\n")
				_ = sess.Exit(1)
				return
			}
			s.clients[id] = addr
			s.mu.Unlock()

			if s.OnClientConnected != nil {
				s.OnClientConnected(addr, gossh.FingerprintSHA256(sess.PublicKey()))
			}
			defer func() {
				s.mu.Lock()
				delete(s.clients, id)
				s.mu.Unlock()
				if s.OnClientDisconnected != nil {
					s.OnClientDisconnected(addr)
				}
			}()

			err = s.serveSession(sess, format)
			if err != nil {
				logger.Debugf("Stream to %s ended: %v", addr, err)
			}
			_ = sess.Exit(0)
		}
	}
}

// serveSession copies hub events to sess until either side goes away
func (s *Server) serveSession(sess ssh.Session, format wire.Format) error {
	events, cancel := s.hub.Subscribe(subscriberBuffer)
	defer cancel()

	bw := newBufferedWriter(sess, flushDelay, flushSize)
	defer bw.Close()
	enc := wire.NewEncoder(bw, format)

	for {
		select {
		case <-s.stop:
			return nil
		case <-sess.Context().Done():
			return sess.Context().Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
	}
}
