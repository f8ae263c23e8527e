package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/minikv/internal/command"
	"github.com/yndnr/minikv/internal/resp"
	"github.com/yndnr/minikv/internal/storage"
	"github.com/yndnr/minikv/internal/telemetry/logger"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

const readChunkSize = 16 * 1024

// Error replies written by the server itself rather than by a handler.
var (
	replyParseError = resp.SimpleError("parse error")
	replyRateLimit  = resp.SimpleError("rate limit exceeded")
)

// Config holds the RESP server configuration.
type Config struct {
	// Address is the TCP listen address. Port 0 picks a free port.
	Address string
	// ReadTimeout bounds the wait for the rest of a partially received
	// request. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a batch of replies. Zero disables it.
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the first byte of the next request.
	// Zero disables it.
	IdleTimeout time.Duration
	// MaxFrameSize is the most bytes buffered while waiting for a frame
	// to complete. Larger frames close the connection.
	MaxFrameSize int
	// RateLimit is the number of requests per second allowed per client
	// IP. Zero disables rate limiting.
	RateLimit float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MaxFrameSize: resp.DefaultMaxBulkLen + resp.DefaultMaxLineLen,
	}
}

// Server accepts client connections and serves them against one store.
type Server struct {
	cfg        *Config
	store      *storage.Store
	dispatcher *command.Dispatcher
	logger     *slog.Logger
	metrics    *metric.Registry
	limiter    *ipLimiter
	decoder    resp.Decoder
	id         string

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*Conn]struct{}
	stopCtx func() bool

	running atomic.Bool
	wg      sync.WaitGroup
}

// Conn is a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	bw      *bufio.Writer
	enc     *resp.Encoder
	closed  atomic.Bool
}

func newConn(c net.Conn) *Conn {
	bw := bufio.NewWriter(c)
	return &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		bw:      bw,
		enc:     resp.NewEncoder(bw),
	}
}

// ID returns the connection's ULID.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a server. A nil cfg uses DefaultConfig, a nil dispatcher
// uses command.NewDefault, a nil logger uses slog.Default and nil metrics
// get a private registry.
func New(cfg *Config, store *storage.Store, dispatcher *command.Dispatcher, log *slog.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if store == nil {
		store = storage.New()
	}
	if dispatcher == nil {
		dispatcher = command.NewDefault()
	}
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}

	s := &Server{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		logger:     log.With("component", "redisserver"),
		metrics:    metrics,
		decoder:    resp.DefaultDecoder,
		id:         uuid.NewString(),
		conns:      make(map[*Conn]struct{}),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newIPLimiter(cfg.RateLimit)
	}
	if err := metrics.Register(metric.NewStoreCollector(store)); err != nil {
		s.logger.Warn("store collector not registered", "error", err)
	}
	return s
}

// ID returns the server instance ID, unique per process start.
func (s *Server) ID() string {
	return s.id
}

// Start binds the listen address and serves connections in the
// background. Cancelling ctx stops accepting new connections; use
// Shutdown to also close open ones.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.stopCtx = context.AfterFunc(ctx, func() { _ = ln.Close() })
	s.mu.Unlock()

	s.running.Store(true)
	s.logger.Info("redis server listening",
		"address", ln.Addr().String(),
		"instance_id", s.id,
		"rate_limit", s.cfg.RateLimit,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown closes the listener and every open connection, then waits for
// all connection goroutines or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	if s.stopCtx != nil {
		s.stopCtx()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("redis server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		c := newConn(nc)
		if !s.track(c) {
			_ = c.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

// track registers c unless the server is shutting down.
func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	ctx = logger.WithConnID(ctx, c.id)
	remote := c.RemoteAddr().String()
	ip := hostOf(c.RemoteAddr())

	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()
	s.logger.DebugContext(ctx, "connection opened", "remote", remote)
	defer s.logger.DebugContext(ctx, "connection closed", "remote", remote)

	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		if len(buf) > 0 {
			var replied bool
			buf, replied = s.drain(ctx, c, ip, buf)
			if replied {
				if err := s.flush(c); err != nil {
					s.logger.DebugContext(ctx, "write failed", "error", err)
					return
				}
			}
		}

		if len(buf) > s.maxFrameSize() {
			s.logger.WarnContext(ctx, "frame too large", "remote", remote, "buffered", len(buf))
			s.metrics.IncParseError()
			s.metrics.RecordRejected("frame_too_large")
			_ = c.enc.WriteToken(replyParseError)
			_ = s.flush(c)
			return
		}

		// An empty buffer means we are between requests.
		timeout := s.cfg.ReadTimeout
		if len(buf) == 0 {
			timeout = s.cfg.IdleTimeout
		}
		if err := setDeadline(c.netConn.SetReadDeadline, timeout); err != nil {
			return
		}

		n, err := c.netConn.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if n > 0 {
				// Answer whatever arrived with the final read.
				if _, replied := s.drain(ctx, c, ip, buf); replied {
					_ = s.flush(c)
				}
			}
			s.logReadError(ctx, err)
			return
		}
	}
}

// drain answers every complete frame at the start of buf and returns the
// remaining bytes, compacted to the front of buf.
func (s *Server) drain(ctx context.Context, c *Conn, ip string, buf []byte) ([]byte, bool) {
	data := buf
	replied := false

	for len(data) > 0 {
		req, rest, err := s.decoder.Decode(data)
		if errors.Is(err, resp.ErrIncomplete) {
			break
		}
		if err != nil {
			// Framing is lost; drop what we have and wait for new input.
			s.metrics.IncParseError()
			s.logger.DebugContext(ctx, "malformed request", "error", err, "discarded", len(data))
			_ = c.enc.WriteToken(replyParseError)
			replied = true
			data = nil
			break
		}

		data = rest
		_ = c.enc.WriteToken(s.handle(ctx, ip, req))
		replied = true
	}

	return append(buf[:0], data...), replied
}

func (s *Server) handle(ctx context.Context, ip string, req resp.Token) resp.Token {
	if s.limiter != nil && !s.limiter.allow(ip) {
		s.metrics.IncRateLimited()
		return replyRateLimit
	}

	start := time.Now()
	reply, name := s.dispatcher.Resolve(&command.Context{Request: req, Store: s.store})
	s.metrics.RecordCommand(name, time.Since(start))

	if s.logger.Enabled(ctx, slog.LevelDebug) {
		s.logger.DebugContext(ctx, "command", "handler", name, "reply", reply.Kind.String())
	}
	return reply
}

func (s *Server) maxFrameSize() int {
	if s.cfg.MaxFrameSize <= 0 {
		return resp.DefaultMaxBulkLen + resp.DefaultMaxLineLen
	}
	return s.cfg.MaxFrameSize
}

func (s *Server) flush(c *Conn) error {
	if err := setDeadline(c.netConn.SetWriteDeadline, s.cfg.WriteTimeout); err != nil {
		return err
	}
	return c.enc.Flush()
}

func (s *Server) logReadError(ctx context.Context, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.DebugContext(ctx, "connection timed out")
		return
	}
	s.logger.DebugContext(ctx, "connection read error", "error", err)
}

// setDeadline applies timeout from now, or clears the deadline when
// timeout is zero.
func setDeadline(set func(time.Time) error, timeout time.Duration) error {
	if timeout <= 0 {
		return set(time.Time{})
	}
	return set(time.Now().Add(timeout))
}
