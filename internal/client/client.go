package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/resp"
)

// DefaultTimeout bounds dialing and each round trip when the context
// carries no deadline.
const DefaultTimeout = 5 * time.Second

// ErrNil is returned by Get when the key does not exist.
var ErrNil = errors.New("client: nil reply")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("client: closed")

// ServerError is an error reply sent by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server: " + e.Message
}

// UnexpectedReplyError reports a reply whose type does not fit the command.
type UnexpectedReplyError struct {
	Command string
	Reply   resp.Value
}

func (e *UnexpectedReplyError) Error() string {
	return fmt.Sprintf("client: unexpected %s reply to %s: %q", typeName(e.Reply.Type()), e.Command, e.Reply.String())
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the fallback timeout used when a context has no
// deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client is a connection to a minikv server. It is safe for concurrent
// use; requests are serialized.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	bw     *bufio.Writer
	wr     *resp.Writer
	rd     *resp.Reader
	closed bool
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c.conn = conn
	c.bw = bufio.NewWriter(conn)
	c.wr = resp.NewWriter(c.bw)
	c.rd = resp.NewReader(bufio.NewReader(conn))
	return c, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// Do sends args as one command and returns the raw reply. An error reply
// is returned as a value, not as an error.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("client: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return resp.Value{}, ErrClosed
	}

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return resp.Value{}, err
	}

	vals := make([]resp.Value, len(args))
	for i, a := range args {
		vals[i] = resp.StringValue(a)
	}
	if err := c.wr.WriteArray(vals); err != nil {
		return resp.Value{}, c.fail(err)
	}
	if err := c.bw.Flush(); err != nil {
		return resp.Value{}, c.fail(err)
	}

	v, _, err := c.rd.ReadValue()
	if err != nil {
		return resp.Value{}, c.fail(err)
	}
	return v, nil
}

// Ping sends PING and returns the reply text.
func (c *Client) Ping(ctx context.Context) (string, error) {
	v, err := c.call(ctx, "PING")
	if err != nil {
		return "", err
	}
	return c.text("PING", v)
}

// Echo sends ECHO message.
func (c *Client) Echo(ctx context.Context, message string) (string, error) {
	v, err := c.call(ctx, "ECHO", message)
	if err != nil {
		return "", err
	}
	return c.text("ECHO", v)
}

// Get returns the value of key, or ErrNil if it does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.call(ctx, "GET", key)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", ErrNil
	}
	return c.text("GET", v)
}

// Set stores value under key with no expiry.
func (c *Client) Set(ctx context.Context, key, value string) error {
	v, err := c.call(ctx, "SET", key, value)
	if err != nil {
		return err
	}
	return expectOK("SET", v)
}

// SetEX stores value under key for ttl. Whole seconds are sent as EX,
// anything else as PX in milliseconds. The server must have extended
// commands enabled.
func (c *Client) SetEX(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < time.Millisecond {
		return fmt.Errorf("client: ttl %s is below one millisecond", ttl)
	}

	opt, amount := "PX", int64(ttl/time.Millisecond)
	if ttl%time.Second == 0 {
		opt, amount = "EX", int64(ttl/time.Second)
	}

	v, err := c.call(ctx, "SET", key, value, opt, strconv.FormatInt(amount, 10))
	if err != nil {
		return err
	}
	return expectOK("SET", v)
}

// Del removes keys and returns how many existed. Like SetEX it needs
// extended commands on the server.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, errors.New("client: DEL needs at least one key")
	}
	v, err := c.call(ctx, append([]string{"DEL"}, keys...)...)
	if err != nil {
		return 0, err
	}
	if v.Type() != resp.Integer {
		return 0, &UnexpectedReplyError{Command: "DEL", Reply: v}
	}
	return int64(v.Integer()), nil
}

// call is Do with error replies turned into *ServerError.
func (c *Client) call(ctx context.Context, args ...string) (resp.Value, error) {
	v, err := c.Do(ctx, args...)
	if err != nil {
		return resp.Value{}, err
	}
	if v.Type() == resp.Error {
		return resp.Value{}, &ServerError{Message: v.String()}
	}
	return v, nil
}

func (c *Client) text(cmd string, v resp.Value) (string, error) {
	switch v.Type() {
	case resp.SimpleString, resp.BulkString:
		return v.String(), nil
	default:
		return "", &UnexpectedReplyError{Command: cmd, Reply: v}
	}
}

func (c *Client) deadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	if c.timeout > 0 {
		return time.Now().Add(c.timeout)
	}
	return time.Time{}
}

// fail closes the connection after an I/O error, since the reply stream
// can no longer be trusted. Callers hold c.mu.
func (c *Client) fail(err error) error {
	c.closed = true
	_ = c.conn.Close()
	return err
}

func expectOK(cmd string, v resp.Value) error {
	if v.Type() != resp.SimpleString || v.String() != "OK" {
		return &UnexpectedReplyError{Command: cmd, Reply: v}
	}
	return nil
}

func typeName(t resp.Type) string {
	switch t {
	case resp.SimpleString:
		return "simple string"
	case resp.Error:
		return "error"
	case resp.Integer:
		return "integer"
	case resp.BulkString:
		return "bulk string"
	case resp.Array:
		return "array"
	default:
		return "unknown"
	}
}
