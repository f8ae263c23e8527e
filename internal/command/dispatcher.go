package command

import (
	"github.com/yndnr/minikv/internal/resp"
	"github.com/yndnr/minikv/internal/storage"
)

// UnknownName is reported by Resolve when no handler answers.
const UnknownName = "unknown"

// Context is the input of a single dispatch: the decoded request and the
// store shared by all connections. It is built per request and not kept.
type Context struct {
	Request resp.Token
	Store   *storage.Store
}

// Handler recognizes and serves one command shape.
type Handler interface {
	// Name identifies the handler in logs and metrics.
	Name() string

	// TryHandle returns a response and true if it serves the request, or
	// false to let the next handler try.
	TryHandle(ctx *Context) (resp.Token, bool)
}

// Dispatcher tries its handlers in registration order. The first handler
// to answer wins, so an earlier handler shadows any later one that would
// match the same request.
type Dispatcher struct {
	handlers []Handler
}

// New creates a dispatcher over handlers, tried in the given order.
func New(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// NewDefault creates the dispatcher used by the server: PING, ECHO, GET
// and SET <key> <value>. Every other request is an unknown command.
func NewDefault() *Dispatcher {
	return New(
		Ping{},
		Echo{},
		Get{},
		Set{},
	)
}

// NewExtended creates the default dispatcher plus SET with EX/PX expiry
// and DEL. The server only uses it when extended commands are enabled.
func NewExtended() *Dispatcher {
	return New(
		Ping{},
		Echo{},
		Get{},
		Set{},
		SetExpire{},
		Del{},
	)
}

// Dispatch resolves the request to a response.
func (d *Dispatcher) Dispatch(ctx *Context) resp.Token {
	t, _ := d.Resolve(ctx)
	return t
}

// Resolve resolves the request to a response and also returns the name
// of the handler that produced it, or UnknownName.
func (d *Dispatcher) Resolve(ctx *Context) (resp.Token, string) {
	for _, h := range d.handlers {
		if t, ok := h.TryHandle(ctx); ok {
			return t, h.Name()
		}
	}
	return resp.SimpleError("unknown command"), UnknownName
}
