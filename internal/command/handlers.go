package command

import (
	"math"
	"strconv"
	"time"

	"github.com/yndnr/minikv/internal/resp"
	"github.com/yndnr/minikv/internal/storage"
)

// Ping answers PING sent as a simple string, a bulk string, or a
// one-element array wrapping either (arrays may nest).
type Ping struct{}

func (Ping) Name() string { return "ping" }

func (Ping) TryHandle(ctx *Context) (resp.Token, bool) {
	if !isPing(ctx.Request) {
		return resp.Token{}, false
	}
	return resp.BulkString("PONG"), true
}

func isPing(t resp.Token) bool {
	switch t.Kind {
	case resp.KindSimpleString, resp.KindBulkString:
		return equalFoldASCII(t.Str, "PING")
	case resp.KindArray:
		return len(t.Items) == 1 && isPing(t.Items[0])
	default:
		return false
	}
}

// Echo answers ECHO <message> with the message unchanged.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) TryHandle(ctx *Context) (resp.Token, bool) {
	args, ok := commandArgs(ctx.Request, "ECHO", 2)
	if !ok {
		return resp.Token{}, false
	}
	return resp.BulkString(args[1]), true
}

// Get answers GET <key> with the live value or a null bulk string.
type Get struct{}

func (Get) Name() string { return "get" }

func (Get) TryHandle(ctx *Context) (resp.Token, bool) {
	args, ok := commandArgs(ctx.Request, "GET", 2)
	if !ok {
		return resp.Token{}, false
	}
	v, found := ctx.Store.Get(args[1])
	if !found {
		return resp.NullBulkString(), true
	}
	return resp.BulkString(v), true
}

// Set answers SET <key> <value>. The key is overwritten with no expiry.
type Set struct{}

func (Set) Name() string { return "set" }

func (Set) TryHandle(ctx *Context) (resp.Token, bool) {
	args, ok := commandArgs(ctx.Request, "SET", 3)
	if !ok {
		return resp.Token{}, false
	}
	ctx.Store.Insert(args[1], args[2], storage.NoExpiry)
	return resp.SimpleString("OK"), true
}

// SetExpire answers SET <key> <value> EX <seconds> and
// SET <key> <value> PX <milliseconds>. The amount must be a positive
// integer; anything else is left to the next handler.
type SetExpire struct{}

func (SetExpire) Name() string { return "set" }

func (SetExpire) TryHandle(ctx *Context) (resp.Token, bool) {
	args, ok := commandArgs(ctx.Request, "SET", 5)
	if !ok {
		return resp.Token{}, false
	}

	var unit time.Duration
	switch {
	case equalFoldASCII(args[3], "EX"):
		unit = time.Second
	case equalFoldASCII(args[3], "PX"):
		unit = time.Millisecond
	default:
		return resp.Token{}, false
	}

	n, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil || n <= 0 || n > math.MaxInt64/int64(unit) {
		return resp.Token{}, false
	}

	ctx.Store.Insert(args[1], args[2], time.Duration(n)*unit)
	return resp.SimpleString("OK"), true
}

// Del answers DEL <key> [key ...] with the number of live keys removed.
type Del struct{}

func (Del) Name() string { return "del" }

func (Del) TryHandle(ctx *Context) (resp.Token, bool) {
	args, ok := commandArgs(ctx.Request, "DEL", -1)
	if !ok || len(args) < 2 {
		return resp.Token{}, false
	}

	var removed int64
	for _, key := range args[1:] {
		if ctx.Store.Delete(key) {
			removed++
		}
	}
	return resp.Integer(removed), true
}

// commandArgs returns the payloads of t if it is an array of bulk strings
// whose first element is name (ASCII case-insensitive). A non-negative
// arity requires exactly that many elements.
func commandArgs(t resp.Token, name string, arity int) ([]string, bool) {
	if t.Kind != resp.KindArray || len(t.Items) == 0 {
		return nil, false
	}
	if arity >= 0 && len(t.Items) != arity {
		return nil, false
	}

	args := make([]string, len(t.Items))
	for i, item := range t.Items {
		if !item.IsBulk() {
			return nil, false
		}
		args[i] = item.Str
	}
	if !equalFoldASCII(args[0], name) {
		return nil, false
	}
	return args, true
}

// equalFoldASCII is strings.EqualFold restricted to ASCII letters. Command
// names are matched this way on purpose: full Unicode case mapping would
// let U+017F (long s) match 's', so "ſet" is an unknown command here.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
