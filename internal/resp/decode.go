package resp

import (
	"errors"
	"fmt"
	"strconv"
)

// Decoder limits. They keep hostile input from forcing large allocations
// or unbounded recursion.
const (
	// DefaultMaxBulkLen matches the proto-max-bulk-len default of Redis.
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxArrayLen limits the declared element count of one array.
	DefaultMaxArrayLen = 1 << 20

	// DefaultMaxDepth limits array nesting.
	DefaultMaxDepth = 512

	// DefaultMaxLineLen limits simple string, error and header lines.
	DefaultMaxLineLen = 64 * 1024
)

var (
	// ErrProtocol is returned for input that does not match the grammar.
	ErrProtocol = errors.New("resp: parse error")

	// ErrIncomplete means the input is a valid prefix of a frame but ran
	// out of bytes. It wraps ErrProtocol, so callers that cannot supply
	// more input may treat it as an ordinary parse error.
	ErrIncomplete = fmt.Errorf("%w: incomplete input", ErrProtocol)

	// ErrLimitExceeded is returned when a declared length or the nesting
	// depth is above the decoder's limits. It wraps ErrProtocol.
	ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrProtocol)
)

// Decoder decodes RESP frames. Zero fields fall back to the defaults.
type Decoder struct {
	MaxBulkLen  int
	MaxArrayLen int
	MaxDepth    int
	MaxLineLen  int
}

// DefaultDecoder is used by Decode.
var DefaultDecoder = Decoder{
	MaxBulkLen:  DefaultMaxBulkLen,
	MaxArrayLen: DefaultMaxArrayLen,
	MaxDepth:    DefaultMaxDepth,
	MaxLineLen:  DefaultMaxLineLen,
}

// Decode decodes one token from the start of b with DefaultDecoder.
func Decode(b []byte) (Token, []byte, error) {
	return DefaultDecoder.Decode(b)
}

// Decode decodes one token from the start of b and returns it together
// with the unconsumed suffix of b. On failure nothing is consumed.
func (d Decoder) Decode(b []byte) (Token, []byte, error) {
	t, n, err := d.decodeToken(b, 0)
	if err != nil {
		return Token{}, nil, err
	}
	return t, b[n:], nil
}

// decodeToken decodes one token at the start of b and returns the number
// of bytes it spans.
func (d Decoder) decodeToken(b []byte, depth int) (Token, int, error) {
	if len(b) == 0 {
		return Token{}, 0, ErrIncomplete
	}

	switch b[0] {
	case '+':
		s, n, err := d.readText(b)
		if err != nil {
			return Token{}, 0, err
		}
		return SimpleString(s), n, nil
	case '-':
		s, n, err := d.readText(b)
		if err != nil {
			return Token{}, 0, err
		}
		return SimpleError(s), n, nil
	case '$':
		return d.decodeBulk(b)
	case ':':
		line, n, err := d.readLine(b, 32)
		if err != nil {
			return Token{}, 0, err
		}
		v, err := parseInt(line)
		if err != nil {
			return Token{}, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
		}
		return Integer(v), n, nil
	case '*':
		return d.decodeArray(b, depth)
	default:
		return Token{}, 0, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, b[0])
	}
}

func (d Decoder) decodeBulk(b []byte) (Token, int, error) {
	line, n, err := d.readLine(b, 32)
	if err != nil {
		return Token{}, 0, err
	}
	if string(line) == "-1" {
		return NullBulkString(), n, nil
	}
	size, err := parseLength(line)
	if err != nil {
		return Token{}, 0, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line)
	}
	if max := d.maxBulkLen(); size > max {
		return Token{}, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, size, max)
	}

	end := n + size
	if len(b) < end+2 {
		return Token{}, 0, ErrIncomplete
	}
	if b[end] != '\r' || b[end+1] != '\n' {
		return Token{}, 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return BulkString(string(b[n:end])), end + 2, nil
}

func (d Decoder) decodeArray(b []byte, depth int) (Token, int, error) {
	line, n, err := d.readLine(b, 32)
	if err != nil {
		return Token{}, 0, err
	}
	count, err := parseLength(line)
	if err != nil {
		return Token{}, 0, fmt.Errorf("%w: invalid array length %q", ErrProtocol, line)
	}
	if max := d.maxArrayLen(); count > max {
		return Token{}, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, count, max)
	}
	if max := d.maxDepth(); depth+1 > max {
		return Token{}, 0, fmt.Errorf("%w: nesting depth exceeds limit %d", ErrLimitExceeded, max)
	}

	items, m, err := d.decodeItems(b[n:], count, depth+1)
	if err != nil {
		return Token{}, 0, err
	}
	return Array(items...), n + m, nil
}

// decodeItems decodes exactly count consecutive tokens.
func (d Decoder) decodeItems(b []byte, count, depth int) ([]Token, int, error) {
	items := make([]Token, 0, min(count, 64))
	pos := 0
	for i := 0; i < count; i++ {
		t, n, err := d.decodeToken(b[pos:], depth)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
		pos += n
	}
	return items, pos, nil
}

// readText reads a simple string or error payload: at least one byte and
// no CR or LF.
func (d Decoder) readText(b []byte) (string, int, error) {
	line, n, err := d.readLine(b, d.maxLineLen())
	if err != nil {
		return "", 0, err
	}
	if len(line) == 0 {
		return "", 0, fmt.Errorf("%w: empty %q line", ErrProtocol, b[0])
	}
	return string(line), n, nil
}

// readLine returns the bytes between the type prefix and the first CRLF,
// and the offset just past that CRLF. A bare CR or LF is a protocol error.
func (d Decoder) readLine(b []byte, maxLen int) ([]byte, int, error) {
	for i := 1; i < len(b); i++ {
		switch b[i] {
		case '\n':
			return nil, 0, fmt.Errorf("%w: bare LF in line", ErrProtocol)
		case '\r':
			if i+1 >= len(b) {
				return nil, 0, ErrIncomplete
			}
			if b[i+1] != '\n' {
				return nil, 0, fmt.Errorf("%w: missing CRLF", ErrProtocol)
			}
			return b[1:i], i + 2, nil
		}
		if i > maxLen {
			return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
		}
	}
	return nil, 0, ErrIncomplete
}

// parseInt parses an optionally negative decimal integer. Unlike
// strconv.ParseInt it rejects a leading '+'.
func parseInt(b []byte) (int64, error) {
	digits := b
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if !isDigits(digits) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(string(b), 10, 64)
}

// parseLength parses a non-negative decimal length.
func parseLength(b []byte) (int, error) {
	if !isDigits(b) {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(string(b))
}

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (d Decoder) maxBulkLen() int {
	if d.MaxBulkLen > 0 {
		return d.MaxBulkLen
	}
	return DefaultMaxBulkLen
}

func (d Decoder) maxArrayLen() int {
	if d.MaxArrayLen > 0 {
		return d.MaxArrayLen
	}
	return DefaultMaxArrayLen
}

func (d Decoder) maxDepth() int {
	if d.MaxDepth > 0 {
		return d.MaxDepth
	}
	return DefaultMaxDepth
}

func (d Decoder) maxLineLen() int {
	if d.MaxLineLen > 0 {
		return d.MaxLineLen
	}
	return DefaultMaxLineLen
}
