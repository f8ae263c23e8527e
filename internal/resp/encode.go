package resp

import (
	"bufio"
	"io"
	"strconv"
)

// Encode returns the canonical wire form of t.
func Encode(t Token) []byte {
	return AppendEncode(make([]byte, 0, encodedSizeHint(t)), t)
}

// AppendEncode appends the canonical wire form of t to dst. Arrays are
// written depth-first: the "*<count>" header, then each item in order.
func AppendEncode(dst []byte, t Token) []byte {
	switch t.Kind {
	case KindSimpleString:
		dst = append(dst, '+')
		dst = append(dst, t.Str...)
	case KindSimpleError:
		dst = append(dst, '-')
		dst = append(dst, t.Str...)
	case KindBulkString:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(t.Str)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, t.Str...)
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, t.Int, 10)
	case KindArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(t.Items)), 10)
		dst = append(dst, '\r', '\n')
		for _, item := range t.Items {
			dst = AppendEncode(dst, item)
		}
		return dst
	default:
		// NullBulkString, and the invalid zero Token.
		dst = append(dst, "$-1"...)
	}
	return append(dst, '\r', '\n')
}

func encodedSizeHint(t Token) int {
	switch t.Kind {
	case KindArray:
		n := 16
		for _, item := range t.Items {
			n += encodedSizeHint(item)
		}
		return n
	default:
		return len(t.Str) + 24
	}
}

// Encoder writes tokens to a buffered stream.
type Encoder struct {
	w   *bufio.Writer
	buf []byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Encoder{w: bw}
}

// WriteToken buffers the encoding of t. Call Flush to send it.
func (e *Encoder) WriteToken(t Token) error {
	e.buf = AppendEncode(e.buf[:0], t)
	_, err := e.w.Write(e.buf)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}
