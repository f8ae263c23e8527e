package resp

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Token.
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindSimpleError
	KindBulkString
	KindNullBulkString
	KindInteger
	KindArray
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "SimpleString"
	case KindSimpleError:
		return "SimpleError"
	case KindBulkString:
		return "BulkString"
	case KindNullBulkString:
		return "NullBulkString"
	case KindInteger:
		return "Integer"
	case KindArray:
		return "Array"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is one protocol value, either a request or a response.
//
// Only the field matching Kind is meaningful: Str for the three string
// variants, Int for Integer, Items for Array. NullBulkString carries no
// payload. The zero Token is invalid; build tokens with the constructors.
type Token struct {
	Kind  Kind
	Str   string
	Int   int64
	Items []Token
}

func SimpleString(s string) Token { return Token{Kind: KindSimpleString, Str: s} }

func SimpleError(s string) Token { return Token{Kind: KindSimpleError, Str: s} }

func BulkString(s string) Token { return Token{Kind: KindBulkString, Str: s} }

func NullBulkString() Token { return Token{Kind: KindNullBulkString} }

func Integer(n int64) Token { return Token{Kind: KindInteger, Int: n} }

// Array builds an array token. Array() yields an empty array.
func Array(items ...Token) Token {
	if items == nil {
		items = []Token{}
	}
	return Token{Kind: KindArray, Items: items}
}

// IsBulk reports whether t is a bulk string (not the null bulk string).
func (t Token) IsBulk() bool { return t.Kind == KindBulkString }

// Equal reports deep structural equality. Empty arrays are equal
// whether their backing slice is nil or not.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindSimpleString, KindSimpleError, KindBulkString:
		return t.Str == o.Str
	case KindInteger:
		return t.Int == o.Int
	case KindArray:
		if len(t.Items) != len(o.Items) {
			return false
		}
		for i := range t.Items {
			if !t.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the token for logs and test output, e.g.
// Array[BulkString("GET"), BulkString("foo")].
func (t Token) String() string {
	var sb strings.Builder
	t.writeTo(&sb)
	return sb.String()
}

func (t Token) writeTo(sb *strings.Builder) {
	sb.WriteString(t.Kind.String())
	switch t.Kind {
	case KindSimpleString, KindSimpleError, KindBulkString:
		sb.WriteByte('(')
		sb.WriteString(strconv.Quote(t.Str))
		sb.WriteByte(')')
	case KindInteger:
		sb.WriteByte('(')
		sb.WriteString(strconv.FormatInt(t.Int, 10))
		sb.WriteByte(')')
	case KindArray:
		sb.WriteByte('[')
		for i, item := range t.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.writeTo(sb)
		}
		sb.WriteByte(']')
	}
}
