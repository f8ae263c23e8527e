package resp

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================
// Decode Tests - Valid Frames
// ============================================================

func TestDecode_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Token
		wantRest string
	}{
		{
			name:  "simple string",
			input: "+OK\r\n",
			want:  SimpleString("OK"),
		},
		{
			name:  "simple string with spaces",
			input: "+hello world\r\n",
			want:  SimpleString("hello world"),
		},
		{
			name:  "simple error",
			input: "-unknown command\r\n",
			want:  SimpleError("unknown command"),
		},
		{
			name:  "bulk string",
			input: "$4\r\nPING\r\n",
			want:  BulkString("PING"),
		},
		{
			name:  "empty bulk string",
			input: "$0\r\n\r\n",
			want:  BulkString(""),
		},
		{
			name:  "bulk string containing CRLF",
			input: "$7\r\nab\r\ncde\r\n",
			want:  BulkString("ab\r\ncde"),
		},
		{
			name:  "null bulk string",
			input: "$-1\r\n",
			want:  NullBulkString(),
		},
		{
			name:  "integer",
			input: ":1000\r\n",
			want:  Integer(1000),
		},
		{
			name:  "negative integer",
			input: ":-42\r\n",
			want:  Integer(-42),
		},
		{
			name:  "zero",
			input: ":0\r\n",
			want:  Integer(0),
		},
		{
			name:  "empty array",
			input: "*0\r\n",
			want:  Array(),
		},
		{
			name:  "mixed array",
			input: "*2\r\n+OK\r\n:1000\r\n",
			want:  Array(SimpleString("OK"), Integer(1000)),
		},
		{
			name:  "SET command",
			input: "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
			want:  Array(BulkString("SET"), BulkString("foo"), BulkString("bar")),
		},
		{
			name:  "nested arrays",
			input: "*2\r\n*1\r\n:1\r\n*2\r\n$-1\r\n*0\r\n",
			want:  Array(Array(Integer(1)), Array(NullBulkString(), Array())),
		},
		{
			name:     "trailing bytes are returned",
			input:    "+OK\r\n:1\r\n",
			want:     SimpleString("OK"),
			wantRest: ":1\r\n",
		},
		{
			name:     "second request left untouched",
			input:    "$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n",
			want:     BulkString("PING"),
			wantRest: "*1\r\n$4\r\nPING\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Decode(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if string(rest) != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

// ============================================================
// Decode Tests - Malformed Frames
// ============================================================

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type byte", "PING\r\n"},
		{"empty simple string", "+\r\n"},
		{"empty simple error", "-\r\n"},
		{"bare LF", "+OK\n"},
		{"CR without LF", "+O\rK\r\n"},
		{"non-numeric bulk length", "$abc\r\nabc\r\n"},
		{"negative bulk length", "$-2\r\n"},
		{"plus-signed bulk length", "$+3\r\nfoo\r\n"},
		{"empty bulk length", "$\r\n\r\n"},
		{"bulk terminator missing", "$3\r\nfooXY"},
		{"bulk longer than declared", "$2\r\nfoo\r\n"},
		{"non-numeric integer", ":12a\r\n"},
		{"plus-signed integer", ":+5\r\n"},
		{"lone minus integer", ":-\r\n"},
		{"integer overflow", ":9223372036854775808\r\n"},
		{"null array", "*-1\r\n"},
		{"non-numeric array length", "*x\r\n"},
		{"bad nested element", "*2\r\n$3\r\nGET\r\n?foo\r\n"},
		{"bad deeply nested element", "*1\r\n*1\r\n*1\r\n+\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := Decode([]byte(tt.input))
			if err == nil {
				t.Fatalf("Decode(%q) = %v, want error", tt.input, got)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("error = %v, want ErrProtocol", err)
			}
			if errors.Is(err, ErrIncomplete) {
				t.Errorf("error = %v, should not be ErrIncomplete", err)
			}
			if rest != nil {
				t.Errorf("rest = %q, want nil", rest)
			}
		})
	}
}

func TestDecode_Incomplete(t *testing.T) {
	frames := []string{
		"+OK\r\n",
		"$5\r\nHello\r\n",
		"$-1\r\n",
		":-12\r\n",
		"*2\r\n$4\r\nECHO\r\n$5\r\nHello\r\n",
		"*1\r\n*1\r\n*0\r\n",
	}

	for _, frame := range frames {
		for i := 0; i < len(frame); i++ {
			prefix := frame[:i]
			_, _, err := Decode([]byte(prefix))
			if !errors.Is(err, ErrIncomplete) {
				t.Errorf("Decode(%q) error = %v, want ErrIncomplete", prefix, err)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("Decode(%q) error = %v, want ErrProtocol in chain", prefix, err)
			}
		}
		if _, _, err := Decode([]byte(frame)); err != nil {
			t.Errorf("Decode(%q) error = %v", frame, err)
		}
	}
}

// ============================================================
// Decode Tests - Limits
// ============================================================

func TestDecoder_Limits(t *testing.T) {
	d := Decoder{MaxBulkLen: 8, MaxArrayLen: 4, MaxDepth: 3, MaxLineLen: 16}

	tests := []struct {
		name  string
		input string
	}{
		{"bulk too long", "$9\r\n123456789\r\n"},
		{"array too long", "*5\r\n:1\r\n:2\r\n:3\r\n:4\r\n:5\r\n"},
		{"too deep", "*1\r\n*1\r\n*1\r\n*1\r\n*0\r\n"},
		{"simple string line too long", "+" + strings.Repeat("a", 32) + "\r\n"},
		{"header without CRLF", "$" + strings.Repeat("1", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := d.Decode([]byte(tt.input))
			if !errors.Is(err, ErrLimitExceeded) {
				t.Errorf("error = %v, want ErrLimitExceeded", err)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("error = %v, want ErrProtocol in chain", err)
			}
		})
	}

	// At the limit is fine.
	if _, _, err := d.Decode([]byte("*1\r\n*1\r\n*1\r\n*0\r\n")); err == nil {
		t.Error("depth 4 should exceed MaxDepth 3")
	}
	if _, _, err := d.Decode([]byte("*1\r\n*1\r\n*0\r\n")); err != nil {
		t.Errorf("depth 3 error = %v", err)
	}
	if _, _, err := d.Decode([]byte("$8\r\n12345678\r\n")); err != nil {
		t.Errorf("bulk of MaxBulkLen error = %v", err)
	}
}

func TestDecode_DeepNestingWithinDefault(t *testing.T) {
	depth := DefaultMaxDepth
	input := strings.Repeat("*1\r\n", depth-1) + "*0\r\n"

	got, rest, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %q, want empty", rest)
	}

	n := 0
	for cur := got; len(cur.Items) > 0; cur = cur.Items[0] {
		n++
	}
	if n != depth-1 {
		t.Errorf("nesting = %d, want %d", n, depth-1)
	}

	_, _, err = Decode([]byte("*1\r\n" + input))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("one level deeper: error = %v, want ErrLimitExceeded", err)
	}
}
