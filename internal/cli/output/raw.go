package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/resp"
)

// RawFormatter renders replies the way redis-cli does.
type RawFormatter struct{}

// Format writes v followed by a newline.
func (f *RawFormatter) Format(w io.Writer, v resp.Value) error {
	var b strings.Builder
	writeRaw(&b, v, "")
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRaw(b *strings.Builder, v resp.Value, indent string) {
	switch v.Type() {
	case resp.Error:
		b.WriteString("(error) ")
		b.WriteString(v.String())
	case resp.Integer:
		fmt.Fprintf(b, "(integer) %d", v.Integer())
	case resp.SimpleString:
		b.WriteString(v.String())
	case resp.Array:
		items := v.Array()
		if v.IsNull() {
			b.WriteString("(nil)")
			return
		}
		if len(items) == 0 {
			b.WriteString("(empty array)")
			return
		}
		width := len(strconv.Itoa(len(items)))
		for i, item := range items {
			if i > 0 {
				b.WriteByte('\n')
				b.WriteString(indent)
			}
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			b.WriteString(prefix)
			writeRaw(b, item, indent+strings.Repeat(" ", len(prefix)))
		}
	default:
		if v.IsNull() {
			b.WriteString("(nil)")
			return
		}
		b.WriteString(strconv.Quote(v.String()))
	}
}
