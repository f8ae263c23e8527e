package output

import (
	"fmt"
	"io"

	"github.com/tidwall/resp"
)

// Format represents the output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter writes a reply to w.
type Formatter interface {
	Format(w io.Writer, v resp.Value) error
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatRaw, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want raw, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the given format. Unknown formats
// fall back to raw.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &RawFormatter{}
	}
}

// toData converts a reply into plain Go values for the structured
// encoders.
func toData(v resp.Value) any {
	switch v.Type() {
	case resp.Error:
		return map[string]string{"error": v.String()}
	case resp.Integer:
		return v.Integer()
	case resp.Array:
		if v.IsNull() {
			return nil
		}
		items := v.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toData(item)
		}
		return out
	default:
		if v.IsNull() {
			return nil
		}
		return v.String()
	}
}
