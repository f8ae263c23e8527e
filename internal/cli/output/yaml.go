package output

import (
	"io"

	"github.com/tidwall/resp"
	"go.yaml.in/yaml/v3"
)

// YAMLFormatter formats replies as YAML.
type YAMLFormatter struct{}

// Format formats v as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, v resp.Value) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(toData(v)); err != nil {
		return err
	}
	return encoder.Close()
}
