package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formats lists the accepted --format values.
func Formats() []string { return []string{"json", "yaml"} }

// Write writes output in the requested format (json when empty).
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "yaml", "yml":
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON, one document per line unless pretty.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteYAML goes through JSON first so json tags decide field names and
// omitempty, the same as the JSON output.
func WriteYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Decode reads a JSON or YAML document into v. YAML is a superset of JSON,
// so format only matters for error messages.
func Decode(r io.Reader, v any, format string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return json.Unmarshal(b, v)
	case "yaml", "yml":
		// Route through JSON so time.Time and json tags behave the same.
		var x any
		if err := yaml.Unmarshal(b, &x); err != nil {
			return err
		}
		jb, err := json.Marshal(x)
		if err != nil {
			return err
		}
		return json.Unmarshal(jb, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
