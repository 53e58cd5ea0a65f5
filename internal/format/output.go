package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Names lists the accepted --format values.
var Names = []string{"json", "yaml", "edn"}

// Write writes v in the requested format (json when empty).
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "yaml", "yml":
		return WriteYAML(w, v)
	case "edn":
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s (expected %s)", format, strings.Join(Names, "|"))
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteYAML goes through JSON first so json tags decide field names, the same
// as for the other formats.
func WriteYAML(w io.Writer, v any) error {
	x, err := toGeneric(v)
	if err != nil {
		return err
	}
	x = yamlNumbers(x)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return err
	}
	return enc.Close()
}

// toGeneric converts v into maps/slices/json.Number via its JSON form.
func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}
	return x, nil
}

// yamlNumbers replaces json.Number (a string type, which yaml would quote)
// with int64 or float64.
func yamlNumbers(x any) any {
	switch t := x.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, v := range t {
			t[k] = yamlNumbers(v)
		}
		return t
	case []any:
		for i, v := range t {
			t[i] = yamlNumbers(v)
		}
		return t
	default:
		return x
	}
}
