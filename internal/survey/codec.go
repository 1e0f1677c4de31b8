package survey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrConfigParse is returned for configuration payloads that cannot be imported.
var ErrConfigParse = errors.New("invalid configuration")

// Format is a serialization format for import and export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Export serializes the configuration.
func Export(c Configuration, f Format) ([]byte, error) {
	c.Version = Version
	switch f {
	case FormatYAML:
		return yaml.Marshal(&c)
	case FormatJSON, "":
		// no html escaping, titles regularly contain '<' and '&'
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(c); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil
	default:
		return nil, fmt.Errorf("format '%s' not supported", f)
	}
}

// Import overlays the fields present in data on top of current. The
// payload must carry a sequence valued 'questions' field. On error the
// returned configuration is current, unchanged.
func Import(current Configuration, data []byte, f Format) (Configuration, error) {
	imported := current.Clone()
	// questions are always replaced as a whole, never merged element-wise
	imported.Questions = nil
	switch f {
	case FormatYAML:
		var probe map[string]any
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return current, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		if _, ok := probe["questions"].([]any); !ok {
			return current, fmt.Errorf("%w: missing questions list", ErrConfigParse)
		}
		if err := yaml.Unmarshal(data, &imported); err != nil {
			return current, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	case FormatJSON, "":
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return current, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		q := bytes.TrimSpace(probe["questions"])
		if len(q) == 0 || q[0] != '[' {
			return current, fmt.Errorf("%w: missing questions list", ErrConfigParse)
		}
		if err := json.Unmarshal(data, &imported); err != nil {
			return current, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	default:
		return current, fmt.Errorf("format '%s' not supported", f)
	}
	imported.Version = Version
	imported.Normalize()
	return imported, nil
}

func (s *SelectionProbabilities) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Tag == "!!null" {
			return nil
		}
		var n float64
		if err := value.Decode(&n); err != nil {
			return err
		}
		s.Random = n == -1
		return nil
	}
	return value.Decode(&s.Values)
}
