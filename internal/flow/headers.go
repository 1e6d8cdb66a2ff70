package flow

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header is a single name/value pair. Names compare case-insensitively.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Headers is an ordered header list. Duplicate names are allowed.
type Headers []Header

// Get returns the value of the first header named name.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// ContentType returns the media type of the first Content-Type header,
// without parameters.
func (h Headers) ContentType() (string, bool) {
	v, ok := h.Get("Content-Type")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v), true
}

// Lines renders every header as "name value", the form header filters
// match against.
func (h Headers) Lines() []string {
	out := make([]string, len(h))
	for i, hdr := range h {
		out[i] = hdr.Name + " " + hdr.Value
	}
	return out
}

// MarshalJSON encodes a header as a [name, value] pair.
func (h Header) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{h.Name, h.Value})
}

// UnmarshalJSON accepts [name, value] or {"name": ..., "value": ...}.
func (h *Header) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("header pair must have 2 elements, got %d", len(pair))
		}
		h.Name, h.Value = pair[0], pair[1]
		return nil
	}
	type plain Header
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	*h = Header(p)
	return nil
}

// MarshalYAML encodes a header as a [name, value] flow sequence.
func (h Header) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: h.Name},
			{Kind: yaml.ScalarNode, Value: h.Value},
		},
	}, nil
}

// UnmarshalYAML accepts [name, value] or {name: ..., value: ...}.
func (h *Header) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: header pair must have 2 elements, got %d", node.Line, len(node.Content))
		}
		h.Name, h.Value = node.Content[0].Value, node.Content[1].Value
		return nil
	case yaml.MappingNode:
		type plain Header
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*h = Header(p)
		return nil
	default:
		return fmt.Errorf("line %d: header must be a [name, value] pair or a mapping", node.Line)
	}
}

// MarshalJSON encodes an address as [host, port].
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{a.Host, a.Port})
}

// UnmarshalJSON accepts [host, port] or {"host": ..., "port": ...}.
func (a *Address) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err == nil {
		if len(parts) != 2 {
			return fmt.Errorf("address must have 2 elements, got %d", len(parts))
		}
		if err := json.Unmarshal(parts[0], &a.Host); err != nil {
			return fmt.Errorf("address host: %w", err)
		}
		if err := json.Unmarshal(parts[1], &a.Port); err != nil {
			return fmt.Errorf("address port: %w", err)
		}
		return nil
	}
	type plain Address
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	*a = Address(p)
	return nil
}

// UnmarshalYAML accepts [host, port] or {host: ..., port: ...}.
func (a *Address) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: address must have 2 elements, got %d", node.Line, len(node.Content))
		}
		if err := node.Content[0].Decode(&a.Host); err != nil {
			return err
		}
		return node.Content[1].Decode(&a.Port)
	case yaml.MappingNode:
		type plain Address
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*a = Address(p)
		return nil
	default:
		return fmt.Errorf("line %d: address must be [host, port] or a mapping", node.Line)
	}
}
