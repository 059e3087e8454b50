package document

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Value is an untyped subtree passed through from the source document.
// It keeps mapping key order when marshalled to JSON or YAML.
type Value struct {
	node *yaml.Node
}

// NewValue wraps n. Null and missing nodes produce the zero Value.
func NewValue(n *yaml.Node) Value {
	if IsNull(n) {
		return Value{}
	}
	return Value{node: n}
}

// IsZero reports whether the value is absent. Used by omitzero/omitempty.
func (v Value) IsZero() bool { return v.node == nil }

// Node returns the underlying node, nil when absent.
func (v Value) Node() *yaml.Node { return v.node }

// Decode decodes the subtree into out.
func (v Value) Decode(out any) error {
	if v.node == nil {
		return nil
	}
	return v.node.Decode(out)
}

// Interface returns the subtree as plain Go values (maps, slices, scalars).
func (v Value) Interface() any {
	if v.node == nil {
		return nil
	}
	var out any
	if err := v.node.Decode(&out); err != nil {
		return nil
	}
	return out
}

func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	*v = NewValue(n)
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	if v.node == nil {
		return nil, nil
	}
	return v.node, nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v.node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSON encodes n as JSON, preserving mapping order.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	n = Resolve(n)
	if n == nil || n.Kind == 0 {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i, pair := range Pairs(n) {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(pair.Key.Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		var scalar any
		if err := n.Decode(&scalar); err != nil {
			scalar = n.Value
		}
		out, err := json.Marshal(scalar)
		if err != nil {
			// .inf, .nan and friends have no JSON form
			out, err = json.Marshal(n.Value)
			if err != nil {
				return err
			}
		}
		buf.Write(out)
	}
	return nil
}
