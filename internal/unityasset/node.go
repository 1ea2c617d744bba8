package unityasset

import (
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"
)

// Lookup walks a chain of mapping keys and returns the value node, or nil
// when any step is missing or not a mapping.
func Lookup(n *yaml.Node, path ...string) *yaml.Node {
	cur := n
	for _, key := range path {
		cur = mappingValue(cur, key)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// SetMappingValue sets key to a plain string scalar, replacing an existing
// value or appending a new pair. Existing keys keep their position.
func SetMappingValue(n *yaml.Node, key, value string) {
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			n.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			return
		}
	}
	n.Content = append(n.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

// ScalarValue returns the raw text of the scalar at path.
func ScalarValue(n *yaml.Node, path ...string) (string, bool) {
	v := Lookup(n, path...)
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// ToValue converts a node tree into plain Go values: map[string]any for
// mappings (keys taken verbatim), []any for sequences, and typed scalars.
func ToValue(n *yaml.Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return ToValue(n.Content[0])
	case yaml.AliasNode:
		return ToValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = ToValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			s = append(s, ToValue(c))
		}
		return s
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return n.Value
		}
		if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			return n.Value
		}
		return v
	}
	return nil
}

// MarshalBlocks renders parsed blocks as indented JSON. Map keys are sorted,
// so the same input always produces the same bytes.
func MarshalBlocks(blocks []Block) ([]byte, error) {
	type jsonBlock struct {
		TypeID   int    `json:"typeId"`
		FileID   int64  `json:"fileId"`
		TypeName string `json:"typeName"`
		Fields   any    `json:"fields"`
	}
	out := make([]jsonBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, jsonBlock{
			TypeID:   b.TypeID,
			FileID:   b.FileID,
			TypeName: b.TypeName,
			Fields:   ToValue(b.Fields),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
