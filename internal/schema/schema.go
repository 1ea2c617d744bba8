// Package schema validates parsed asset trees against declarative field
// descriptions before they are decoded into records.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the expected shape of a field value.
type Kind int

const (
	Any Kind = iota
	String
	Int
	Float
	Bool
	Ref
	List
	Object
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "number"
	case Bool:
		return "boolean"
	case Ref:
		return "reference"
	case List:
		return "list"
	case Object:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field describes one key of an object.
type Field struct {
	Name     string
	Kind     Kind
	Required bool // Missing keys fail; Required refs must also resolve

	Elem   *Field  // Element description for List
	Fields []Field // Member description for Object
	OneOf  []int   // Allowed values for Int, empty means unrestricted
}

// Def describes the top-level fields of a block.
type Def struct {
	Name   string
	Fields []Field
}

// Validate checks n against the definition. Unknown keys are ignored.
// Returns nil or ValidationErrors.
func (d Def) Validate(n *yaml.Node) error {
	var errs ValidationErrors
	if n == nil || n.Kind != yaml.MappingNode {
		errs.Add(d.Name, "", "expected a mapping", "")
		return errs
	}
	validateFields(d.Name, n, d.Fields, &errs)
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateFields(prefix string, n *yaml.Node, fields []Field, errs *ValidationErrors) {
	for _, f := range fields {
		path := join(prefix, f.Name)
		v := member(n, f.Name)
		if v == nil {
			if f.Required {
				errs.Add(path, "", "required field is missing", "")
			}
			continue
		}
		validateValue(path, v, f, errs)
	}
}

func validateValue(path string, v *yaml.Node, f Field, errs *ValidationErrors) {
	if v.Kind == yaml.AliasNode && v.Alias != nil {
		v = v.Alias
	}

	switch f.Kind {
	case Any:
	case String:
		if v.Kind != yaml.ScalarNode {
			errs.Add(path, shape(v), "expected a string", "")
		}
	case Int:
		if !isScalar(v) {
			errs.Add(path, shape(v), "expected an integer", "")
			return
		}
		i, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
		if err != nil {
			errs.Add(path, v.Value, "expected an integer", "")
			return
		}
		if len(f.OneOf) > 0 && !contains(f.OneOf, int(i)) {
			errs.Add(path, v.Value, "value out of range", fmt.Sprintf("Allowed: %v", f.OneOf))
		}
	case Float:
		if !isScalar(v) {
			errs.Add(path, shape(v), "expected a number", "")
			return
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64); err != nil {
			errs.Add(path, v.Value, "expected a number", "")
		}
	case Bool:
		if !isScalar(v) {
			errs.Add(path, shape(v), "expected a boolean", "")
			return
		}
		switch strings.ToLower(strings.TrimSpace(v.Value)) {
		case "0", "1", "true", "false":
		default:
			errs.Add(path, v.Value, "expected a boolean", "Use 0/1 or true/false")
		}
	case Ref:
		validateRef(path, v, f.Required, errs)
	case List:
		if v.Kind != yaml.SequenceNode {
			// An empty list is sometimes written as a bare null.
			if isScalar(v) && isNull(v) {
				return
			}
			errs.Add(path, shape(v), "expected a list", "")
			return
		}
		if f.Elem == nil {
			return
		}
		for i, c := range v.Content {
			validateValue(fmt.Sprintf("%s[%d]", path, i), c, *f.Elem, errs)
		}
	case Object:
		if v.Kind != yaml.MappingNode {
			errs.Add(path, shape(v), "expected a mapping", "")
			return
		}
		validateFields(path, v, f.Fields, errs)
	}
}

func validateRef(path string, v *yaml.Node, required bool, errs *ValidationErrors) {
	if v.Kind != yaml.MappingNode {
		errs.Add(path, shape(v), "expected a reference", "References look like {fileID: N, guid: G, type: T}")
		return
	}
	fileID := member(v, "fileID")
	if fileID == nil || !isScalar(fileID) {
		errs.Add(path, "", "reference has no fileID", "")
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fileID.Value), 10, 64)
	if err != nil {
		errs.Add(join(path, "fileID"), fileID.Value, "expected an integer", "")
		return
	}
	if !required {
		return
	}
	if id == 0 {
		errs.Add(path, "0", "required reference is empty", "")
		return
	}
	if member(v, "guid") != nil && member(v, "resolvedPath") == nil {
		guid := member(v, "guid").Value
		errs.Add(path, guid, "required reference does not resolve", "Rebuild the GUID index if the asset was added recently")
	}
}

func member(n *yaml.Node, key string) *yaml.Node {
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

func isScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode
}

func isNull(n *yaml.Node) bool {
	return n.Tag == "!!null" || n.Value == "" || n.Value == "~"
}

func shape(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "<mapping>"
	case yaml.SequenceNode:
		return "<list>"
	}
	return n.Value
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
