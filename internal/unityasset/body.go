package unityasset

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseOptions tunes how block bodies are parsed.
type ParseOptions struct {
	// NoExponentFloats keeps plain scalars such as 0e000000 or 12e4 as strings
	// instead of letting them resolve to floats. Hex tokens (GUIDs, packed id
	// arrays) hit this constantly.
	NoExponentFloats bool
}

// aliasValue matches a mapping value that starts with '*'. The exporter
// writes raw tokens like "*1234" that YAML would read as an alias.
var aliasValue = regexp.MustCompile(`:([ \t]+)\*([^\s,\]}"']+)`)

// ParseBody parses one dedented block body. The returned node is the root
// of the body (normally a mapping); an empty body yields an empty mapping.
func ParseBody(body string, opts ParseOptions) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(neutralizeAliases(body)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDialectParse, err)
	}

	root := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return emptyMapping(), nil
		}
		root = doc.Content[0]
	}
	if root.Kind == 0 {
		return emptyMapping(), nil
	}

	dedupeKeys(root)
	if opts.NoExponentFloats {
		retagExponentFloats(root)
	}
	return root, nil
}

// dedupeKeys drops all but the last occurrence of each repeated mapping
// key, at every depth. yaml.v3 accepts duplicates into a Node but refuses
// them when the node is decoded into a struct.
func dedupeKeys(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.MappingNode && len(n.Content) > 2 {
		last := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode {
				last[k.Value] = i
			}
		}
		if len(last) < len(n.Content)/2 {
			kept := n.Content[:0]
			for i := 0; i+1 < len(n.Content); i += 2 {
				k := n.Content[i]
				if k.Kind == yaml.ScalarNode && last[k.Value] != i {
					continue
				}
				kept = append(kept, k, n.Content[i+1])
			}
			n.Content = kept
		}
	}
	for _, c := range n.Content {
		dedupeKeys(c)
	}
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// neutralizeAliases rewrites `key: *token` into `key: "*token"`, line by line.
// Tokens that sit inside a quoted string on the same line are left alone.
func neutralizeAliases(body string) string {
	if !strings.Contains(body, "*") {
		return body
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.Contains(line, "*") {
			lines[i] = quoteAliases(line)
		}
	}
	return strings.Join(lines, "\n")
}

func quoteAliases(line string) string {
	matches := aliasValue.FindAllStringSubmatchIndex(line, -1)
	if matches == nil {
		return line
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if insideQuotes(line[:m[0]]) {
			continue
		}
		b.WriteString(line[last:m[0]])
		b.WriteString(":")
		b.WriteString(line[m[2]:m[3]])
		b.WriteString(`"*`)
		b.WriteString(line[m[4]:m[5]])
		b.WriteString(`"`)
		last = m[1]
	}
	b.WriteString(line[last:])
	return b.String()
}

// insideQuotes reports whether the end of prefix falls inside an open
// single- or double-quoted scalar.
func insideQuotes(prefix string) bool {
	var single, double bool
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '\\':
			if double {
				i++
			}
		case '"':
			if !single {
				double = !double
			}
		case '\'':
			if !double {
				single = !single
			}
		}
	}
	return single || double
}

func retagExponentFloats(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode {
		if n.Style == 0 && n.ShortTag() == "!!float" && strings.ContainsAny(n.Value, "eE") {
			n.Tag = "!!str"
		}
		return
	}
	for _, c := range n.Content {
		retagExponentFloats(c)
	}
}
