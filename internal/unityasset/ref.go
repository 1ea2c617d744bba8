package unityasset

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// MetaExt is the extension of the sidecar metadata files that carry GUIDs.
const MetaExt = ".meta"

// Ref is a {fileID, guid} pointer to a block, possibly in another file.
// A zero FileID means "no reference" whatever the other fields hold.
type Ref struct {
	FileID       int64  `yaml:"fileID" json:"fileId"`
	GUID         string `yaml:"guid,omitempty" json:"guid,omitempty"`
	Type         int    `yaml:"type,omitempty" json:"type,omitempty"`
	ResolvedPath string `yaml:"resolvedPath,omitempty" json:"resolvedPath,omitempty"`
}

// IsZero reports whether the reference is absent.
func (r Ref) IsZero() bool {
	return r.FileID == 0
}

// Resolved reports whether the reference points at a known file.
func (r Ref) Resolved() bool {
	return !r.IsZero() && r.ResolvedPath != ""
}

// AssetPath is the resolved path with the default sidecar suffix removed,
// i.e. the path of the asset itself relative to the asset root. Trees
// indexed with another sidecar extension use AssetPathExt.
func (r Ref) AssetPath() string {
	return r.AssetPathExt(MetaExt)
}

// AssetPathExt is AssetPath for sidecars named with ext.
func (r Ref) AssetPathExt(ext string) string {
	if !r.Resolved() {
		return ""
	}
	if ext == "" {
		ext = MetaExt
	}
	return strings.TrimSuffix(r.ResolvedPath, ext)
}

// BaseName is the asset file name without directory or extension.
// Records keyed by file name (projectiles, volleys, players) use it.
func (r Ref) BaseName() string {
	p := r.AssetPath()
	if p == "" {
		return ""
	}
	return KeyFromPath(p)
}

// KeyFromPath derives a record key from an asset path: the base name
// without its extension.
func KeyFromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// CompactRefs drops absent references.
func CompactRefs(refs []Ref) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		if !r.IsZero() {
			out = append(out, r)
		}
	}
	return out
}

// DecodeRef reads a reference mapping. A missing node is an absent ref.
func DecodeRef(n *yaml.Node) (Ref, error) {
	var r Ref
	if n == nil || n.Kind != yaml.MappingNode {
		return r, nil
	}
	if err := n.Decode(&r); err != nil {
		return Ref{}, fmt.Errorf("decode reference: %w", err)
	}
	return r, nil
}

// Bool is the exporter's boolean: written as 0/1, occasionally true/false.
type Bool bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bool) UnmarshalYAML(n *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(n.Value)) {
	case "1", "true", "yes", "on":
		*b = true
	case "0", "false", "no", "off", "", "~", "null":
		*b = false
	default:
		return fmt.Errorf("line %d: cannot read %q as a boolean", n.Line, n.Value)
	}
	return nil
}
