package catalog

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/etg-extract/internal/legacyid"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/resolver"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Script file names that identify component blocks.
const (
	scriptGun               = "Gun.cs"
	scriptProjectile        = "Projectile.cs"
	scriptPierce            = "PierceProjModifier.cs"
	scriptBounce            = "BounceProjModifier.cs"
	scriptHoming            = "HomingModifier.cs"
	scriptVolley            = "ProjectileVolleyData.cs"
	scriptPlayer            = "PlayerController.cs"
	scriptHealth            = "HealthHaver.cs"
	scriptSprite            = "tk2dSprite.cs"
	scriptSpriteAnimator    = "tk2dSpriteAnimator.cs"
	scriptSpriteCollection  = "tk2dSpriteCollectionData.cs"
	scriptSpriteAnimation   = "tk2dSpriteAnimation.cs"
	scriptEncounterDatabase = "EncounterDatabase.cs"
)

const (
	typeMonoBehaviour = "MonoBehaviour"
	typeMaterial      = "Material"
)

// scriptOf returns the file name of the script a MonoBehaviour block runs,
// or "" when the block is not a resolvable script component.
func scriptOf(res *resolver.Resolver, b unityasset.Block) string {
	if b.TypeName != typeMonoBehaviour {
		return ""
	}
	ref, err := unityasset.DecodeRef(unityasset.Lookup(b.Fields, "m_Script"))
	if err != nil || !ref.Resolved() {
		return ""
	}
	return path.Base(res.AssetPath(ref))
}

// findScript returns the first block running script.
func findScript(res *resolver.Resolver, blocks []unityasset.Block, script string) (unityasset.Block, bool) {
	for _, b := range blocks {
		if scriptOf(res, b) == script {
			return b, true
		}
	}
	return unityasset.Block{}, false
}

// decodeBlock validates a component against def and decodes it into out.
// Failures wrap repository.ErrValidation.
func decodeBlock(b unityasset.Block, def schema.Def, out any) error {
	return decodeNode(b.Fields, def, out)
}

func decodeNode(n *yaml.Node, def schema.Def, out any) error {
	if err := def.Validate(n); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrValidation, err)
	}
	if err := n.Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", repository.ErrValidation, def.Name, err)
	}
	return nil
}

// single wraps one entry as an Extract result.
func single[K comparable, V any](e repository.Entry[K, V]) ([]repository.Entry[K, V], error) {
	return []repository.Entry[K, V]{e}, nil
}

// idList is an integer array as the exporter writes it: either a regular
// sequence or a packed little-endian hex string.
type idList []int

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *idList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var ids []int
		if err := n.Decode(&ids); err != nil {
			return err
		}
		*l = ids
	case yaml.ScalarNode:
		v := strings.TrimSpace(n.Value)
		if v == "" || v == "~" || n.Tag == "!!null" {
			*l = idList{}
			return nil
		}
		ids, err := legacyid.DecodeInts(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*l = ids
	default:
		return errors.New("expected an id list")
	}
	return nil
}

// presentRef returns a pointer to ref, or nil when the reference is absent.
func presentRef(ref unityasset.Ref) *unityasset.Ref {
	if ref.IsZero() {
		return nil
	}
	return &ref
}

// refKeys converts references to record keys (asset base names), dropping
// absent and unresolved ones.
func refKeys(res *resolver.Resolver, refs []unityasset.Ref) []string {
	keys := make([]string, 0, len(refs))
	for _, r := range unityasset.CompactRefs(refs) {
		if k := res.Key(r); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// SpriteRef points at one sprite of a sprite collection.
type SpriteRef struct {
	Collection unityasset.Ref `json:"collection"`
	SpriteID   int            `json:"spriteId"`
}

var spriteDef = schema.Def{
	Name: "tk2dSprite",
	Fields: []schema.Field{
		{Name: "collection", Kind: schema.Ref},
		{Name: "_spriteId", Kind: schema.Int},
	},
}

type rawSprite struct {
	Collection unityasset.Ref `yaml:"collection"`
	SpriteID   int            `yaml:"_spriteId"`
}

// spriteOf reads the sibling tk2dSprite component, if any.
func spriteOf(res *resolver.Resolver, blocks []unityasset.Block) (*SpriteRef, error) {
	b, ok := findScript(res, blocks, scriptSprite)
	if !ok {
		return nil, nil
	}
	var raw rawSprite
	if err := decodeBlock(b, spriteDef, &raw); err != nil {
		return nil, err
	}
	if raw.Collection.IsZero() {
		return nil, nil
	}
	return &SpriteRef{Collection: raw.Collection, SpriteID: raw.SpriteID}, nil
}
