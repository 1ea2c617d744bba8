package catalog

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/resolver"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// SpriteCollection is a tk2d sprite collection with its materials followed
// to the textures they sample.
type SpriteCollection struct {
	Key       string             `json:"key"`
	Path      string             `json:"path"`
	Name      string             `json:"name"`
	Sprites   []SpriteDefinition `json:"sprites"`
	Materials []Material         `json:"materials"`
}

// SpriteDefinition is one sprite; MaterialID indexes Materials.
type SpriteDefinition struct {
	Name       string `json:"name"`
	MaterialID int    `json:"materialId"`
	Flipped    int    `json:"flipped,omitempty"`
	UVs        []Vec2 `json:"uvs,omitempty"`
}

// Vec2 is a 2D vector.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Material is one material slot of a collection. Empty slots keep their
// index with an empty Path.
type Material struct {
	Path    string `json:"path,omitempty"`
	Texture string `json:"texture,omitempty"`
}

var spriteCollectionDef = schema.Def{
	Name: "tk2dSpriteCollectionData",
	Fields: []schema.Field{
		{Name: "spriteCollectionName", Kind: schema.String},
		{Name: "spriteDefinitions", Kind: schema.List, Required: true, Elem: &schema.Field{Kind: schema.Object, Fields: []schema.Field{
			{Name: "name", Kind: schema.String},
			{Name: "materialId", Kind: schema.Int},
			{Name: "flipped", Kind: schema.Int},
			{Name: "uvs", Kind: schema.List, Elem: &schema.Field{Kind: schema.Object, Fields: []schema.Field{
				{Name: "x", Kind: schema.Float},
				{Name: "y", Kind: schema.Float},
			}}},
		}}},
		{Name: "materials", Kind: schema.List, Elem: &schema.Field{Kind: schema.Ref}},
	},
}

type rawSpriteCollection struct {
	Name    string `yaml:"spriteCollectionName"`
	Sprites []struct {
		Name       string `yaml:"name"`
		MaterialID int    `yaml:"materialId"`
		Flipped    int    `yaml:"flipped"`
		UVs        []Vec2 `yaml:"uvs"`
	} `yaml:"spriteDefinitions"`
	Materials []unityasset.Ref `yaml:"materials"`
}

type spriteCollectionSource struct {
	svc *Service
}

func (s *spriteCollectionSource) Name() string { return config.RepoSpriteCollections }
func (s *spriteCollectionSource) Patterns() []string {
	return config.Default().Sources[config.RepoSpriteCollections]
}
func (s *spriteCollectionSource) Prefilter() []string { return []string{"spriteDefinitions"} }

func (s *spriteCollectionSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[string, SpriteCollection], error) {
	res := s.svc.res()
	blocks, err := res.ParseContent(path, content)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptSpriteCollection)
	if !ok {
		return nil, nil
	}

	key := res.Rel(path)
	var raw rawSpriteCollection
	if err := decodeBlock(b, spriteCollectionDef, &raw); err != nil {
		return single(repository.Reject[string, SpriteCollection](key, err))
	}

	c := SpriteCollection{
		Key:       key,
		Path:      key,
		Name:      raw.Name,
		Sprites:   make([]SpriteDefinition, 0, len(raw.Sprites)),
		Materials: make([]Material, 0, len(raw.Materials)),
	}
	for _, sd := range raw.Sprites {
		c.Sprites = append(c.Sprites, SpriteDefinition{
			Name:       sd.Name,
			MaterialID: sd.MaterialID,
			Flipped:    sd.Flipped,
			UVs:        sd.UVs,
		})
	}

	for _, ref := range raw.Materials {
		m := Material{Path: res.AssetPath(ref)}
		if m.Path != "" {
			tex, err := followTexture(res, key, ref)
			if err != nil {
				return nil, err
			}
			m.Texture = tex
		}
		c.Materials = append(c.Materials, m)
	}

	return single(repository.Accept(key, c))
}

// followTexture follows a material reference and returns the asset path of
// its _MainTex texture, or "" when the material has none. A material file
// that is missing on disk is logged and treated as having no texture.
func followTexture(res *resolver.Resolver, from string, ref unityasset.Ref) (string, error) {
	blocks, ok, err := res.Follow(from, ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: %s: material %s is missing", from, res.AssetPath(ref))
			return "", nil
		}
		return "", err
	}
	if !ok {
		return "", nil
	}

	for _, b := range blocks {
		if b.TypeName != typeMaterial {
			continue
		}
		texEnv := mainTexEnv(unityasset.Lookup(b.Fields, "m_SavedProperties", "m_TexEnvs"))
		tex, err := unityasset.DecodeRef(unityasset.Lookup(texEnv, "m_Texture"))
		if err != nil {
			return "", nil
		}
		return res.AssetPath(tex), nil
	}
	return "", nil
}

// mainTexEnv finds the _MainTex entry of a material's texture environment.
// Exporters write it as a mapping keyed by property name, as a sequence of
// single-key mappings, or as a sequence of {first: {name}, second} pairs.
func mainTexEnv(envs *yaml.Node) *yaml.Node {
	const mainTex = "_MainTex"
	if envs == nil {
		return nil
	}
	switch envs.Kind {
	case yaml.MappingNode:
		return unityasset.Lookup(envs, mainTex)
	case yaml.SequenceNode:
		for _, item := range envs.Content {
			if n := unityasset.Lookup(item, mainTex); n != nil {
				return n
			}
			if name, ok := unityasset.ScalarValue(item, "first", "name"); ok && name == mainTex {
				return unityasset.Lookup(item, "second")
			}
		}
	}
	return nil
}
