package catalog

import (
	"context"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// SpriteAnimation is a tk2d animation library.
type SpriteAnimation struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Name  string `json:"name"`
	Clips []Clip `json:"clips"`
}

// Clip is one named animation.
type Clip struct {
	Name      string   `json:"name"`
	FPS       float64  `json:"fps"`
	LoopStart int      `json:"loopStart"`
	WrapMode  WrapMode `json:"wrapMode"`
	Frames    []Frame  `json:"frames"`
}

// Frame is one sprite shown by a clip.
// A frame whose collection reference is absent has a nil Collection.
type Frame struct {
	Collection *unityasset.Ref `json:"collection,omitempty"`
	SpriteID   int             `json:"spriteId"`
}

var spriteAnimationDef = schema.Def{
	Name: "tk2dSpriteAnimation",
	Fields: []schema.Field{
		{Name: "clips", Kind: schema.List, Required: true, Elem: &schema.Field{Kind: schema.Object, Fields: []schema.Field{
			{Name: "name", Kind: schema.String},
			{Name: "fps", Kind: schema.Float},
			{Name: "loopStart", Kind: schema.Int},
			{Name: "wrapMode", Kind: schema.Int},
			{Name: "frames", Kind: schema.List, Elem: &schema.Field{Kind: schema.Object, Fields: []schema.Field{
				{Name: "spriteCollection", Kind: schema.Ref},
				{Name: "spriteId", Kind: schema.Int},
			}}},
		}}},
	},
}

type rawSpriteAnimation struct {
	Clips []struct {
		Name      string  `yaml:"name"`
		FPS       float64 `yaml:"fps"`
		LoopStart int     `yaml:"loopStart"`
		WrapMode  int     `yaml:"wrapMode"`
		Frames    []struct {
			Collection unityasset.Ref `yaml:"spriteCollection"`
			SpriteID   int            `yaml:"spriteId"`
		} `yaml:"frames"`
	} `yaml:"clips"`
}

type spriteAnimationSource struct {
	svc *Service
}

func (s *spriteAnimationSource) Name() string { return config.RepoSpriteAnimations }
func (s *spriteAnimationSource) Patterns() []string {
	return config.Default().Sources[config.RepoSpriteAnimations]
}
func (s *spriteAnimationSource) Prefilter() []string { return []string{"clips"} }

func (s *spriteAnimationSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[string, SpriteAnimation], error) {
	res := s.svc.res()
	blocks, err := res.ParseContent(path, content)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptSpriteAnimation)
	if !ok {
		return nil, nil
	}

	key := res.Rel(path)
	var raw rawSpriteAnimation
	if err := decodeBlock(b, spriteAnimationDef, &raw); err != nil {
		return single(repository.Reject[string, SpriteAnimation](key, err))
	}

	a := SpriteAnimation{
		Key:   key,
		Path:  key,
		Name:  unityasset.KeyFromPath(key),
		Clips: make([]Clip, 0, len(raw.Clips)),
	}
	for _, rc := range raw.Clips {
		c := Clip{
			Name:      rc.Name,
			FPS:       rc.FPS,
			LoopStart: rc.LoopStart,
			WrapMode:  WrapMode(rc.WrapMode),
			Frames:    make([]Frame, 0, len(rc.Frames)),
		}
		for _, f := range rc.Frames {
			c.Frames = append(c.Frames, Frame{Collection: presentRef(f.Collection), SpriteID: f.SpriteID})
		}
		a.Clips = append(a.Clips, c)
	}

	return single(repository.Accept(key, a))
}

// Clip returns the named clip of an animation library.
func (a SpriteAnimation) Clip(name string) (Clip, bool) {
	for _, c := range a.Clips {
		if c.Name == name {
			return c, true
		}
	}
	return Clip{}, false
}
