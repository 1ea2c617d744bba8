package catalog

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Gun is a gun prefab: the Gun component plus its sprite and animator
// siblings, with projectile and volley references turned into keys.
type Gun struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	Quality      Quality        `json:"quality"`
	Class        GunClass       `json:"class"`
	ReloadTime   float64        `json:"reloadTime"`
	MaxAmmo      int            `json:"maxAmmo"`
	InfiniteAmmo bool           `json:"infiniteAmmo"`
	SwitchGroup  string         `json:"switchGroup,omitempty"`
	Module       *Module        `json:"module,omitempty"`
	Volley       string         `json:"volley,omitempty"`
	Sprite       *SpriteRef     `json:"sprite,omitempty"`
	Animations   *GunAnimations `json:"animations,omitempty"`
}

// GunAnimations names the clips a gun plays from its animation library.
type GunAnimations struct {
	Library       *unityasset.Ref `json:"library,omitempty"`
	DefaultClipID int             `json:"defaultClipId"`
	Idle          string          `json:"idle,omitempty"`
	Shoot         string          `json:"shoot,omitempty"`
	Reload        string          `json:"reload,omitempty"`
}

var gunDef = schema.Def{
	Name: "Gun",
	Fields: []schema.Field{
		{Name: "gunName", Kind: schema.String, Required: true},
		{Name: "PickupObjectId", Kind: schema.Int, Required: true},
		{Name: "quality", Kind: schema.Int},
		{Name: "gunClass", Kind: schema.Int},
		{Name: "reloadTime", Kind: schema.Float},
		{Name: "maxAmmo", Kind: schema.Int},
		{Name: "InfiniteAmmo", Kind: schema.Bool},
		{Name: "gunSwitchGroup", Kind: schema.String},
		{Name: "singleModule", Kind: schema.Object, Fields: moduleFields},
		{Name: "rawVolley", Kind: schema.Ref},
		{Name: "idleAnimation", Kind: schema.String},
		{Name: "shootAnimation", Kind: schema.String},
		{Name: "reloadAnimation", Kind: schema.String},
	},
}

var animatorDef = schema.Def{
	Name: "tk2dSpriteAnimator",
	Fields: []schema.Field{
		{Name: "library", Kind: schema.Ref},
		{Name: "defaultClipId", Kind: schema.Int},
	},
}

type rawGun struct {
	Name            string          `yaml:"gunName"`
	PickupObjectID  int             `yaml:"PickupObjectId"`
	Quality         int             `yaml:"quality"`
	GunClass        int             `yaml:"gunClass"`
	ReloadTime      float64         `yaml:"reloadTime"`
	MaxAmmo         int             `yaml:"maxAmmo"`
	InfiniteAmmo    unityasset.Bool `yaml:"InfiniteAmmo"`
	SwitchGroup     string          `yaml:"gunSwitchGroup"`
	SingleModule    *rawModule      `yaml:"singleModule"`
	RawVolley       unityasset.Ref  `yaml:"rawVolley"`
	IdleAnimation   string          `yaml:"idleAnimation"`
	ShootAnimation  string          `yaml:"shootAnimation"`
	ReloadAnimation string          `yaml:"reloadAnimation"`
}

type rawAnimator struct {
	Library       unityasset.Ref `yaml:"library"`
	DefaultClipID int            `yaml:"defaultClipId"`
}

type gunSource struct {
	svc *Service
}

func (s *gunSource) Name() string        { return config.RepoGuns }
func (s *gunSource) Patterns() []string  { return config.Default().Sources[config.RepoGuns] }
func (s *gunSource) Prefilter() []string { return []string{"gunSwitchGroup"} }

func (s *gunSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[int, Gun], error) {
	res := s.svc.res()
	blocks, err := res.ParseContent(path, content)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptGun)
	if !ok {
		return nil, nil
	}

	// The id is needed to report a rejected gun, so read it before validating.
	id := -1
	if v, ok := unityasset.ScalarValue(b.Fields, "PickupObjectId"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			id = n
		}
	}

	var raw rawGun
	if err := decodeBlock(b, gunDef, &raw); err != nil {
		return single(repository.Reject[int, Gun](id, err))
	}

	g := Gun{
		ID:           raw.PickupObjectID,
		Name:         raw.Name,
		Path:         res.Rel(path),
		Quality:      Quality(raw.Quality),
		Class:        GunClass(raw.GunClass),
		ReloadTime:   raw.ReloadTime,
		MaxAmmo:      raw.MaxAmmo,
		InfiniteAmmo: bool(raw.InfiniteAmmo),
		SwitchGroup:  raw.SwitchGroup,
	}
	owner := fmt.Sprintf("gun %d (%s)", g.ID, g.Name)

	if raw.SingleModule != nil {
		m := s.svc.module(*raw.SingleModule, owner)
		g.Module = &m
	}

	if key := res.Key(raw.RawVolley); key != "" {
		if _, ok := s.svc.Volleys.Get(key); ok {
			g.Volley = key
		} else {
			log.Printf("Warning: %s references unknown volley %s", owner, key)
		}
	}

	if g.Sprite, err = spriteOf(res, blocks); err != nil {
		return single(repository.Reject[int, Gun](g.ID, err))
	}

	if ab, ok := findScript(res, blocks, scriptSpriteAnimator); ok {
		var anim rawAnimator
		if err := decodeBlock(ab, animatorDef, &anim); err != nil {
			return single(repository.Reject[int, Gun](g.ID, err))
		}
		g.Animations = &GunAnimations{
			Library:       presentRef(anim.Library),
			DefaultClipID: anim.DefaultClipID,
			Idle:          raw.IdleAnimation,
			Shoot:         raw.ShootAnimation,
			Reload:        raw.ReloadAnimation,
		}
	}

	return single(repository.Accept(g.ID, g))
}
