package catalog

import (
	"context"
	"log"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Module is one projectile module of a gun or volley.
type Module struct {
	ShootStyle          ShootStyle         `json:"shootStyle"`
	Projectiles         []string           `json:"projectiles"`
	ChargeProjectiles   []ChargeProjectile `json:"chargeProjectiles,omitempty"`
	CooldownTime        float64            `json:"cooldownTime"`
	AngleVariance       float64            `json:"angleVariance"`
	NumberOfShotsInClip int                `json:"numberOfShotsInClip"`
	AmmoCost            int                `json:"ammoCost"`
	BurstShotCount      int                `json:"burstShotCount,omitempty"`
}

// ChargeProjectile is the projectile a charged module fires after ChargeTime.
type ChargeProjectile struct {
	ChargeTime float64 `json:"chargeTime"`
	Projectile string  `json:"projectile"`
}

// Volley is a ProjectileVolleyData asset: several modules fired together,
// or as tiers when ModulesAreTiers is set.
type Volley struct {
	Key             string   `json:"key"`
	Path            string   `json:"path"`
	ModulesAreTiers bool     `json:"modulesAreTiers"`
	ShotgunSpread   bool     `json:"shotgunSpread"`
	Modules         []Module `json:"modules"`
}

var moduleFields = []schema.Field{
	{Name: "shootStyle", Kind: schema.Int},
	{Name: "projectiles", Kind: schema.List, Elem: &schema.Field{Kind: schema.Ref}},
	{Name: "chargeProjectiles", Kind: schema.List, Elem: &schema.Field{Kind: schema.Object, Fields: []schema.Field{
		{Name: "ChargeTime", Kind: schema.Float},
		{Name: "Projectile", Kind: schema.Ref},
	}}},
	{Name: "cooldownTime", Kind: schema.Float},
	{Name: "angleVariance", Kind: schema.Float},
	{Name: "numberOfShotsInClip", Kind: schema.Int},
	{Name: "ammoCost", Kind: schema.Int},
	{Name: "burstShotCount", Kind: schema.Int},
}

var volleyDef = schema.Def{
	Name: "ProjectileVolleyData",
	Fields: []schema.Field{
		{Name: "projectiles", Kind: schema.List, Required: true, Elem: &schema.Field{Kind: schema.Object, Fields: moduleFields}},
		{Name: "ModulesAreTiers", Kind: schema.Bool},
		{Name: "UsesShotgunStyleVelocityRandomizer", Kind: schema.Bool},
	},
}

type rawModule struct {
	ShootStyle        int              `yaml:"shootStyle"`
	Projectiles       []unityasset.Ref `yaml:"projectiles"`
	ChargeProjectiles []struct {
		ChargeTime float64        `yaml:"ChargeTime"`
		Projectile unityasset.Ref `yaml:"Projectile"`
	} `yaml:"chargeProjectiles"`
	CooldownTime        float64 `yaml:"cooldownTime"`
	AngleVariance       float64 `yaml:"angleVariance"`
	NumberOfShotsInClip int     `yaml:"numberOfShotsInClip"`
	AmmoCost            int     `yaml:"ammoCost"`
	BurstShotCount      int     `yaml:"burstShotCount"`
}

type rawVolley struct {
	Projectiles     []rawModule     `yaml:"projectiles"`
	ModulesAreTiers unityasset.Bool `yaml:"ModulesAreTiers"`
	ShotgunSpread   unityasset.Bool `yaml:"UsesShotgunStyleVelocityRandomizer"`
}

// module converts a raw module, keeping only projectile keys the projectile
// repository knows. owner names the record in warnings.
func (s *Service) module(raw rawModule, owner string) Module {
	m := Module{
		ShootStyle:          ShootStyle(raw.ShootStyle),
		Projectiles:         s.knownProjectiles(refKeys(s.res(), raw.Projectiles), owner),
		CooldownTime:        raw.CooldownTime,
		AngleVariance:       raw.AngleVariance,
		NumberOfShotsInClip: raw.NumberOfShotsInClip,
		AmmoCost:            raw.AmmoCost,
		BurstShotCount:      raw.BurstShotCount,
	}
	for _, cp := range raw.ChargeProjectiles {
		keys := s.knownProjectiles(refKeys(s.res(), []unityasset.Ref{cp.Projectile}), owner)
		if len(keys) == 0 {
			continue
		}
		m.ChargeProjectiles = append(m.ChargeProjectiles, ChargeProjectile{ChargeTime: cp.ChargeTime, Projectile: keys[0]})
	}
	return m
}

func (s *Service) knownProjectiles(keys []string, owner string) []string {
	known := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := s.Projectiles.Get(k); !ok {
			log.Printf("Warning: %s references unknown projectile %s", owner, k)
			continue
		}
		known = append(known, k)
	}
	return known
}

type volleySource struct {
	svc *Service
}

func (s *volleySource) Name() string        { return config.RepoVolleys }
func (s *volleySource) Patterns() []string  { return config.Default().Sources[config.RepoVolleys] }
func (s *volleySource) Prefilter() []string { return []string{"ModulesAreTiers"} }

func (s *volleySource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[string, Volley], error) {
	res := s.svc.res()
	blocks, err := res.ParseContent(path, content)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptVolley)
	if !ok {
		return nil, nil
	}

	key := unityasset.KeyFromPath(path)
	var raw rawVolley
	if err := decodeBlock(b, volleyDef, &raw); err != nil {
		return single(repository.Reject[string, Volley](key, err))
	}

	v := Volley{
		Key:             key,
		Path:            res.Rel(path),
		ModulesAreTiers: bool(raw.ModulesAreTiers),
		ShotgunSpread:   bool(raw.ShotgunSpread),
		Modules:         make([]Module, 0, len(raw.Projectiles)),
	}
	for _, m := range raw.Projectiles {
		v.Modules = append(v.Modules, s.svc.module(m, "volley "+key))
	}
	return single(repository.Accept(key, v))
}
