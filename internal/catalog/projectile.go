package catalog

import (
	"context"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/resolver"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Projectile is a projectile prefab: its Projectile component merged with
// the optional pierce, bounce and homing modifiers on the same prefab.
type Projectile struct {
	Key     string     `json:"key"`
	Path    string     `json:"path"`
	Damage  float64    `json:"damage"`
	Speed   float64    `json:"speed"`
	Range   float64    `json:"range"`
	Force   float64    `json:"force"`
	Effects []string   `json:"effects,omitempty"`
	Pierce  *Pierce    `json:"pierce,omitempty"`
	Bounce  *Bounce    `json:"bounce,omitempty"`
	Homing  *Homing    `json:"homing,omitempty"`
	Sprite  *SpriteRef `json:"sprite,omitempty"`
}

// Pierce is the PierceProjModifier component.
type Pierce struct {
	Penetration          int  `json:"penetration"`
	PenetratesBreakables bool `json:"penetratesBreakables"`
}

// Bounce is the BounceProjModifier component.
type Bounce struct {
	NumberOfBounces     int     `json:"numberOfBounces" yaml:"numberOfBounces"`
	ChanceToDieOnBounce float64 `json:"chanceToDieOnBounce" yaml:"chanceToDieOnBounce"`
	DamageMultiplier    float64 `json:"damageMultiplierOnBounce" yaml:"damageMultiplierOnBounce"`
}

// Homing is the HomingModifier component.
type Homing struct {
	Radius          float64 `json:"radius" yaml:"HomingRadius"`
	AngularVelocity float64 `json:"angularVelocity" yaml:"AngularVelocity"`
}

var projectileDef = schema.Def{
	Name: "Projectile",
	Fields: []schema.Field{
		{Name: "baseData", Kind: schema.Object, Required: true, Fields: []schema.Field{
			{Name: "damage", Kind: schema.Float, Required: true},
			{Name: "speed", Kind: schema.Float, Required: true},
			{Name: "range", Kind: schema.Float, Required: true},
			{Name: "force", Kind: schema.Float},
		}},
		{Name: "AppliesPoison", Kind: schema.Bool},
		{Name: "AppliesFire", Kind: schema.Bool},
		{Name: "AppliesFreeze", Kind: schema.Bool},
		{Name: "AppliesStun", Kind: schema.Bool},
		{Name: "AppliesCharm", Kind: schema.Bool},
		{Name: "AppliesSpeedModifier", Kind: schema.Bool},
	},
}

var pierceDef = schema.Def{
	Name: "PierceProjModifier",
	Fields: []schema.Field{
		{Name: "penetration", Kind: schema.Int},
		{Name: "penetratesBreakables", Kind: schema.Bool},
	},
}

var bounceDef = schema.Def{
	Name: "BounceProjModifier",
	Fields: []schema.Field{
		{Name: "numberOfBounces", Kind: schema.Int, Required: true},
		{Name: "chanceToDieOnBounce", Kind: schema.Float},
		{Name: "damageMultiplierOnBounce", Kind: schema.Float},
	},
}

var homingDef = schema.Def{
	Name: "HomingModifier",
	Fields: []schema.Field{
		{Name: "HomingRadius", Kind: schema.Float, Required: true},
		{Name: "AngularVelocity", Kind: schema.Float, Required: true},
	},
}

type rawProjectile struct {
	BaseData struct {
		Damage float64 `yaml:"damage"`
		Speed  float64 `yaml:"speed"`
		Range  float64 `yaml:"range"`
		Force  float64 `yaml:"force"`
	} `yaml:"baseData"`
	AppliesPoison        unityasset.Bool `yaml:"AppliesPoison"`
	AppliesFire          unityasset.Bool `yaml:"AppliesFire"`
	AppliesFreeze        unityasset.Bool `yaml:"AppliesFreeze"`
	AppliesStun          unityasset.Bool `yaml:"AppliesStun"`
	AppliesCharm         unityasset.Bool `yaml:"AppliesCharm"`
	AppliesSpeedModifier unityasset.Bool `yaml:"AppliesSpeedModifier"`
}

func (r rawProjectile) effects() []string {
	var out []string
	for _, e := range []struct {
		on   unityasset.Bool
		name string
	}{
		{r.AppliesPoison, "poison"},
		{r.AppliesFire, "fire"},
		{r.AppliesFreeze, "freeze"},
		{r.AppliesStun, "stun"},
		{r.AppliesCharm, "charm"},
		{r.AppliesSpeedModifier, "slow"},
	} {
		if e.on {
			out = append(out, e.name)
		}
	}
	return out
}

type projectileSource struct {
	svc *Service
}

func (s *projectileSource) Name() string        { return config.RepoProjectiles }
func (s *projectileSource) Patterns() []string  { return config.Default().Sources[config.RepoProjectiles] }
func (s *projectileSource) Prefilter() []string { return []string{"baseData"} }

func (s *projectileSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[string, Projectile], error) {
	res := s.svc.res()
	blocks, err := res.ParseContent(path, content)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptProjectile)
	if !ok {
		return nil, nil
	}

	key := unityasset.KeyFromPath(path)
	p, err := buildProjectile(res, b, blocks)
	if err != nil {
		return single(repository.Reject[string, Projectile](key, err))
	}
	p.Key = key
	p.Path = res.Rel(path)
	return single(repository.Accept(key, p))
}

func buildProjectile(res *resolver.Resolver, b unityasset.Block, blocks []unityasset.Block) (Projectile, error) {
	var raw rawProjectile
	if err := decodeBlock(b, projectileDef, &raw); err != nil {
		return Projectile{}, err
	}

	p := Projectile{
		Damage:  raw.BaseData.Damage,
		Speed:   raw.BaseData.Speed,
		Range:   raw.BaseData.Range,
		Force:   raw.BaseData.Force,
		Effects: raw.effects(),
	}

	if mb, ok := findScript(res, blocks, scriptPierce); ok {
		var raw struct {
			Penetration          int             `yaml:"penetration"`
			PenetratesBreakables unityasset.Bool `yaml:"penetratesBreakables"`
		}
		if err := decodeBlock(mb, pierceDef, &raw); err != nil {
			return Projectile{}, err
		}
		p.Pierce = &Pierce{Penetration: raw.Penetration, PenetratesBreakables: bool(raw.PenetratesBreakables)}
	}
	if mb, ok := findScript(res, blocks, scriptBounce); ok {
		p.Bounce = &Bounce{}
		if err := decodeBlock(mb, bounceDef, p.Bounce); err != nil {
			return Projectile{}, err
		}
	}
	if mb, ok := findScript(res, blocks, scriptHoming); ok {
		p.Homing = &Homing{}
		if err := decodeBlock(mb, homingDef, p.Homing); err != nil {
			return Projectile{}, err
		}
	}

	sprite, err := spriteOf(res, blocks)
	if err != nil {
		return Projectile{}, err
	}
	p.Sprite = sprite
	return p, nil
}
