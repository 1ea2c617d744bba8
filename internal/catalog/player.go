package catalog

import (
	"context"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Player is a playable character prefab: PlayerController merged with the
// HealthHaver on the same prefab.
type Player struct {
	Key                   string    `json:"key"`
	Path                  string    `json:"path"`
	Character             Character `json:"character"`
	StartingGuns          []int     `json:"startingGuns"`
	StartingAlternateGuns []int     `json:"startingAlternateGuns,omitempty"`
	StartingPassives      []int     `json:"startingPassives,omitempty"`
	StartingActives       []int     `json:"startingActives,omitempty"`
	MaxHealth             float64   `json:"maxHealth"`
	Armor                 float64   `json:"armor,omitempty"`
}

var playerDef = schema.Def{
	Name: "PlayerController",
	Fields: []schema.Field{
		{Name: "characterIdentity", Kind: schema.Int, Required: true},
		{Name: "startingGunIds", Kind: schema.Any, Required: true},
		{Name: "startingAlternateGunIds", Kind: schema.Any},
		{Name: "startingPassiveItemIds", Kind: schema.Any},
		{Name: "startingActiveItemIds", Kind: schema.Any},
	},
}

var healthDef = schema.Def{
	Name: "HealthHaver",
	Fields: []schema.Field{
		{Name: "maxHealth", Kind: schema.Float, Required: true},
		{Name: "Armor", Kind: schema.Float},
	},
}

type rawPlayer struct {
	Character        int    `yaml:"characterIdentity"`
	StartingGuns     idList `yaml:"startingGunIds"`
	AlternateGuns    idList `yaml:"startingAlternateGunIds"`
	StartingPassives idList `yaml:"startingPassiveItemIds"`
	StartingActives  idList `yaml:"startingActiveItemIds"`
}

type rawHealth struct {
	MaxHealth float64 `yaml:"maxHealth"`
	Armor     float64 `yaml:"Armor"`
}

// playerParse keeps hex-packed id arrays such as 0e000000 from being read
// as floats.
var playerParse = unityasset.ParseOptions{NoExponentFloats: true}

type playerSource struct {
	svc *Service
}

func (s *playerSource) Name() string        { return config.RepoPlayers }
func (s *playerSource) Patterns() []string  { return config.Default().Sources[config.RepoPlayers] }
func (s *playerSource) Prefilter() []string { return []string{"startingGunIds"} }

func (s *playerSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[string, Player], error) {
	res := s.svc.res()
	blocks, err := res.ParseContentWith(path, content, playerParse)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptPlayer)
	if !ok {
		return nil, nil
	}

	key := unityasset.KeyFromPath(path)
	var raw rawPlayer
	if err := decodeBlock(b, playerDef, &raw); err != nil {
		return single(repository.Reject[string, Player](key, err))
	}

	p := Player{
		Key:                   key,
		Path:                  res.Rel(path),
		Character:             Character(raw.Character),
		StartingGuns:          nonNil(raw.StartingGuns),
		StartingAlternateGuns: raw.AlternateGuns,
		StartingPassives:      raw.StartingPassives,
		StartingActives:       raw.StartingActives,
	}

	if hb, ok := findScript(res, blocks, scriptHealth); ok {
		var health rawHealth
		if err := decodeBlock(hb, healthDef, &health); err != nil {
			return single(repository.Reject[string, Player](key, err))
		}
		p.MaxHealth = health.MaxHealth
		p.Armor = health.Armor
	}

	return single(repository.Accept(key, p))
}

func nonNil(ids idList) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
