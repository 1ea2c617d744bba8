package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
	"github.com/mvp-joe/etg-extract/internal/schema"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

// Encounter is one EncounterDatabase entry with its journal strings
// translated.
type Encounter struct {
	ID               int    `json:"id"`
	GUID             string `json:"guid"`
	Path             string `json:"path"`
	NameKey          string `json:"nameKey,omitempty"`
	ShortKey         string `json:"shortKey,omitempty"`
	LongKey          string `json:"longKey,omitempty"`
	Sprite           string `json:"sprite,omitempty"`
	Name             string `json:"name,omitempty"`
	ShortDescription string `json:"shortDescription,omitempty"`
	LongDescription  string `json:"longDescription,omitempty"`
	IsPlayerItem     bool   `json:"isPlayerItem"`
	IsPassiveItem    bool   `json:"isPassiveItem"`
	IsActiveItem     bool   `json:"isActiveItem"`
}

var encounterDatabaseDef = schema.Def{
	Name: "EncounterDatabase",
	Fields: []schema.Field{
		{Name: "Entries", Kind: schema.List, Required: true},
	},
}

var encounterEntryDef = schema.Def{
	Name: "EncounterDatabaseEntry",
	Fields: []schema.Field{
		{Name: "pickupObjectId", Kind: schema.Int, Required: true},
		{Name: "myGuid", Kind: schema.String, Required: true},
		{Name: "path", Kind: schema.String},
		{Name: "journalData", Kind: schema.Object, Fields: []schema.Field{
			{Name: "PrimaryDisplayName", Kind: schema.String},
			{Name: "NotificationPanelDescription", Kind: schema.String},
			{Name: "AmmonomiconFullEntry", Kind: schema.String},
			{Name: "AmmonomiconSprite", Kind: schema.String},
		}},
		{Name: "isPlayerItem", Kind: schema.Bool},
		{Name: "isPassiveItem", Kind: schema.Bool},
		{Name: "isActiveItem", Kind: schema.Bool},
	},
}

type rawEncounter struct {
	ID      int    `yaml:"pickupObjectId"`
	GUID    string `yaml:"myGuid"`
	Path    string `yaml:"path"`
	Journal struct {
		Name   string `yaml:"PrimaryDisplayName"`
		Short  string `yaml:"NotificationPanelDescription"`
		Long   string `yaml:"AmmonomiconFullEntry"`
		Sprite string `yaml:"AmmonomiconSprite"`
	} `yaml:"journalData"`
	IsPlayerItem  unityasset.Bool `yaml:"isPlayerItem"`
	IsPassiveItem unityasset.Bool `yaml:"isPassiveItem"`
	IsActiveItem  unityasset.Bool `yaml:"isActiveItem"`
}

type encounterSource struct {
	svc *Service
}

func (s *encounterSource) Name() string        { return config.RepoEncounters }
func (s *encounterSource) Patterns() []string  { return config.Default().Sources[config.RepoEncounters] }
func (s *encounterSource) Prefilter() []string { return []string{"Entries"} }

func (s *encounterSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[int, Encounter], error) {
	res := s.svc.res()
	blocks, err := res.ParseContent(path, content)
	if err != nil {
		return nil, err
	}

	b, ok := findScript(res, blocks, scriptEncounterDatabase)
	if !ok {
		return nil, nil
	}
	if err := encounterDatabaseDef.Validate(b.Fields); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrValidation, err)
	}

	list := unityasset.Lookup(b.Fields, "Entries")
	entries := make([]repository.Entry[int, Encounter], 0, len(list.Content))
	for _, n := range list.Content {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Negative ids mark entries that are not pickups.
		id := -1
		if v, ok := unityasset.ScalarValue(n, "pickupObjectId"); ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				if parsed < 0 {
					continue
				}
				id = parsed
			}
		}

		var raw rawEncounter
		if err := decodeNode(n, encounterEntryDef, &raw); err != nil {
			entries = append(entries, repository.Reject[int, Encounter](id, err))
			continue
		}

		e := Encounter{
			ID:            raw.ID,
			GUID:          raw.GUID,
			Path:          raw.Path,
			NameKey:       raw.Journal.Name,
			ShortKey:      raw.Journal.Short,
			LongKey:       raw.Journal.Long,
			Sprite:        raw.Journal.Sprite,
			IsPlayerItem:  bool(raw.IsPlayerItem),
			IsPassiveItem: bool(raw.IsPassiveItem),
			IsActiveItem:  bool(raw.IsActiveItem),
		}
		e.Name = s.svc.translate(e.NameKey)
		e.ShortDescription = s.svc.translate(e.ShortKey)
		e.LongDescription = s.svc.translate(e.LongKey)
		entries = append(entries, repository.Accept(e.ID, e))
	}
	return entries, nil
}

// translate looks up a journal string key, returning "" when the key is
// empty or unknown. Multi-line values are joined with newlines.
func (s *Service) translate(key string) string {
	key = translationKey(key)
	if key == "" {
		return ""
	}
	lines, ok := s.Translations.Get(key)
	if !ok {
		return ""
	}
	return strings.Join(lines, "\n")
}
