package catalog

import "github.com/mvp-joe/etg-extract/internal/unityasset"

// SpriteTexture follows a sprite reference through its collection and
// material to the texture asset path.
func (s *Service) SpriteTexture(collection unityasset.Ref, spriteID int) (string, bool) {
	c, ok := s.SpriteCollections.Get(collection.AssetPathExt(s.cfg.Assets.MetaExt))
	if !ok || spriteID < 0 || spriteID >= len(c.Sprites) {
		return "", false
	}
	mat := c.Sprites[spriteID].MaterialID
	if mat < 0 || mat >= len(c.Materials) {
		return "", false
	}
	tex := c.Materials[mat].Texture
	return tex, tex != ""
}

// GunTexture returns the texture of a gun's sprite.
func (s *Service) GunTexture(id int) (string, bool) {
	g, ok := s.Guns.Get(id)
	if !ok || g.Sprite == nil {
		return "", false
	}
	return s.SpriteTexture(g.Sprite.Collection, g.Sprite.SpriteID)
}

// GunVolley returns the volley a gun fires, if it has one.
func (s *Service) GunVolley(id int) (Volley, bool) {
	g, ok := s.Guns.Get(id)
	if !ok || g.Volley == "" {
		return Volley{}, false
	}
	return s.Volleys.Get(g.Volley)
}

// GunProjectiles returns every distinct projectile a gun can fire: those of
// its single module followed by those of its volley modules, charge
// projectiles included, in first-seen order.
func (s *Service) GunProjectiles(id int) ([]Projectile, bool) {
	g, ok := s.Guns.Get(id)
	if !ok {
		return nil, false
	}

	var modules []Module
	if g.Module != nil {
		modules = append(modules, *g.Module)
	}
	if v, ok := s.GunVolley(id); ok {
		modules = append(modules, v.Modules...)
	}

	seen := map[string]bool{}
	projectiles := []Projectile{}
	add := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		if p, ok := s.Projectiles.Get(key); ok {
			projectiles = append(projectiles, p)
		}
	}
	for _, m := range modules {
		for _, key := range m.Projectiles {
			add(key)
		}
		for _, cp := range m.ChargeProjectiles {
			add(cp.Projectile)
		}
	}
	return projectiles, true
}

// PlayerStartingGuns returns the starting guns of the named player. Ids
// without a gun record are left out.
func (s *Service) PlayerStartingGuns(name string) ([]Gun, bool) {
	p, ok := s.Players.Get(name)
	if !ok {
		return nil, false
	}
	guns := make([]Gun, 0, len(p.StartingGuns))
	for _, id := range p.StartingGuns {
		if g, ok := s.Guns.Get(id); ok {
			guns = append(guns, g)
		}
	}
	return guns, true
}

// DisplayName returns the translated display name of a pickup, falling back
// to the gun's internal name.
func (s *Service) DisplayName(id int) (string, bool) {
	if e, ok := s.Encounters.Get(id); ok && e.Name != "" {
		return e.Name, true
	}
	if g, ok := s.Guns.Get(id); ok && g.Name != "" {
		return g.Name, true
	}
	return "", false
}
