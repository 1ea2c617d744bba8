package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// enumTable maps the game's integer enum values to names. Values without a
// name render as UNKNOWN_<n> so nothing is lost in the cache.
type enumTable map[int]string

func (t enumTable) name(v int) string {
	if s, ok := t[v]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_%d", v)
}

func (t enumTable) parse(s string) (int, error) {
	for v, name := range t {
		if name == s {
			return v, nil
		}
	}
	if rest, ok := strings.CutPrefix(s, "UNKNOWN_"); ok {
		return strconv.Atoi(rest)
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	return 0, fmt.Errorf("unknown enum name %q", s)
}

// Quality is an item quality tier.
type Quality int

var qualityNames = enumTable{
	-100: "EXCLUDED",
	-50:  "SPECIAL",
	0:    "COMMON",
	1:    "D",
	2:    "C",
	3:    "B",
	4:    "A",
	5:    "S",
}

func (q Quality) String() string { return qualityNames.name(int(q)) }

func (q Quality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

func (q *Quality) UnmarshalText(b []byte) error {
	v, err := qualityNames.parse(string(b))
	*q = Quality(v)
	return err
}

// ShootStyle is how a projectile module fires.
type ShootStyle int

var shootStyleNames = enumTable{
	0: "SemiAutomatic",
	1: "Automatic",
	2: "Beam",
	3: "Charged",
	4: "Burst",
}

func (s ShootStyle) String() string { return shootStyleNames.name(int(s)) }

func (s ShootStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ShootStyle) UnmarshalText(b []byte) error {
	v, err := shootStyleNames.parse(string(b))
	*s = ShootStyle(v)
	return err
}

// GunClass groups guns for synergies and drops.
type GunClass int

var gunClassNames = enumTable{
	0:  "NONE",
	1:  "PISTOL",
	5:  "SHOTGUN",
	10: "FULLAUTO",
	15: "RIFLE",
	20: "BEAM",
	25: "POISON",
	30: "FIRE",
	35: "ICE",
	40: "CHARM",
	45: "EXPLOSIVE",
	50: "SILLY",
	55: "SHITTY",
	60: "CHARGE",
}

func (c GunClass) String() string { return gunClassNames.name(int(c)) }

func (c GunClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *GunClass) UnmarshalText(b []byte) error {
	v, err := gunClassNames.parse(string(b))
	*c = GunClass(v)
	return err
}

// Character is a playable character identity.
type Character int

var characterNames = enumTable{
	0:  "Pilot",
	1:  "Convict",
	2:  "Robot",
	3:  "Ninja",
	4:  "Cosmonaut",
	5:  "Soldier",
	6:  "Guide",
	7:  "CoopCultist",
	8:  "Bullet",
	9:  "Eevee",
	10: "Gunslinger",
}

func (c Character) String() string { return characterNames.name(int(c)) }

func (c Character) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Character) UnmarshalText(b []byte) error {
	v, err := characterNames.parse(string(b))
	*c = Character(v)
	return err
}

// WrapMode is how a sprite animation clip repeats.
type WrapMode int

var wrapModeNames = enumTable{
	0: "Loop",
	1: "LoopSection",
	2: "Once",
	3: "PingPong",
	4: "LoopFidget",
	5: "RandomFrame",
	6: "RandomLoop",
	7: "Single",
}

func (w WrapMode) String() string { return wrapModeNames.name(int(w)) }

func (w WrapMode) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *WrapMode) UnmarshalText(b []byte) error {
	v, err := wrapModeNames.parse(string(b))
	*w = WrapMode(v)
	return err
}
