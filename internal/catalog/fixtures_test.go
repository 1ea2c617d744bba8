package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/etg-extract/internal/config"
)

// Script GUIDs of the fixture tree.
var fixtureScripts = map[string]string{
	"scr-gun":        "Scripts/Gun.cs",
	"scr-projectile": "Scripts/Projectile.cs",
	"scr-bounce":     "Scripts/BounceProjModifier.cs",
	"scr-homing":     "Scripts/HomingModifier.cs",
	"scr-pierce":     "Scripts/PierceProjModifier.cs",
	"scr-volley":     "Scripts/ProjectileVolleyData.cs",
	"scr-player":     "Scripts/PlayerController.cs",
	"scr-health":     "Scripts/HealthHaver.cs",
	"scr-sprite":     "Scripts/tk2dSprite.cs",
	"scr-animator":   "Scripts/tk2dSpriteAnimator.cs",
	"scr-collection": "Scripts/tk2dSpriteCollectionData.cs",
	"scr-animation":  "Scripts/tk2dSpriteAnimation.cs",
	"scr-encounters": "Scripts/EncounterDatabase.cs",
}

const header = "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n"

var fixtureAssets = map[string]struct {
	guid    string
	content string
}{
	"Projectiles/Bullet.prefab": {"prj-bullet", header + `--- !u!1 &1
GameObject:
  m_Name: Bullet
--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-projectile, type: 3}
  baseData:
    damage: 5
    speed: 23
    range: 1000
    force: 9
  AppliesFire: 0
--- !u!114 &11400001
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-pierce, type: 3}
  penetration: 2
  penetratesBreakables: 1
`},
	"Projectiles/BigBullet.prefab": {"prj-big", header + `--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-projectile, type: 3}
  baseData:
    damage: 20
    speed: 15
    range: 60
  AppliesFire: 1
  AppliesPoison: 1
--- !u!114 &11400001
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-bounce, type: 3}
  numberOfBounces: 3
  chanceToDieOnBounce: 0.25
  damageMultiplierOnBounce: 1.5
--- !u!114 &11400002
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-sprite, type: 3}
  collection: {fileID: 11400000, guid: spr-guns, type: 2}
  _spriteId: 1
`},
	"Projectiles/Broken.prefab": {"prj-broken", header + `--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-projectile, type: 3}
  baseData:
    speed: fast
`},
	"Volleys/TwinVolley.asset": {"vol-twin", header + `--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-volley, type: 3}
  projectiles:
  - shootStyle: 4
    projectiles:
    - {fileID: 11400000, guid: prj-bullet, type: 2}
    chargeProjectiles:
    - ChargeTime: 1
      Projectile: {fileID: 11400000, guid: prj-big, type: 2}
    cooldownTime: 0.2
    angleVariance: 4
    numberOfShotsInClip: 6
    ammoCost: 1
    burstShotCount: 3
  ModulesAreTiers: 0
  UsesShotgunStyleVelocityRandomizer: 1
`},
	"Guns/Pistol.prefab": {"gun-pistol", header + `--- !u!114 &100
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-gun, type: 3}
  gunName: Rogue Special
  PickupObjectId: 4
  quality: 3
  gunClass: 1
  reloadTime: 1.2
  maxAmmo: 250
  InfiniteAmmo: 1
  gunSwitchGroup: Pistol
  singleModule:
    shootStyle: 0
    projectiles:
    - {fileID: 11400000, guid: prj-bullet, type: 2}
    - {fileID: 0}
    - {fileID: 11400000, guid: not-indexed, type: 2}
    - {fileID: 11400000, guid: gun-pistol, type: 2}
    cooldownTime: 0.1
    angleVariance: 5
    numberOfShotsInClip: 8
    ammoCost: 1
  rawVolley: {fileID: 11400000, guid: vol-twin, type: 2}
  idleAnimation: pistol_idle
  shootAnimation: pistol_fire
  reloadAnimation: pistol_reload
--- !u!114 &101
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-sprite, type: 3}
  collection: {fileID: 11400000, guid: spr-guns, type: 2}
  _spriteId: 0
--- !u!114 &102
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-animator, type: 3}
  library: {fileID: 11400000, guid: anm-guns, type: 2}
  defaultClipId: 0
`},
	"Guns/Cannon.prefab": {"gun-cannon", header + `--- !u!114 &100
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-gun, type: 3}
  gunName: Cannon
  PickupObjectId: 37
  quality: legendary
  gunSwitchGroup: Cannon
`},
	"Players/PlayerRogue.prefab": {"ply-rogue", header + `--- !u!114 &100
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-player, type: 3}
  characterIdentity: 0
  startingGunIds: 04000000
  startingAlternateGunIds: 0e000000
  startingPassiveItemIds: []
  startingActiveItemIds:
  - 356
--- !u!114 &101
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-health, type: 3}
  maxHealth: 3
  Armor: 0
`},
	"Sprites/GunCollection.prefab": {"spr-guns", header + `--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-collection, type: 3}
  spriteCollectionName: GunCollection
  spriteDefinitions:
  - name: pistol_idle_001
    materialId: 0
    flipped: 0
    uvs:
    - {x: 0, y: 0}
    - {x: 0.5, y: 0.5}
  - name: big_bullet_001
    materialId: 1
  materials:
  - {fileID: 2100000, guid: mat-guns, type: 2}
  - {fileID: 0}
`},
	"Sprites/GunAtlas.mat": {"mat-guns", header + `--- !u!21 &2100000
Material:
  m_Name: GunAtlas
  m_SavedProperties:
    serializedVersion: 2
    m_TexEnvs:
    - _BumpMap:
        m_Texture: {fileID: 0}
    - _MainTex:
        m_Texture: {fileID: 2800000, guid: tex-guns, type: 3}
        m_Scale: {x: 1, y: 1}
`},
	"Sprites/GunAnimation.prefab": {"anm-guns", header + `--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-animation, type: 3}
  clips:
  - name: pistol_idle
    frames:
    - spriteCollection: {fileID: 11400000, guid: spr-guns, type: 2}
      spriteId: 0
    - spriteCollection: {fileID: 0}
      spriteId: 3
    fps: 12
    loopStart: 0
    wrapMode: 2
  - name: pistol_fire
    frames: []
    fps: 30
    wrapMode: 9
`},
	"Database/EncounterDatabase.asset": {"enc-db", header + `--- !u!114 &11400000
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: scr-encounters, type: 3}
  Entries:
  - myGuid: 0a1b
    path: Guns/Pistol.prefab
    pickupObjectId: 4
    isPlayerItem: 0
    isPassiveItem: 0
    isActiveItem: 0
    journalData:
      PrimaryDisplayName: PISTOL_ENCNAME
      NotificationPanelDescription: '#PISTOL_SHORTDESC'
      AmmonomiconFullEntry: '#PISTOL_LONGDESC'
      AmmonomiconSprite: pistol_001
  - myGuid: 9f9f
    path: Rooms/Shrine.prefab
    pickupObjectId: -1
    journalData:
      PrimaryDisplayName: '#SHRINE'
`},
}

const fixtureStrings = `// item strings
#PISTOL_ENCNAME
Rogue Special

#PISTOL_SHORTDESC
Shoots things
#PISTOL_LONGDESC
Line one
Line two
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func meta(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\n"
}

// writeFixtureTree writes a small exported project and returns its root.
func writeFixtureTree(t *testing.T) string {
	t.Helper()
	return writeFixtureTreeExt(t, ".meta")
}

// writeFixtureTreeExt is writeFixtureTree with sidecars named with ext.
func writeFixtureTreeExt(t *testing.T, ext string) string {
	t.Helper()
	root := t.TempDir()
	for guid, script := range fixtureScripts {
		writeFile(t, root, script+ext, meta(guid))
	}
	for rel, a := range fixtureAssets {
		writeFile(t, root, rel, a.content)
		writeFile(t, root, rel+ext, meta(a.guid))
	}
	writeFile(t, root, "Sprites/GunAtlas.png"+ext, meta("tex-guns"))
	writeFile(t, root, "Resources/strings/english/items.txt", fixtureStrings)
	return root
}

// fixtureConfig returns a configuration over root with an isolated cache.
func fixtureConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Assets.Root = root
	cfg.Cache.Dir = t.TempDir()
	cfg.Workers = 2
	return cfg
}
