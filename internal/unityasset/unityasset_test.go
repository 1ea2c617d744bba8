package unityasset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Test Plan:
// - Tokenize splits the two-block scenario into typed blocks with dedented bodies
// - Tokenize discards the %YAML/%TAG preamble
// - Tokenize accepts "stripped" headers and negative file ids
// - Tokenize fails the whole file on a malformed header (no partial result)
// - ParseBody quotes `key: *1234` instead of treating it as an alias
// - ParseBody leaves '*' inside quoted strings alone
// - ParseBody keeps exponent-looking hex tokens as strings in NoExponentFloats mode
// - ParseBody returns an empty mapping for an empty body
// - ParseBody keeps the last of repeated mapping keys so struct decoding accepts the block
// - ParseBody reports ErrDialectParse for broken YAML
// - ParseFile is deterministic (same input, byte-identical JSON)
// - CompactRefs drops fileID 0 refs regardless of guid
// - Bool reads 0/1 and true/false

const twoBlocks = "--- !u!114 &100\nMonoBehaviour:\n  m_Name: Foo\n--- !u!1 &200\nGameObject:\n  m_Name: Bar\n"

func TestTokenize_TwoBlocks(t *testing.T) {
	t.Parallel()

	blocks, err := Tokenize(twoBlocks)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, RawBlock{TypeID: 114, FileID: 100, TypeName: "MonoBehaviour", Body: "m_Name: Foo"}, blocks[0])
	assert.Equal(t, RawBlock{TypeID: 1, FileID: 200, TypeName: "GameObject", Body: "m_Name: Bar"}, blocks[1])
}

func TestParseFile_TwoBlocks(t *testing.T) {
	t.Parallel()

	blocks, err := ParseFile(twoBlocks, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, 114, blocks[0].TypeID)
	assert.Equal(t, int64(100), blocks[0].FileID)
	assert.Equal(t, "MonoBehaviour", blocks[0].TypeName)
	assert.Equal(t, map[string]any{"m_Name": "Foo"}, ToValue(blocks[0].Fields))

	assert.Equal(t, 1, blocks[1].TypeID)
	assert.Equal(t, int64(200), blocks[1].FileID)
	assert.Equal(t, "GameObject", blocks[1].TypeName)
	assert.Equal(t, map[string]any{"m_Name": "Bar"}, ToValue(blocks[1].Fields))
}

func TestTokenize_DiscardsPreamble(t *testing.T) {
	t.Parallel()

	text := "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n" + twoBlocks
	blocks, err := Tokenize(text)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestTokenize_StrippedAndNegativeFileID(t *testing.T) {
	t.Parallel()

	text := "--- !u!1001 &-4216859302048453862 stripped\nPrefabInstance:\n  m_ObjectHideFlags: 0\n"
	blocks, err := Tokenize(text)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, int64(-4216859302048453862), blocks[0].FileID)
	assert.Equal(t, "PrefabInstance", blocks[0].TypeName)
}

func TestTokenize_MalformedHeader(t *testing.T) {
	t.Parallel()

	text := twoBlocks + "--- !u!abc &1\nBroken:\n  x: 1\n"
	blocks, err := Tokenize(text)
	require.ErrorIs(t, err, ErrMalformedBlockHeader)
	assert.Nil(t, blocks)

	_, err = ParseFile(text, ParseOptions{})
	assert.ErrorIs(t, err, ErrMalformedBlockHeader)
}

func TestTokenize_MissingTypeName(t *testing.T) {
	t.Parallel()

	_, err := Tokenize("--- !u!114 &100\n  m_Name: Foo\n")
	assert.ErrorIs(t, err, ErrMalformedBlockHeader)
}

func TestParseBody_AliasNeutralization(t *testing.T) {
	t.Parallel()

	node, err := ParseBody("key: *1234\nother: 5", ParseOptions{})
	require.NoError(t, err)

	v, ok := ScalarValue(node, "key")
	require.True(t, ok)
	assert.Equal(t, "*1234", v)
	assert.Equal(t, map[string]any{"key": "*1234", "other": 5}, ToValue(node))
}

func TestParseBody_AliasInsideQuotesUntouched(t *testing.T) {
	t.Parallel()

	node, err := ParseBody(`text: "a: *b"`, ParseOptions{})
	require.NoError(t, err)

	v, _ := ScalarValue(node, "text")
	assert.Equal(t, "a: *b", v)
}

func TestParseBody_NestedAlias(t *testing.T) {
	t.Parallel()

	node, err := ParseBody("outer:\n  inner: *-.(\n", ParseOptions{})
	require.NoError(t, err)

	v, _ := ScalarValue(node, "outer", "inner")
	assert.Equal(t, "*-.(", v)
}

func TestParseBody_NoExponentFloats(t *testing.T) {
	t.Parallel()

	body := "ids: 0e000000\nguid: 12e4\nspeed: 1.5"

	loose, err := ParseBody(body, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, float64(0), ToValue(loose).(map[string]any)["ids"])

	strict, err := ParseBody(body, ParseOptions{NoExponentFloats: true})
	require.NoError(t, err)
	values := ToValue(strict).(map[string]any)
	assert.Equal(t, "0e000000", values["ids"])
	assert.Equal(t, "12e4", values["guid"])
	assert.Equal(t, 1.5, values["speed"])
}

func TestParseBody_Empty(t *testing.T) {
	t.Parallel()

	node, err := ParseBody("", ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, yaml.MappingNode, node.Kind)
	assert.Empty(t, node.Content)
}

func TestParseBody_DuplicateKeys(t *testing.T) {
	t.Parallel()

	blocks, err := ParseFile("--- !u!114 &1\nMonoBehaviour:\n  m_Name: A\n  damage: 1\n  damage: 2\n  nested:\n    x: 1\n    x: 3\n", ParseOptions{})
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	var fields struct {
		Name   string `yaml:"m_Name"`
		Damage int    `yaml:"damage"`
		Nested struct {
			X int `yaml:"x"`
		} `yaml:"nested"`
	}
	require.NoError(t, blocks[0].Fields.Decode(&fields))
	assert.Equal(t, "A", fields.Name)
	assert.Equal(t, 2, fields.Damage)
	assert.Equal(t, 3, fields.Nested.X)
	assert.Equal(t, map[string]any{"m_Name": "A", "damage": 2, "nested": map[string]any{"x": 3}}, ToValue(blocks[0].Fields))
}

func TestParseBody_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseBody("a: [1, 2\nb: }", ParseOptions{})
	assert.ErrorIs(t, err, ErrDialectParse)
}

func TestParseFile_Deterministic(t *testing.T) {
	t.Parallel()

	text := "--- !u!114 &11400000\nMonoBehaviour:\n  m_Script: {fileID: 11500000, guid: 0a1b, type: 3}\n" +
		"  projectiles:\n  - {fileID: 0}\n  - {fileID: 114, guid: ffee, type: 2}\n  speed: 12.5\n  ids: *123\n"

	first, err := ParseFile(text, ParseOptions{NoExponentFloats: true})
	require.NoError(t, err)
	second, err := ParseFile(text, ParseOptions{NoExponentFloats: true})
	require.NoError(t, err)

	a, err := MarshalBlocks(first)
	require.NoError(t, err)
	b, err := MarshalBlocks(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCompactRefs(t *testing.T) {
	t.Parallel()

	refs := []Ref{
		{FileID: 0, GUID: "abc"},
		{FileID: 11400000, GUID: "def", ResolvedPath: "a/b.prefab.meta"},
		{FileID: 0},
	}
	out := CompactRefs(refs)
	require.Len(t, out, 1)
	assert.Equal(t, "def", out[0].GUID)
	assert.False(t, refs[0].Resolved())
}

func TestRef_Paths(t *testing.T) {
	t.Parallel()

	r := Ref{FileID: 1, GUID: "x", ResolvedPath: "data/projectiles/Bullet_01.prefab.meta"}
	assert.Equal(t, "data/projectiles/Bullet_01.prefab", r.AssetPath())
	assert.Equal(t, "Bullet_01", r.BaseName())

	unresolved := Ref{FileID: 1, GUID: "x"}
	assert.Equal(t, "", unresolved.AssetPath())
}

func TestBool_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	var v struct {
		A Bool `yaml:"a"`
		B Bool `yaml:"b"`
		C Bool `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 1\nb: 0\nc: true"), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))
	assert.True(t, bool(v.C))

	assert.Error(t, yaml.Unmarshal([]byte("a: maybe"), &v))
}
