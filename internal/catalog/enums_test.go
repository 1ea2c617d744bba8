package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/etg-extract/internal/repository"
)

// Test Plan:
// - Enum values render their names; unknown values render as UNKNOWN_<n>
// - UnmarshalText accepts names, UNKNOWN_<n> and plain numbers, rejecting anything else
// - Enums survive a JSON round trip as map values
// - parseStringTable groups value lines under #KEY lines, ignoring blanks and comments
// - Malformed keys are rejected with their line number
// - translationKey adds the leading # only when missing

func TestEnums_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "EXCLUDED", Quality(-100).String())
	assert.Equal(t, "S", Quality(5).String())
	assert.Equal(t, "UNKNOWN_6", Quality(6).String())
	assert.Equal(t, "Charged", ShootStyle(3).String())
	assert.Equal(t, "CHARGE", GunClass(60).String())
	assert.Equal(t, "UNKNOWN_2", GunClass(2).String())
	assert.Equal(t, "Gunslinger", Character(10).String())
	assert.Equal(t, "PingPong", WrapMode(3).String())
}

func TestEnums_UnmarshalText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Quality
		ok    bool
	}{
		{"name", "A", 4, true},
		{"unknown", "UNKNOWN_9", 9, true},
		{"negative unknown", "UNKNOWN_-3", -3, true},
		{"number", "-50", -50, true},
		{"garbage", "legendary", 0, false},
		{"bad unknown", "UNKNOWN_x", 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var q Quality
			err := q.UnmarshalText([]byte(tt.input))
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestEnums_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := map[int]Gun{4: {ID: 4, Quality: 3, Class: 17}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"quality":"B"`)
	assert.Contains(t, string(data), `"class":"UNKNOWN_17"`)

	var out map[int]Gun
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestParseStringTable(t *testing.T) {
	t.Parallel()

	entries, err := parseStringTable([]byte("\xef\xbb\xbf// header\r\n#ONE\r\nfirst\r\n\r\n  second  \r\n#EMPTY\n// note\n#TWO\nonly\n"))
	require.NoError(t, err)

	got := map[string][]string{}
	for _, e := range entries {
		require.NoError(t, e.Err)
		got[e.Key] = e.Value
	}
	assert.Equal(t, map[string][]string{
		"#ONE":   {"first", "second"},
		"#EMPTY": {},
		"#TWO":   {"only"},
	}, got)
}

func TestParseStringTable_MalformedKey(t *testing.T) {
	t.Parallel()

	entries, err := parseStringTable([]byte("#GOOD\nvalue\n#BAD KEY\norphan\n#\n"))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "#GOOD", entries[0].Key)
	assert.Equal(t, []string{"value"}, entries[0].Value)

	assert.True(t, errors.Is(entries[1].Err, repository.ErrValidation))
	assert.Contains(t, entries[1].Err.Error(), "line 3")
	assert.True(t, errors.Is(entries[2].Err, repository.ErrValidation))
}

func TestTranslationKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "#GUN", translationKey("GUN"))
	assert.Equal(t, "#GUN", translationKey(" #GUN "))
	assert.Equal(t, "", translationKey(""))
}
