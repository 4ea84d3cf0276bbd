package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

func TestDefault_LoadsAllThemes(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"cave", "crypt", "mine", "ruins", "sewer"}, c.IDs())
	mine, ok := c.Lookup("mine")
	require.True(t, ok)
	assert.Len(t, mine.Titles, 12)
	assert.Equal(t, "Mine Entrance", mine.EntranceTitle())
	_, ok = c.Lookup("volcano")
	assert.False(t, ok)
}

func TestCatalog_Hint(t *testing.T) {
	c := Default()
	assert.Contains(t, c.Hint("kobold"), "chattering")
	assert.Equal(t, c.DefaultHint, c.Hint("beholder"))
}

func TestLoadCatalogFromBytes_Invalid(t *testing.T) {
	_, err := LoadCatalogFromBytes([]byte("themes: [unterminated"))
	assert.Error(t, err)

	_, err = LoadCatalogFromBytes([]byte("themes: []"))
	assert.Error(t, err)
}

func TestLoadCatalogFromBytes_BadTrapDamage(t *testing.T) {
	data := []byte(`
traps:
  - type: pit
    damage: lots
themes:
  - id: x
`)
	_, err := LoadCatalogFromBytes(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pit")
}

func TestProperty_DungeonNameUsesThemeParts(t *testing.T) {
	c := Default()
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.SampledFrom(c.IDs()).Draw(rt, "theme")
		seed := rapid.Int64().Draw(rt, "seed")
		th, _ := c.Lookup(id)
		name := th.DungeonName(dice.NewSeededSource(seed))
		found := false
		for _, p := range th.Prefixes {
			for _, n := range th.Nouns {
				if name == p+" "+n {
					found = true
				}
			}
		}
		assert.True(rt, found, "name %q not built from theme %q parts", name, id)
	})
}
