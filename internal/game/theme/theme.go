// Package theme holds the per-theme flavor tables used by dungeon generation:
// room titles and descriptions, dungeon name parts, monster hints, and the
// item, trap, and treasure pools.
package theme

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

//go:embed themes.yaml
var defaultData []byte

// TreasureLevel selects which item and gold tables a treasure draw uses.
type TreasureLevel string

// Treasure levels.
const (
	TreasureLow    TreasureLevel = "low"
	TreasureMedium TreasureLevel = "medium"
	TreasureHigh   TreasureLevel = "high"
)

// TreasureLevels lists the valid treasure levels in ascending order.
var TreasureLevels = []TreasureLevel{TreasureLow, TreasureMedium, TreasureHigh}

// Trap is a trap archetype with its damage expression.
type Trap struct {
	Type   string `yaml:"type"`
	Damage string `yaml:"damage"`
}

// GoldRange is an inclusive gold payout range.
type GoldRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Theme is the flavor table for one dungeon theme.
type Theme struct {
	ID           string   `yaml:"id"`
	Prefixes     []string `yaml:"prefixes"`
	Nouns        []string `yaml:"nouns"`
	Titles       []string `yaml:"titles"`
	Descriptions []string `yaml:"descriptions"`
	MonsterPool  []string `yaml:"monster_pool"`
}

// Catalog is the full set of themes plus the shared item, trap, and hint tables.
type Catalog struct {
	Traps        []Trap                      `yaml:"traps"`
	BasicItems   []string                    `yaml:"basic_items"`
	MagicItems   []string                    `yaml:"magic_items"`
	Treasure     map[TreasureLevel][]string  `yaml:"treasure"`
	Gold         map[TreasureLevel]GoldRange `yaml:"gold"`
	MonsterHints map[string]string           `yaml:"monster_hints"`
	DefaultHint  string                      `yaml:"default_hint"`
	Themes       []*Theme                    `yaml:"themes"`

	byID map[string]*Theme
}

// LoadCatalogFromBytes parses and validates a catalog from YAML.
//
// Postcondition: Returns a validated Catalog or a non-nil error.
func LoadCatalogFromBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing theme catalog YAML: %w", err)
	}
	c.byID = make(map[string]*Theme, len(c.Themes))
	for _, t := range c.Themes {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("theme catalog: duplicate theme %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// invalid, which indicates a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := LoadCatalogFromBytes(defaultData)
		if err != nil {
			panic("theme: embedded catalog invalid: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Validate checks catalog invariants.
//
// Postcondition: Returns nil if every theme has all pools populated, every
// trap damage parses, and every treasure level has items and a gold range.
func (c *Catalog) Validate() error {
	if len(c.Themes) == 0 {
		return fmt.Errorf("theme catalog: must contain at least one theme")
	}
	if len(c.Traps) == 0 {
		return fmt.Errorf("theme catalog: must contain at least one trap")
	}
	for _, tr := range c.Traps {
		if _, err := dice.Parse(tr.Damage); err != nil {
			return fmt.Errorf("theme catalog: trap %q: %w", tr.Type, err)
		}
	}
	for _, lvl := range TreasureLevels {
		if len(c.Treasure[lvl]) == 0 {
			return fmt.Errorf("theme catalog: treasure level %q has no items", lvl)
		}
		g, ok := c.Gold[lvl]
		if !ok || g.Min < 0 || g.Min > g.Max {
			return fmt.Errorf("theme catalog: treasure level %q has invalid gold range", lvl)
		}
	}
	if len(c.BasicItems) == 0 || len(c.MagicItems) == 0 {
		return fmt.Errorf("theme catalog: basic and magic item pools must not be empty")
	}
	for _, t := range c.Themes {
		if t.ID == "" {
			return fmt.Errorf("theme catalog: theme id must not be empty")
		}
		if len(t.Prefixes) == 0 || len(t.Nouns) == 0 {
			return fmt.Errorf("theme %q: name prefixes and nouns must not be empty", t.ID)
		}
		if len(t.Titles) == 0 || len(t.Descriptions) == 0 {
			return fmt.Errorf("theme %q: titles and descriptions must not be empty", t.ID)
		}
		if len(t.MonsterPool) == 0 {
			return fmt.Errorf("theme %q: monster_pool must not be empty", t.ID)
		}
	}
	return nil
}

// Lookup returns the theme with the given id.
func (c *Catalog) Lookup(id string) (*Theme, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// IDs returns all theme ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Hint returns the description hint for a monster type.
func (c *Catalog) Hint(monster string) string {
	if h, ok := c.MonsterHints[monster]; ok {
		return h
	}
	return c.DefaultHint
}

// DungeonName draws a "<prefix> <noun>" name for the theme.
func (t *Theme) DungeonName(src dice.Source) string {
	prefix := dice.Pick(src, t.Prefixes)
	noun := dice.Pick(src, t.Nouns)
	return prefix + " " + noun
}

// EntranceTitle returns the title used for the start room.
func (t *Theme) EntranceTitle() string {
	if t.ID == "" {
		return "Entrance"
	}
	return strings.ToUpper(t.ID[:1]) + t.ID[1:] + " Entrance"
}
