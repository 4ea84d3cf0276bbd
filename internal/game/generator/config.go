// Package generator turns a validated Config into a procedurally generated
// dungeon: topology first, then encounter placement, monster scaling, and
// finally flavor text, all drawn from one dice.Source in that order.
package generator

import (
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
)

// Layout is a topological family of room graph.
type Layout string

// Layout families.
const (
	Linear    Layout = "linear"
	Branching Layout = "branching"
	Network   Layout = "network"
)

// Layouts lists the supported layout families.
var Layouts = []Layout{Linear, Branching, Network}

// Valid reports whether l is a supported layout family.
func (l Layout) Valid() bool {
	return l == Linear || l == Branching || l == Network
}

// MaxRooms is the largest room count a Config may request.
const MaxRooms = 500

// MaxPartyLevel is the highest supported party level.
const MaxPartyLevel = 20

// MaxLethality is the highest supported lethality multiplier.
const MaxLethality = 3.0

// Config holds every parameter of one generation run.
type Config struct {
	// Name overrides the theme-drawn dungeon name when non-empty.
	Name   string `yaml:"name" json:"name,omitempty"`
	Rooms  int    `yaml:"rooms" json:"rooms"`
	Layout Layout `yaml:"layout" json:"layout"`

	// Combat, Trap, and Treasure are per-room encounter probabilities; the
	// remainder of 1.0 is the chance of an empty room.
	Combat   float64 `yaml:"combat" json:"combat"`
	Trap     float64 `yaml:"trap" json:"trap"`
	Treasure float64 `yaml:"treasure" json:"treasure"`

	Theme string `yaml:"theme" json:"theme"`
	// MonsterPool lists eligible monster ids. Empty means the theme's pool.
	MonsterPool []string `yaml:"monster_pool" json:"monster_pool,omitempty"`
	// Seed makes generation reproducible. Nil draws from OS entropy.
	Seed *int64 `yaml:"seed" json:"seed,omitempty"`

	Difficulty npc.Tier `yaml:"difficulty" json:"difficulty"`
	PartyLevel int      `yaml:"party_level" json:"party_level"`
	Lethality  float64  `yaml:"lethality" json:"lethality"`

	TreasureLevel   theme.TreasureLevel `yaml:"treasure_level" json:"treasure_level"`
	MagicItemChance float64             `yaml:"magic_item_chance" json:"magic_item_chance"`

	// Shortcuts is the number of extra edges requested for network layouts.
	Shortcuts int `yaml:"shortcuts" json:"shortcuts"`

	IncludeBoss bool   `yaml:"include_boss" json:"include_boss"`
	BossMonster string `yaml:"boss_monster" json:"boss_monster,omitempty"`

	StartingItems   []string `yaml:"starting_items" json:"starting_items,omitempty"`
	GuaranteedItems []string `yaml:"guaranteed_items" json:"guaranteed_items,omitempty"`
}

// Violation is one failed Config constraint.
type Violation struct {
	Field      string
	Constraint string
	Value      string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s, got %s", v.Field, v.Constraint, v.Value)
}

// ConfigValidationError lists every constraint a Config violates.
type ConfigValidationError struct {
	Violations []Violation
}

func (e *ConfigValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("generation config validation failed: %s", strings.Join(parts, "; "))
}

// Has reports whether field is among the violations.
func (e *ConfigValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// NewConfig validates c against the embedded theme catalog and bestiary.
//
// Postcondition: Returns c unchanged, or a *ConfigValidationError. Values are
// never clamped.
func NewConfig(c Config) (Config, error) {
	if err := c.Validate(theme.Default(), npc.DefaultBestiary()); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks all Config invariants against the given content catalogs.
//
// Precondition: themes and bestiary must be non-nil.
// Postcondition: Returns nil if valid, or a *ConfigValidationError describing all violations.
func (c Config) Validate(themes *theme.Catalog, bestiary *npc.Bestiary) error {
	var vs []Violation
	add := func(field, constraint, value string) {
		vs = append(vs, Violation{Field: field, Constraint: constraint, Value: value})
	}

	if c.Rooms < 1 || c.Rooms > MaxRooms {
		add("rooms", fmt.Sprintf("must be 1-%d", MaxRooms), fmt.Sprintf("%d", c.Rooms))
	}
	if !c.Layout.Valid() {
		add("layout", "must be one of [linear, branching, network]", fmt.Sprintf("%q", c.Layout))
	}

	fractionsOK := true
	for _, f := range []struct {
		name  string
		value float64
	}{{"combat", c.Combat}, {"trap", c.Trap}, {"treasure", c.Treasure}} {
		if !inUnit(f.value) {
			add(f.name, "must be in [0, 1]", fmt.Sprintf("%g", f.value))
			fractionsOK = false
		}
	}
	if fractionsOK {
		if sum := c.Combat + c.Trap + c.Treasure; sum > 1+1e-9 {
			add("combat+trap+treasure", "must be <= 1.0",
				fmt.Sprintf("%g+%g+%g=%.4g", c.Combat, c.Trap, c.Treasure, sum))
		}
	}

	if _, ok := themes.Lookup(c.Theme); !ok {
		add("theme", fmt.Sprintf("must be one of [%s]", strings.Join(themes.IDs(), ", ")), fmt.Sprintf("%q", c.Theme))
	}
	for _, id := range c.pool(themes) {
		if _, ok := bestiary.Get(id); !ok {
			add("monster_pool", "must reference known monsters", fmt.Sprintf("%q", id))
		}
	}
	if c.BossMonster != "" {
		if _, ok := bestiary.Get(c.BossMonster); !ok {
			add("boss_monster", "must reference a known monster", fmt.Sprintf("%q", c.BossMonster))
		}
	}

	if !c.Difficulty.Valid() {
		add("difficulty", "must be one of [easy, standard, hard, deadly]", fmt.Sprintf("%q", c.Difficulty))
	}
	if c.PartyLevel < 1 || c.PartyLevel > MaxPartyLevel {
		add("party_level", fmt.Sprintf("must be 1-%d", MaxPartyLevel), fmt.Sprintf("%d", c.PartyLevel))
	}
	if math.IsNaN(c.Lethality) || c.Lethality <= 0 || c.Lethality > MaxLethality {
		add("lethality", fmt.Sprintf("must be in (0, %g]", MaxLethality), fmt.Sprintf("%g", c.Lethality))
	}
	if !validTreasureLevel(c.TreasureLevel) {
		add("treasure_level", "must be one of [low, medium, high]", fmt.Sprintf("%q", c.TreasureLevel))
	}
	if !inUnit(c.MagicItemChance) {
		add("magic_item_chance", "must be in [0, 1]", fmt.Sprintf("%g", c.MagicItemChance))
	}
	if c.Shortcuts < 0 {
		add("shortcuts", "must be >= 0", fmt.Sprintf("%d", c.Shortcuts))
	}

	if len(vs) > 0 {
		return &ConfigValidationError{Violations: vs}
	}
	return nil
}

// pool returns the effective monster pool.
func (c Config) pool(themes *theme.Catalog) []string {
	if len(c.MonsterPool) > 0 {
		return c.MonsterPool
	}
	if t, ok := themes.Lookup(c.Theme); ok {
		return t.MonsterPool
	}
	return nil
}

func inUnit(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}

func validTreasureLevel(l theme.TreasureLevel) bool {
	for _, v := range theme.TreasureLevels {
		if v == l {
			return true
		}
	}
	return false
}
