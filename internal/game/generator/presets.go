package generator

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
)

var presets = map[string]Config{
	"easy": {
		Rooms:           8,
		Layout:          Linear,
		Combat:          0.4,
		Trap:            0.1,
		Treasure:        0.3,
		Theme:           "mine",
		MonsterPool:     []string{"kobold", "giant_rat"},
		Difficulty:      npc.Easy,
		PartyLevel:      1,
		Lethality:       0.8,
		TreasureLevel:   theme.TreasureLow,
		MagicItemChance: 0.05,
		IncludeBoss:     true,
		StartingItems:   []string{"torch"},
	},
	"standard": {
		Rooms:           12,
		Layout:          Branching,
		Combat:          0.5,
		Trap:            0.15,
		Treasure:        0.25,
		Theme:           "mine",
		MonsterPool:     []string{"kobold", "goblin", "giant_rat", "skeleton"},
		Difficulty:      npc.Standard,
		PartyLevel:      1,
		Lethality:       1.0,
		TreasureLevel:   theme.TreasureMedium,
		MagicItemChance: 0.1,
		IncludeBoss:     true,
		StartingItems:   []string{"torch"},
	},
	"hard": {
		Rooms:           15,
		Layout:          Network,
		Combat:          0.5,
		Trap:            0.25,
		Treasure:        0.2,
		Theme:           "ruins",
		MonsterPool:     []string{"goblin", "orc", "skeleton", "ogre"},
		Difficulty:      npc.Hard,
		PartyLevel:      2,
		Lethality:       1.3,
		TreasureLevel:   theme.TreasureHigh,
		MagicItemChance: 0.15,
		Shortcuts:       2,
		IncludeBoss:     true,
		StartingItems:   []string{"torch"},
	},
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preset returns a copy of the named preset, validated through NewConfig.
// The copy may be modified and re-validated.
//
// Postcondition: Returns a valid Config, or an error for an unknown name.
func Preset(name string) (Config, error) {
	p, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (want one of %v)", name, PresetNames())
	}
	p.MonsterPool = append([]string(nil), p.MonsterPool...)
	p.StartingItems = append([]string(nil), p.StartingItems...)
	return NewConfig(p)
}
