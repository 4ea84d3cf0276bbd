// Package npc provides monster stat blocks, the bestiary that indexes them,
// and the scaler that builds encounter groups sized to a challenge band.
package npc

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// Frequency is how commonly a monster appears; it weights random selection.
type Frequency string

// Frequencies from most to least common.
const (
	Common   Frequency = "common"
	Uncommon Frequency = "uncommon"
	Rare     Frequency = "rare"
	VeryRare Frequency = "very_rare"
)

// Weight returns the selection weight for f. Unknown values weigh as Common.
func (f Frequency) Weight() int {
	switch f {
	case Uncommon:
		return 4
	case Rare:
		return 2
	case VeryRare:
		return 1
	default:
		return 8
	}
}

// Attack is one attack routine in a monster's round.
type Attack struct {
	Name   string `yaml:"name"`
	Damage string `yaml:"damage"`
}

// Template is a monster stat block loaded from YAML.
type Template struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	HitDice     int       `yaml:"hit_dice"`
	HPBonus     int       `yaml:"hp_bonus"`
	AC          int       `yaml:"ac"`
	THAC0       int       `yaml:"thac0"`
	XP          int       `yaml:"xp"`
	Frequency   Frequency `yaml:"frequency"`
	Attacks     []Attack  `yaml:"attacks"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, HitDice >= 1,
// expected HP >= 1, AC in [-10, 10], THAC0 in [1, 20], and every attack has a
// parseable damage expression; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.HitDice < 1 {
		return fmt.Errorf("monster template %q: hit_dice must be >= 1", t.ID)
	}
	if t.ExpectedHP() < 1 {
		return fmt.Errorf("monster template %q: expected hp must be >= 1, got %.1f", t.ID, t.ExpectedHP())
	}
	if t.AC < -10 || t.AC > 10 {
		return fmt.Errorf("monster template %q: ac must be in [-10, 10], got %d", t.ID, t.AC)
	}
	if t.THAC0 < 1 || t.THAC0 > 20 {
		return fmt.Errorf("monster template %q: thac0 must be in [1, 20], got %d", t.ID, t.THAC0)
	}
	switch t.Frequency {
	case "", Common, Uncommon, Rare, VeryRare:
	default:
		return fmt.Errorf("monster template %q: unknown frequency %q", t.ID, t.Frequency)
	}
	if len(t.Attacks) == 0 {
		return fmt.Errorf("monster template %q: must have at least one attack", t.ID)
	}
	for _, a := range t.Attacks {
		if _, err := dice.Parse(a.Damage); err != nil {
			return fmt.Errorf("monster template %q: attack %q: %w", t.ID, a.Name, err)
		}
	}
	return nil
}

// ExpectedHP returns the mean hit points: d8 per hit die plus the flat bonus.
func (t *Template) ExpectedHP() float64 {
	return float64(t.HitDice)*4.5 + float64(t.HPBonus)
}

// referenceAC is the armor class the offense estimate attacks against.
const referenceAC = 5

// Survivability is expected HP weighted by armor class; each point of AC
// below 10 adds five percent.
func (t *Template) Survivability() float64 {
	return t.ExpectedHP() * (1 + float64(10-t.AC)*0.05)
}

// Offense is the expected damage per round against referenceAC.
//
// Precondition: t passed Validate.
func (t *Template) Offense() float64 {
	hit := float64(21-(t.THAC0-referenceAC)) / 20
	hit = math.Max(0.05, math.Min(0.95, hit))
	var dmg float64
	for _, a := range t.Attacks {
		dmg += dice.MustParse(a.Damage).Mean()
	}
	return dmg * hit
}

// Challenge is the geometric mean of survivability and offense, rounded to
// two decimals.
//
// Precondition: t passed Validate.
// Postcondition: Returns a value > 0.
func (t *Template) Challenge() float64 {
	return math.Round(math.Sqrt(t.Survivability()*t.Offense())*100) / 100
}
