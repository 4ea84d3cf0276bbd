// Package world provides the navigable dungeon: rooms, directional exits,
// movement, the structural validation pass, and snapshot serialization.
package world

import "strings"

// Direction is a compass direction naming an exit.
type Direction string

// Compass directions.
const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
)

// Cardinal holds the four directions used by the generator, in the fixed
// order used for deterministic iteration.
var Cardinal = []Direction{North, South, East, West}

// Compass holds every direction a room may carry.
var Compass = []Direction{
	North, South, East, West,
	Northeast, Northwest, Southeast, Southwest,
}

var abbreviations = map[string]Direction{
	"n": North, "s": South, "e": East, "w": West,
	"ne": Northeast, "nw": Northwest, "se": Southeast, "sw": Southwest,
}

// Valid reports whether d is one of the compass directions.
func (d Direction) Valid() bool {
	for _, c := range Compass {
		if d == c {
			return true
		}
	}
	return false
}

// Opposite returns the reverse of d, or "" for an unknown direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	default:
		return ""
	}
}

// Offset returns the unit grid step for d with north as negative y.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case Northeast:
		return 1, -1
	case Northwest:
		return -1, -1
	case Southeast:
		return 1, 1
	case Southwest:
		return -1, 1
	default:
		return 0, 0
	}
}

// ParseDirection accepts a full direction name or its abbreviation, case-insensitive.
//
// Postcondition: Returns (d, true) with d.Valid(), or ("", false).
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := abbreviations[s]; ok {
		return d, true
	}
	d := Direction(s)
	if d.Valid() {
		return d, true
	}
	return "", false
}

// compassRank orders directions for stable iteration.
func compassRank(d Direction) int {
	for i, c := range Compass {
		if c == d {
			return i
		}
	}
	return len(Compass)
}
