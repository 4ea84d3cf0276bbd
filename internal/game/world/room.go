package world

import "sort"

// LightLevel is the ambient light in a room.
type LightLevel string

// Light levels.
const (
	Bright LightLevel = "bright"
	Dim    LightLevel = "dim"
	Dark   LightLevel = "dark"
)

// Valid reports whether l is a known light level.
func (l LightLevel) Valid() bool {
	return l == Bright || l == Dim || l == Dark
}

// EncounterKind tags an encounter slot.
type EncounterKind string

// Encounter kinds.
const (
	Combat   EncounterKind = "combat"
	Trap     EncounterKind = "trap"
	Treasure EncounterKind = "treasure"
)

// Encounter triggers.
const (
	TriggerOnEnter  = "on_enter"
	TriggerOnSearch = "on_search"
)

// MonsterGroup is one monster type in a combat encounter.
type MonsterGroup struct {
	Monster    string  `json:"monster"`
	Count      int     `json:"count"`
	Multiplier float64 `json:"multiplier"`
	Challenge  float64 `json:"challenge"`
}

// Encounter is the descriptor of a room's encounter slot. Only the fields
// belonging to Kind are populated.
type Encounter struct {
	Kind    EncounterKind `json:"type"`
	Trigger string        `json:"trigger"`

	// combat
	Monsters  []MonsterGroup `json:"monsters,omitempty"`
	Challenge float64        `json:"challenge,omitempty"`
	Ceiling   float64        `json:"ceiling,omitempty"`
	Boss      bool           `json:"boss,omitempty"`

	// trap
	TrapType   string `json:"trap_type,omitempty"`
	Damage     string `json:"damage,omitempty"`
	Difficulty int    `json:"detect_difficulty,omitempty"`

	// treasure
	Items []string `json:"items,omitempty"`
	Gold  int      `json:"gold,omitempty"`
	Gems  int      `json:"gems,omitempty"`
}

// Hostile reports whether the encounter is a combat or a trap.
func (e *Encounter) Hostile() bool {
	return e != nil && (e.Kind == Combat || e.Kind == Trap)
}

// Clone returns a deep copy of e, or nil for a nil encounter.
func (e *Encounter) Clone() *Encounter {
	if e == nil {
		return nil
	}
	c := *e
	if e.Monsters != nil {
		c.Monsters = append([]MonsterGroup(nil), e.Monsters...)
	}
	if e.Items != nil {
		c.Items = append([]string(nil), e.Items...)
	}
	return &c
}

// MonsterCount returns the total number of monsters in a combat encounter.
func (e *Encounter) MonsterCount() int {
	n := 0
	for _, g := range e.Monsters {
		n += g.Count
	}
	return n
}

// Room is the static record of one location. It is not mutated after the
// dungeon that owns it is built; per-session changes live in RoomState.
type Room struct {
	ID          string
	Title       string
	Description string
	Light       LightLevel
	Exits       map[Direction]string
	Items       []string
	Encounter   *Encounter
	SafeRest    bool
}

// Exit returns the target room id in direction dir.
func (r *Room) Exit(dir Direction) (string, bool) {
	id, ok := r.Exits[dir]
	return id, ok
}

// Directions returns the room's exit directions in compass order.
func (r *Room) Directions() []Direction {
	dirs := make([]Direction, 0, len(r.Exits))
	for d := range r.Exits {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return compassRank(dirs[i]) < compassRank(dirs[j]) })
	return dirs
}

// RoomState is the mutable session overlay for one room.
type RoomState struct {
	Explored          bool
	Known             bool
	Items             []string
	EncounterResolved bool
}
