package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// ErrRoomNotFound is returned when a room id does not exist in the dungeon.
var ErrRoomNotFound = errors.New("room not found")

// ErrNoExit is returned by Move when the room has no exit in the requested
// direction. It is an ordinary gameplay outcome.
var ErrNoExit = errors.New("no exit")

// DanglingExitError reports an exit whose target room does not exist.
type DanglingExitError struct {
	Room      string
	Direction Direction
	Target    string
}

func (e *DanglingExitError) Error() string {
	return fmt.Sprintf("room %q: exit %s targets unknown room %q", e.Room, e.Direction, e.Target)
}

// DisconnectedGraphError reports rooms unreachable from the start room.
type DisconnectedGraphError struct {
	Start       string
	Unreachable []string
}

func (e *DisconnectedGraphError) Error() string {
	return fmt.Sprintf("%d room(s) unreachable from start room %q: %s",
		len(e.Unreachable), e.Start, strings.Join(e.Unreachable, ", "))
}

// ValidationError reports a structurally invalid field.
type ValidationError struct {
	Room   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Room == "" {
		return fmt.Sprintf("dungeon: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("room %q: %s: %s", e.Room, e.Field, e.Reason)
}

// Validate checks dungeon invariants: the start room exists, every room has
// an id matching its key, a title, and a valid light level, every exit uses a
// compass direction and resolves, encounter payloads match their kind, and
// every room is reachable from the start room.
//
// Postcondition: Returns nil if valid, or the first violation found in room-id order.
func (d *Dungeon) Validate() error {
	if d.name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(d.rooms) == 0 {
		return &ValidationError{Field: "rooms", Reason: "must contain at least one room"}
	}
	if d.startRoom == "" {
		return &ValidationError{Field: "start_room", Reason: "must not be empty"}
	}
	if _, ok := d.rooms[d.startRoom]; !ok {
		return &ValidationError{Field: "start_room", Reason: fmt.Sprintf("%q not found in rooms", d.startRoom)}
	}

	for _, id := range d.RoomIDs() {
		r := d.rooms[id]
		if r.ID == "" {
			return &ValidationError{Room: id, Field: "id", Reason: "must not be empty"}
		}
		if r.Title == "" {
			return &ValidationError{Room: id, Field: "title", Reason: "must not be empty"}
		}
		if !r.Light.Valid() {
			return &ValidationError{Room: id, Field: "light_level", Reason: fmt.Sprintf("unknown light level %q", r.Light)}
		}
		for _, dir := range r.Directions() {
			if !dir.Valid() {
				return &ValidationError{Room: id, Field: "exits", Reason: fmt.Sprintf("unknown direction %q", dir)}
			}
			target := r.Exits[dir]
			if _, ok := d.rooms[target]; !ok {
				return &DanglingExitError{Room: id, Direction: dir, Target: target}
			}
		}
		if err := validateEncounter(id, r.Encounter); err != nil {
			return err
		}
	}

	return CheckConnected(d.rooms, d.startRoom)
}

// CheckConnected returns a *DisconnectedGraphError if any room is unreachable
// from start.
func CheckConnected(rooms map[string]*Room, start string) error {
	dist := bfs(rooms, start)
	if len(dist) == len(rooms) {
		return nil
	}
	var missing []string
	for id := range rooms {
		if _, ok := dist[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return &DisconnectedGraphError{Start: start, Unreachable: missing}
}

func validateEncounter(room string, e *Encounter) error {
	if e == nil {
		return nil
	}
	bad := func(reason string) error {
		return &ValidationError{Room: room, Field: "encounter", Reason: reason}
	}
	switch e.Kind {
	case Combat:
		if len(e.Monsters) == 0 {
			return bad("combat encounter must list monsters")
		}
		for _, g := range e.Monsters {
			if g.Monster == "" || g.Count < 1 {
				return bad(fmt.Sprintf("monster group %q must have a type and count >= 1", g.Monster))
			}
			if g.Multiplier <= 0 {
				return bad(fmt.Sprintf("monster group %q multiplier must be > 0", g.Monster))
			}
		}
	case Trap:
		if e.TrapType == "" {
			return bad("trap encounter must have a trap_type")
		}
		if _, err := dice.Parse(e.Damage); err != nil {
			return bad(err.Error())
		}
		if e.Difficulty < 1 {
			return bad("trap detect_difficulty must be >= 1")
		}
	case Treasure:
		if len(e.Items) == 0 && e.Gold <= 0 && e.Gems <= 0 {
			return bad("treasure encounter must carry items, gold, or gems")
		}
	default:
		return bad(fmt.Sprintf("unknown encounter type %q", e.Kind))
	}
	return nil
}
