// Package exploration tracks which rooms of a dungeon a session has entered
// or seen.
//
// A room is unknown, known (adjacent to an entered room), or explored
// (entered). Entering a room never downgrades any state.
package exploration

import (
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// State is the serializable exploration state of a session.
type State struct {
	Explored []string `json:"explored"`
	Known    []string `json:"known"`
}

// Tracker owns the explored and known sets of one dungeon session.
//
// Invariant: known ⊇ explored; the start room is always known.
type Tracker struct {
	dungeon  *world.Dungeon
	explored mapset.Set[string]
	known    mapset.Set[string]
}

// New creates a Tracker for d, seeded from the dungeon's overlay so that a
// restored dungeon keeps its exploration. The start room is marked known.
//
// Precondition: d must be non-nil.
// Postcondition: IsKnown(d.StartRoomID()) is true.
func New(d *world.Dungeon) *Tracker {
	t := &Tracker{
		dungeon:  d,
		explored: mapset.New[string](),
		known:    mapset.New[string](),
	}
	for _, id := range d.RoomIDs() {
		st, _ := d.State(id)
		if st.Explored {
			t.explored.Put(id)
		}
		if st.Known || st.Explored {
			t.known.Put(id)
		}
	}
	t.markKnown(d.StartRoomID())
	return t
}

// MarkEntered records that the player entered room id: the room becomes
// explored and each of its exit targets becomes known.
//
// Postcondition: IsExplored(id) and every exit target IsKnown, or an error
// wrapping world.ErrRoomNotFound with no state changed.
func (t *Tracker) MarkEntered(id string) error {
	room, err := t.dungeon.Room(id)
	if err != nil {
		return fmt.Errorf("marking room entered: %w", err)
	}
	t.explored.Put(id)
	t.known.Put(id)
	if err := t.dungeon.MarkExplored(id); err != nil {
		return err
	}
	for _, dir := range room.Directions() {
		t.markKnown(room.Exits[dir])
	}
	return nil
}

func (t *Tracker) markKnown(id string) {
	if err := t.dungeon.MarkKnown(id); err != nil {
		return
	}
	t.known.Put(id)
}

// IsExplored reports whether the room has been entered.
func (t *Tracker) IsExplored(id string) bool { return t.explored.Has(id) }

// IsKnown reports whether the room has been seen or entered.
func (t *Tracker) IsKnown(id string) bool { return t.known.Has(id) }

// ExploredSet returns the explored room ids in sorted order.
func (t *Tracker) ExploredSet() []string { return sorted(t.explored) }

// KnownSet returns the known room ids, explored ones included, in sorted order.
func (t *Tracker) KnownSet() []string { return sorted(t.known) }

// State returns a snapshot of the tracker.
func (t *Tracker) State() State {
	return State{Explored: t.ExploredSet(), Known: t.KnownSet()}
}

// Restore merges a saved state into the tracker. Flags are only ever raised.
//
// Postcondition: Returns nil, or an error wrapping world.ErrRoomNotFound if
// any id is unknown, in which case nothing is changed.
func (t *Tracker) Restore(s State) error {
	for _, ids := range [][]string{s.Explored, s.Known} {
		for _, id := range ids {
			if _, err := t.dungeon.Room(id); err != nil {
				return fmt.Errorf("restoring exploration state: %w", err)
			}
		}
	}
	for _, id := range s.Known {
		t.markKnown(id)
	}
	for _, id := range s.Explored {
		t.explored.Put(id)
		t.known.Put(id)
		if err := t.dungeon.MarkExplored(id); err != nil {
			return fmt.Errorf("restoring exploration state: %w", err)
		}
	}
	return nil
}

func sorted(s mapset.Set[string]) []string {
	out := make([]string, 0, s.Size())
	s.Each(func(id string) { out = append(out, id) })
	sort.Strings(out)
	return out
}
