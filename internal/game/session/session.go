// Package session owns a single play-through of a dungeon: the current
// location, the dungeon overlay, and exploration.
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/exploration"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// MoveResult is the outcome of a movement attempt.
type MoveResult struct {
	// Room is the room the player occupies after the attempt.
	Room *world.Room
	// Moved is false when there was no exit in the requested direction.
	Moved bool
}

// State is the persisted form of a session.
type State struct {
	ID          string            `json:"id"`
	Current     string            `json:"current"`
	Dungeon     world.Snapshot    `json:"dungeon"`
	Exploration exploration.State `json:"exploration"`
}

// Session is one player's walk through one dungeon. It is not safe for
// concurrent use; Manager serializes access across sessions.
type Session struct {
	id      string
	dungeon *world.Dungeon
	tracker *exploration.Tracker
	current string
}

// New starts a session on d positioned at the start room.
//
// Precondition: d must be non-nil.
// Postcondition: Returns a session with a fresh uuid; Begin has not run.
func New(d *world.Dungeon) *Session {
	return &Session{
		id:      uuid.NewString(),
		dungeon: d,
		tracker: exploration.New(d),
		current: d.StartRoomID(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Dungeon returns the dungeon being played.
func (s *Session) Dungeon() *world.Dungeon { return s.dungeon }

// Tracker returns the session's exploration tracker.
func (s *Session) Tracker() *exploration.Tracker { return s.tracker }

// Current returns the room the player occupies.
func (s *Session) Current() *world.Room {
	r, _ := s.dungeon.Room(s.current)
	return r
}

// Begin marks the current room entered and returns it.
func (s *Session) Begin() (*world.Room, error) {
	if err := s.tracker.MarkEntered(s.current); err != nil {
		return nil, err
	}
	return s.Current(), nil
}

// Move attempts to leave the current room in direction dir.
//
// Postcondition: On success the destination is explored and current. When
// there is no exit the result has Moved=false, the current room, and a nil
// error.
func (s *Session) Move(dir world.Direction) (MoveResult, error) {
	next, err := s.dungeon.Move(s.current, dir)
	if errors.Is(err, world.ErrNoExit) {
		return MoveResult{Room: s.Current()}, nil
	}
	if err != nil {
		return MoveResult{}, err
	}
	if err := s.tracker.MarkEntered(next.ID); err != nil {
		return MoveResult{}, err
	}
	s.current = next.ID
	return MoveResult{Room: next, Moved: true}, nil
}

// SpringTrap triggers the active trap in the current room, rolling its
// damage with src and resolving the encounter.
//
// Postcondition: Returns (roll, true) when a trap fired; (zero, false) when
// the room has no unresolved trap.
func (s *Session) SpringTrap(src dice.Source) (dice.RollResult, bool, error) {
	enc, ok := s.dungeon.ActiveEncounter(s.current)
	if !ok || enc.Kind != world.Trap {
		return dice.RollResult{}, false, nil
	}
	roll, err := dice.RollExpr(enc.Damage, src)
	if err != nil {
		return dice.RollResult{}, false, fmt.Errorf("trap in %q: %w", s.current, err)
	}
	s.dungeon.ResolveEncounter(s.current)
	return roll, true, nil
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() State {
	return State{
		ID:          s.id,
		Current:     s.current,
		Dungeon:     s.dungeon.Serialize(),
		Exploration: s.tracker.State(),
	}
}

// Restore rebuilds a session from a saved state.
//
// Postcondition: Returns a session equivalent to the one snapshotted, or an
// error when the dungeon is invalid or the state names an unknown room.
func Restore(st State) (*Session, error) {
	d, err := world.FromSnapshot(st.Dungeon)
	if err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", st.ID, err)
	}
	current := st.Current
	if current == "" {
		current = d.StartRoomID()
	}
	if _, err := d.Room(current); err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", st.ID, err)
	}
	t := exploration.New(d)
	if err := t.Restore(st.Exploration); err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", st.ID, err)
	}
	id := st.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{id: id, dungeon: d, tracker: t, current: current}, nil
}
