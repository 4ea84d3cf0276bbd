package world

import (
	"fmt"
	"sort"
)

// Blueprint is the input to New: the static content of a dungeon.
type Blueprint struct {
	Name      string
	StartRoom string
	Rooms     []*Room
	Generated bool
	Seed      *int64
	Theme     string
	Layout    string
}

// Dungeon is a validated room graph plus the per-room session overlay.
//
// Invariant: every exit resolves, and every room is reachable from StartRoom.
type Dungeon struct {
	name      string
	startRoom string
	rooms     map[string]*Room
	state     map[string]*RoomState
	generated bool
	seed      *int64
	theme     string
	layout    string
}

// New builds a Dungeon from b and runs Validate.
//
// Postcondition: Returns a valid Dungeon or a non-nil error; duplicate room
// ids are a *ValidationError.
func New(b Blueprint) (*Dungeon, error) {
	d := &Dungeon{
		name:      b.Name,
		startRoom: b.StartRoom,
		rooms:     make(map[string]*Room, len(b.Rooms)),
		state:     make(map[string]*RoomState, len(b.Rooms)),
		generated: b.Generated,
		seed:      b.Seed,
		theme:     b.Theme,
		layout:    b.Layout,
	}
	for _, r := range b.Rooms {
		if _, dup := d.rooms[r.ID]; dup {
			return nil, &ValidationError{Room: r.ID, Field: "id", Reason: "duplicate room id"}
		}
		if r.Exits == nil {
			r.Exits = make(map[Direction]string)
		}
		if r.Items == nil {
			r.Items = []string{}
		}
		d.rooms[r.ID] = r
		d.state[r.ID] = &RoomState{Items: append([]string{}, r.Items...)}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the dungeon's display name.
func (d *Dungeon) Name() string { return d.name }

// StartRoomID returns the id of the start room.
func (d *Dungeon) StartRoomID() string { return d.startRoom }

// StartRoom returns the start room.
func (d *Dungeon) StartRoom() *Room { return d.rooms[d.startRoom] }

// Generated reports whether the dungeon came from the generator.
func (d *Dungeon) Generated() bool { return d.generated }

// Seed returns the generation seed, or nil.
func (d *Dungeon) Seed() *int64 { return d.seed }

// Theme returns the generation theme id, or "" for hand-authored dungeons.
func (d *Dungeon) Theme() string { return d.theme }

// Layout returns the generation layout family, or "".
func (d *Dungeon) Layout() string { return d.layout }

// RoomCount returns the number of rooms.
func (d *Dungeon) RoomCount() int { return len(d.rooms) }

// Room returns the room with the given id.
//
// Postcondition: Returns the room, or an error wrapping ErrRoomNotFound.
func (d *Dungeon) Room(id string) (*Room, error) {
	r, ok := d.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}
	return r, nil
}

// Move resolves movement from a room in a direction.
//
// Postcondition: Returns the destination room; an error wrapping ErrNoExit
// when there is no exit that way (an ordinary outcome), or wrapping
// ErrRoomNotFound when fromID is unknown.
func (d *Dungeon) Move(fromID string, dir Direction) (*Room, error) {
	from, err := d.Room(fromID)
	if err != nil {
		return nil, err
	}
	target, ok := from.Exit(dir)
	if !ok {
		return nil, fmt.Errorf("no exit %s from %q: %w", dir, fromID, ErrNoExit)
	}
	return d.Room(target)
}

// Rooms returns all rooms sorted by id.
func (d *Dungeon) Rooms() []*Room {
	out := make([]*Room, 0, len(d.rooms))
	for _, id := range d.RoomIDs() {
		out = append(out, d.rooms[id])
	}
	return out
}

// RoomIDs returns all room ids in sorted order.
func (d *Dungeon) RoomIDs() []string {
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Neighbors returns the exit targets of a room in compass order.
func (d *Dungeon) Neighbors(id string) []string {
	r, ok := d.rooms[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.Exits))
	for _, dir := range r.Directions() {
		out = append(out, r.Exits[dir])
	}
	return out
}

// Distances returns the exit-count distance from id to every reachable room.
func (d *Dungeon) Distances(id string) map[string]int {
	return bfs(d.rooms, id)
}

// State returns a copy of the mutable overlay for a room.
func (d *Dungeon) State(id string) (RoomState, error) {
	s, ok := d.state[id]
	if !ok {
		return RoomState{}, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}
	cp := *s
	cp.Items = append([]string{}, s.Items...)
	return cp, nil
}

// MarkExplored flags a room as explored. Called by the exploration tracker.
func (d *Dungeon) MarkExplored(id string) error {
	s, ok := d.state[id]
	if !ok {
		return fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}
	s.Explored = true
	s.Known = true
	return nil
}

// MarkKnown flags a room as known. Called by the exploration tracker.
func (d *Dungeon) MarkKnown(id string) error {
	s, ok := d.state[id]
	if !ok {
		return fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}
	s.Known = true
	return nil
}

// ActiveEncounter returns the room's encounter if it has not been resolved.
func (d *Dungeon) ActiveEncounter(id string) (*Encounter, bool) {
	r, ok := d.rooms[id]
	if !ok || r.Encounter == nil || d.state[id].EncounterResolved {
		return nil, false
	}
	return r.Encounter, true
}

// ResolveEncounter marks a room's encounter as consumed.
//
// Postcondition: Returns true if an unresolved encounter was consumed.
func (d *Dungeon) ResolveEncounter(id string) bool {
	if _, ok := d.ActiveEncounter(id); !ok {
		return false
	}
	d.state[id].EncounterResolved = true
	return true
}

// TakeItem removes one instance of item from a room's remaining items.
//
// Postcondition: Returns true if the item was present.
func (d *Dungeon) TakeItem(id, item string) bool {
	s, ok := d.state[id]
	if !ok {
		return false
	}
	for i, it := range s.Items {
		if it == item {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return true
		}
	}
	return false
}

// bfs returns distances from start over exits; unreachable rooms are absent.
func bfs(rooms map[string]*Room, start string) map[string]int {
	dist := make(map[string]int, len(rooms))
	if _, ok := rooms[start]; !ok {
		return dist
	}
	dist[start] = 0
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		r := rooms[id]
		for _, dir := range r.Directions() {
			next := r.Exits[dir]
			if _, seen := dist[next]; seen {
				continue
			}
			if _, exists := rooms[next]; !exists {
				continue
			}
			dist[next] = dist[id] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
