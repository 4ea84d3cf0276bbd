package world

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Snapshot is the persisted structural record of a dungeon, including the
// session overlay. It is the wire contract with storage and rendering clients.
type Snapshot struct {
	Name      string                  `json:"name"`
	StartRoom string                  `json:"start_room"`
	Generated bool                    `json:"generated"`
	Seed      *int64                  `json:"seed"`
	Theme     string                  `json:"theme"`
	Layout    string                  `json:"layout"`
	Rooms     map[string]RoomSnapshot `json:"rooms"`
}

// RoomSnapshot is one entry of the snapshot room table.
type RoomSnapshot struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Light             LightLevel           `json:"light_level"`
	Exits             map[Direction]string `json:"exits"`
	Items             []string             `json:"items"`
	Encounter         *Encounter           `json:"encounter"`
	EncounterResolved bool                 `json:"encounter_resolved"`
	SafeRest          bool                 `json:"safe_rest"`
	Explored          bool                 `json:"explored"`
	Known             bool                 `json:"known"`
}

// requiredFields must be present in every snapshot; presence is checked on
// the raw document before decoding.
var (
	requiredTopLevel  = []string{"name", "start_room", "rooms"}
	requiredRoomField = []string{"id", "title", "description", "light_level", "exits", "items", "encounter", "safe_rest", "explored"}
)

// Serialize produces a snapshot of the dungeon, with each room's items set
// to its remaining items.
func (d *Dungeon) Serialize() Snapshot {
	s := Snapshot{
		Name:      d.name,
		StartRoom: d.startRoom,
		Generated: d.generated,
		Seed:      d.seed,
		Theme:     d.theme,
		Layout:    d.layout,
		Rooms:     make(map[string]RoomSnapshot, len(d.rooms)),
	}
	for id, r := range d.rooms {
		st := d.state[id]
		exits := make(map[Direction]string, len(r.Exits))
		for dir, target := range r.Exits {
			exits[dir] = target
		}
		s.Rooms[id] = RoomSnapshot{
			ID:                r.ID,
			Title:             r.Title,
			Description:       r.Description,
			Light:             r.Light,
			Exits:             exits,
			Items:             append([]string{}, st.Items...),
			Encounter:         r.Encounter.Clone(),
			EncounterResolved: st.EncounterResolved,
			SafeRest:          r.SafeRest,
			Explored:          st.Explored,
			Known:             st.Known,
		}
	}
	return s
}

// MarshalJSON encodes the dungeon as its snapshot.
func (d *Dungeon) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Serialize())
}

// FromSnapshot rebuilds a Dungeon and re-runs validation.
//
// Postcondition: Returns a valid Dungeon with the overlay restored, or a
// *ValidationError, *DanglingExitError, or *DisconnectedGraphError.
func FromSnapshot(s Snapshot) (*Dungeon, error) {
	rooms := make([]*Room, 0, len(s.Rooms))
	for key, rs := range s.Rooms {
		if rs.ID != key {
			return nil, &ValidationError{Room: key, Field: "id", Reason: fmt.Sprintf("key %q does not match room id %q", key, rs.ID)}
		}
		exits := make(map[Direction]string, len(rs.Exits))
		for dir, target := range rs.Exits {
			exits[dir] = target
		}
		rooms = append(rooms, &Room{
			ID:          rs.ID,
			Title:       rs.Title,
			Description: rs.Description,
			Light:       rs.Light,
			Exits:       exits,
			Items:       append([]string{}, rs.Items...),
			Encounter:   rs.Encounter.Clone(),
			SafeRest:    rs.SafeRest,
		})
	}

	d, err := New(Blueprint{
		Name:      s.Name,
		StartRoom: s.StartRoom,
		Rooms:     rooms,
		Generated: s.Generated,
		Seed:      s.Seed,
		Theme:     s.Theme,
		Layout:    s.Layout,
	})
	if err != nil {
		return nil, err
	}
	for id, rs := range s.Rooms {
		st := d.state[id]
		st.Explored = rs.Explored
		st.Known = rs.Known || rs.Explored
		st.EncounterResolved = rs.EncounterResolved
	}
	return d, nil
}

// Deserialize decodes a JSON snapshot and rebuilds the dungeon.
//
// Postcondition: Returns a valid Dungeon or an error; a missing required
// field is a *ValidationError naming it.
func Deserialize(data []byte) (*Dungeon, error) {
	if err := checkRequired(data); err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding dungeon snapshot: %w", err)
	}
	return FromSnapshot(s)
}

func checkRequired(data []byte) error {
	if !gjson.ValidBytes(data) {
		return &ValidationError{Field: "snapshot", Reason: "not valid JSON"}
	}
	doc := gjson.ParseBytes(data)
	for _, f := range requiredTopLevel {
		if !doc.Get(f).Exists() {
			return &ValidationError{Field: f, Reason: "required field missing"}
		}
	}
	rooms := doc.Get("rooms")
	if !rooms.IsObject() {
		return &ValidationError{Field: "rooms", Reason: "must be an object keyed by room id"}
	}
	var missing error
	rooms.ForEach(func(key, room gjson.Result) bool {
		for _, f := range requiredRoomField {
			if !room.Get(f).Exists() {
				missing = &ValidationError{Room: key.String(), Field: f, Reason: "required field missing"}
				return false
			}
		}
		return true
	})
	return missing
}
