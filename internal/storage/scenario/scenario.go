// Package scenario stores generated dungeons for replay.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// ErrNotFound is returned when no scenario has the requested id.
var ErrNotFound = errors.New("scenario not found")

// DefaultDifficulty labels scenarios saved without one.
const DefaultDifficulty = "medium"

// Scenario is a saved dungeon plus the catalog data shown in listings.
type Scenario struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Difficulty  string         `json:"difficulty"`
	Created     time.Time      `json:"created"`
	Rooms       int            `json:"num_rooms"`
	StartRoom   string         `json:"start_room"`
	Dungeon     world.Snapshot `json:"dungeon_data"`
}

// Summary is the listing view of a scenario.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Rooms       int       `json:"num_rooms"`
	Created     time.Time `json:"created"`
}

// Store persists scenarios.
type Store interface {
	// Save inserts or replaces the scenario with s.ID.
	Save(ctx context.Context, s Scenario) error
	// Load returns the scenario with id, or an error wrapping ErrNotFound.
	Load(ctx context.Context, id string) (Scenario, error)
	// List returns summaries sorted by name.
	List(ctx context.Context) ([]Summary, error)
	// Delete removes the scenario with id, or returns an error wrapping ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// New captures d as a scenario with a fresh short id.
//
// Precondition: d must be non-nil.
// Postcondition: Name defaults to the dungeon name and Difficulty to
// DefaultDifficulty when empty.
func New(d *world.Dungeon, name, description, difficulty string) Scenario {
	if name == "" {
		name = d.Name()
	}
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	return Scenario{
		ID:          NewID(),
		Name:        name,
		Description: description,
		Difficulty:  difficulty,
		Created:     time.Now().UTC(),
		Rooms:       d.RoomCount(),
		StartRoom:   d.StartRoomID(),
		Dungeon:     d.Serialize(),
	}
}

// NewID returns the first eight characters of a random uuid.
func NewID() string {
	return uuid.NewString()[:8]
}

// Summary returns the listing view of s.
func (s Scenario) Summary() Summary {
	return Summary{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Difficulty:  s.Difficulty,
		Rooms:       s.Rooms,
		Created:     s.Created,
	}
}

// Build recreates the playable dungeon, overlay included.
func (s Scenario) Build() (*world.Dungeon, error) {
	d, err := world.FromSnapshot(s.Dungeon)
	if err != nil {
		return nil, fmt.Errorf("building scenario %s: %w", s.ID, err)
	}
	return d, nil
}
