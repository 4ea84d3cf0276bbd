package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/storage/scenario"
)

// ErrScenarioNotFound is returned when a scenario lookup yields no results.
// It is scenario.ErrNotFound so callers can test either.
var ErrScenarioNotFound = scenario.ErrNotFound

// ScenarioRepository stores scenarios with the dungeon snapshot in a JSONB column.
type ScenarioRepository struct {
	db *pgxpool.Pool
}

var _ scenario.Store = (*ScenarioRepository)(nil)

// NewScenarioRepository creates a ScenarioRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the scenarios
// table migrated.
func NewScenarioRepository(db *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// Save inserts s or replaces the row with the same id.
//
// Precondition: s.ID must be non-empty.
// Postcondition: The stored row reflects s.
func (r *ScenarioRepository) Save(ctx context.Context, s scenario.Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("saving scenario %q: empty id", s.Name)
	}
	doc, err := json.Marshal(s.Dungeon)
	if err != nil {
		return fmt.Errorf("encoding scenario %s: %w", s.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO scenarios (id, name, description, difficulty, num_rooms, start_room, dungeon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty,
			num_rooms = EXCLUDED.num_rooms,
			start_room = EXCLUDED.start_room,
			dungeon = EXCLUDED.dungeon,
			created_at = EXCLUDED.created_at`,
		s.ID, s.Name, s.Description, s.Difficulty, s.Rooms, s.StartRoom, doc, s.Created,
	)
	if err != nil {
		return fmt.Errorf("saving scenario %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the scenario with id.
//
// Postcondition: Returns the scenario, or an error wrapping ErrScenarioNotFound.
func (r *ScenarioRepository) Load(ctx context.Context, id string) (scenario.Scenario, error) {
	var (
		s   scenario.Scenario
		doc []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, difficulty, num_rooms, start_room, dungeon, created_at
		FROM scenarios WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Description, &s.Difficulty, &s.Rooms, &s.StartRoom, &doc, &s.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return scenario.Scenario{}, fmt.Errorf("scenario %s: %w", id, ErrScenarioNotFound)
	}
	if err != nil {
		return scenario.Scenario{}, fmt.Errorf("loading scenario %s: %w", id, err)
	}
	if err := json.Unmarshal(doc, &s.Dungeon); err != nil {
		return scenario.Scenario{}, fmt.Errorf("decoding scenario %s: %w", id, err)
	}
	s.Created = s.Created.UTC()
	return s, nil
}

// List returns every scenario summary ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ScenarioRepository) List(ctx context.Context) ([]scenario.Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, difficulty, num_rooms, created_at
		FROM scenarios ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	out := []scenario.Summary{}
	for rows.Next() {
		var s scenario.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Difficulty, &s.Rooms, &s.Created); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		s.Created = s.Created.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return out, nil
}

// Delete removes the scenario with id.
//
// Postcondition: Returns nil, or an error wrapping ErrScenarioNotFound.
func (r *ScenarioRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting scenario %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scenario %s: %w", id, ErrScenarioNotFound)
	}
	return nil
}
