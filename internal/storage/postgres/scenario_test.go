package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
	"github.com/cory-johannsen/dungeon/internal/storage/scenario"
	"github.com/cory-johannsen/dungeon/internal/testutil"
)

func makeScenario(t *testing.T, name string) scenario.Scenario {
	t.Helper()
	d, err := world.New(world.Blueprint{
		Name:      name,
		StartRoom: "a",
		Rooms: []*world.Room{
			{ID: "a", Title: "Gate", Light: world.Dim, SafeRest: true, Exits: map[world.Direction]string{world.East: "b"}},
			{ID: "b", Title: "Vault", Light: world.Dark, Exits: map[world.Direction]string{world.West: "a"},
				Encounter: &world.Encounter{Kind: world.Treasure, Gold: 12}},
		},
	})
	require.NoError(t, err)
	return scenario.New(d, "", "test scenario", "hard")
}

func TestScenarioRepository(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()
	require.NoError(t, pc.Pool.Health(ctx, postgres.DefaultHealthTimeout))
	repo := pc.Pool.Scenarios()

	t.Run("save and load", func(t *testing.T) {
		s := makeScenario(t, "Vault")
		require.NoError(t, repo.Save(ctx, s))

		got, err := repo.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.Name, got.Name)
		assert.Equal(t, "hard", got.Difficulty)
		assert.Equal(t, 2, got.Rooms)
		assert.Equal(t, "a", got.StartRoom)

		want, err := json.Marshal(s.Dungeon)
		require.NoError(t, err)
		have, err := json.Marshal(got.Dungeon)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(have))

		_, err = got.Build()
		assert.NoError(t, err)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := makeScenario(t, "Crypt")
		require.NoError(t, repo.Save(ctx, s))
		s.Description = "updated"
		require.NoError(t, repo.Save(ctx, s))
		got, err := repo.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Description)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := repo.Load(ctx, "missing0")
		assert.ErrorIs(t, err, postgres.ErrScenarioNotFound)
		assert.ErrorIs(t, err, scenario.ErrNotFound)
	})

	t.Run("health fails after close", func(t *testing.T) {
		pool, err := postgres.NewPool(ctx, pc.Config)
		require.NoError(t, err)
		pool.Close()
		assert.Error(t, pool.Health(ctx, time.Second))
	})

	t.Run("list and delete", func(t *testing.T) {
		s := makeScenario(t, "Aardvark Den")
		require.NoError(t, repo.Save(ctx, s))
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, "Aardvark Den", list[0].Name)

		require.NoError(t, repo.Delete(ctx, s.ID))
		assert.ErrorIs(t, repo.Delete(ctx, s.ID), postgres.ErrScenarioNotFound)
	})
}
