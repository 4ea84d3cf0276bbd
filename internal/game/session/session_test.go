package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

func corridor(t testing.TB) *world.Dungeon {
	t.Helper()
	d, err := world.New(world.Blueprint{
		Name:      "Corridor",
		StartRoom: "a",
		Rooms: []*world.Room{
			{ID: "a", Title: "A", Light: world.Dim, SafeRest: true, Exits: map[world.Direction]string{world.East: "b"}},
			{ID: "b", Title: "B", Light: world.Dark, Exits: map[world.Direction]string{world.West: "a", world.East: "c"}},
			{ID: "c", Title: "C", Light: world.Dark, Exits: map[world.Direction]string{world.West: "b"},
				Encounter: &world.Encounter{Kind: world.Trap, Trigger: "on_enter", TrapType: "pit", Damage: "2d6+1", Difficulty: 15}},
		},
	})
	require.NoError(t, err)
	return d
}

func TestSession_Begin(t *testing.T) {
	s := New(corridor(t))
	assert.NotEmpty(t, s.ID())
	room, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, "a", room.ID)
	assert.True(t, s.Tracker().IsExplored("a"))
	assert.True(t, s.Tracker().IsKnown("b"))
	assert.False(t, s.Tracker().IsKnown("c"))
}

func TestSession_Move(t *testing.T) {
	s := New(corridor(t))
	_, err := s.Begin()
	require.NoError(t, err)

	res, err := s.Move(world.East)
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, "b", res.Room.ID)
	assert.Equal(t, "b", s.Current().ID)
	assert.True(t, s.Tracker().IsExplored("b"))
	assert.True(t, s.Tracker().IsKnown("c"))
}

func TestSession_MoveNoExit(t *testing.T) {
	s := New(corridor(t))
	_, err := s.Begin()
	require.NoError(t, err)

	res, err := s.Move(world.North)
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, "a", res.Room.ID)
	assert.Equal(t, "a", s.Current().ID)
}

func TestSession_SnapshotRestore(t *testing.T) {
	s := New(corridor(t))
	_, err := s.Begin()
	require.NoError(t, err)
	_, err = s.Move(world.East)
	require.NoError(t, err)

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	var st State
	require.NoError(t, json.Unmarshal(data, &st))

	restored, err := Restore(st)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, "b", restored.Current().ID)
	assert.Equal(t, []string{"a", "b"}, restored.Tracker().ExploredSet())
	assert.Equal(t, []string{"a", "b", "c"}, restored.Tracker().KnownSet())
}

func TestRestore_UnknownCurrentRoom(t *testing.T) {
	st := New(corridor(t)).Snapshot()
	st.Current = "nowhere"
	_, err := Restore(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, world.ErrRoomNotFound))
}

func TestRestore_UnknownExploredRoom(t *testing.T) {
	st := New(corridor(t)).Snapshot()
	st.Exploration.Explored = []string{"nowhere"}
	_, err := Restore(st)
	assert.ErrorIs(t, err, world.ErrRoomNotFound)
}

func TestRestore_EmptyIDsDefault(t *testing.T) {
	st := New(corridor(t)).Snapshot()
	st.ID = ""
	st.Current = ""
	s, err := Restore(st)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "a", s.Current().ID)
}

func TestSession_SpringTrap(t *testing.T) {
	s := New(corridor(t))
	_, err := s.Begin()
	require.NoError(t, err)

	_, fired, err := s.SpringTrap(dice.NewSeededSource(1))
	require.NoError(t, err)
	assert.False(t, fired, "start room has no trap")

	for _, dir := range []world.Direction{world.East, world.East} {
		_, err := s.Move(dir)
		require.NoError(t, err)
	}
	roll, fired, err := s.SpringTrap(dice.NewSeededSource(1))
	require.NoError(t, err)
	require.True(t, fired)
	assert.Len(t, roll.Dice, 2)
	assert.GreaterOrEqual(t, roll.Total(), 3)
	assert.LessOrEqual(t, roll.Total(), 13)

	_, fired, err = s.SpringTrap(dice.NewSeededSource(1))
	require.NoError(t, err)
	assert.False(t, fired, "a sprung trap is resolved")
	assert.True(t, s.Snapshot().Dungeon.Rooms["c"].EncounterResolved)
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager()
	s, err := m.Start(corridor(t))
	require.NoError(t, err)
	assert.True(t, s.Tracker().IsExplored("a"))
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Error(t, m.Add(s))

	require.NoError(t, m.Remove(s.ID()))
	assert.Error(t, m.Remove(s.ID()))
	_, ok = m.Get(s.ID())
	assert.False(t, ok)
	assert.Empty(t, m.IDs())
}

func TestManager_ConcurrentStart(t *testing.T) {
	m := NewManager()
	dungeons := make([]*world.Dungeon, 50)
	for i := range dungeons {
		dungeons[i] = corridor(t)
	}
	var wg sync.WaitGroup
	for _, d := range dungeons {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Start(d)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Count())
	assert.Len(t, m.IDs(), 50)
}

func TestPropertyWalkNeverLeavesGraph(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New(corridor(t))
		_, err := s.Begin()
		require.NoError(rt, err)
		steps := rapid.SliceOf(rapid.SampledFrom(world.Cardinal)).Draw(rt, "steps")
		for _, dir := range steps {
			before := s.Current().ID
			res, err := s.Move(dir)
			require.NoError(rt, err)
			if !res.Moved {
				assert.Equal(rt, before, res.Room.ID)
				continue
			}
			assert.True(rt, s.Tracker().IsExplored(res.Room.ID))
		}
		for _, id := range s.Tracker().ExploredSet() {
			assert.True(rt, s.Tracker().IsKnown(id))
		}
	})
}
