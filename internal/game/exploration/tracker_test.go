package exploration_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/exploration"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// cross builds a hub room with four spokes, and a tail room behind the east spoke.
func cross(t *testing.T) *world.Dungeon {
	t.Helper()
	room := func(id string, exits map[world.Direction]string) *world.Room {
		return &world.Room{ID: id, Title: id, Light: world.Dark, Exits: exits}
	}
	d, err := world.New(world.Blueprint{
		Name:      "Cross",
		StartRoom: "hub",
		Rooms: []*world.Room{
			room("hub", map[world.Direction]string{world.North: "n", world.South: "s", world.East: "e", world.West: "w"}),
			room("n", map[world.Direction]string{world.South: "hub"}),
			room("s", map[world.Direction]string{world.North: "hub"}),
			room("e", map[world.Direction]string{world.West: "hub", world.East: "tail"}),
			room("w", map[world.Direction]string{world.East: "hub"}),
			room("tail", map[world.Direction]string{world.West: "e"}),
		},
	})
	require.NoError(t, err)
	return d
}

func TestNew_StartKnownNotExplored(t *testing.T) {
	tr := exploration.New(cross(t))
	assert.True(t, tr.IsKnown("hub"))
	assert.False(t, tr.IsExplored("hub"))
	assert.Empty(t, tr.ExploredSet())
	assert.Equal(t, []string{"hub"}, tr.KnownSet())
}

func TestMarkEntered_RevealsNeighbors(t *testing.T) {
	d := cross(t)
	tr := exploration.New(d)
	require.NoError(t, tr.MarkEntered("hub"))

	assert.Equal(t, []string{"hub"}, tr.ExploredSet())
	assert.Equal(t, []string{"e", "hub", "n", "s", "w"}, tr.KnownSet())
	assert.False(t, tr.IsKnown("tail"))

	st, err := d.State("n")
	require.NoError(t, err)
	assert.True(t, st.Known, "known flag is written through to the dungeon")
}

func TestMarkEntered_NeverDowngrades(t *testing.T) {
	tr := exploration.New(cross(t))
	require.NoError(t, tr.MarkEntered("hub"))
	require.NoError(t, tr.MarkEntered("e"))
	assert.True(t, tr.IsExplored("hub"))
	assert.True(t, tr.IsKnown("tail"))
	require.NoError(t, tr.MarkEntered("hub"))
	assert.True(t, tr.IsExplored("e"))
}

func TestMarkEntered_UnknownRoom(t *testing.T) {
	tr := exploration.New(cross(t))
	err := tr.MarkEntered("attic")
	assert.ErrorIs(t, err, world.ErrRoomNotFound)
	assert.Equal(t, []string{"hub"}, tr.KnownSet())
}

func TestTracker_SurvivesSnapshot(t *testing.T) {
	d := cross(t)
	tr := exploration.New(d)
	require.NoError(t, tr.MarkEntered("hub"))
	require.NoError(t, tr.MarkEntered("e"))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	back, err := world.Deserialize(data)
	require.NoError(t, err)

	restored := exploration.New(back)
	assert.Equal(t, tr.State(), restored.State())
}

func TestRestore(t *testing.T) {
	d := cross(t)
	tr := exploration.New(d)
	require.NoError(t, tr.Restore(exploration.State{Explored: []string{"e"}, Known: []string{"tail"}}))
	st, err := d.State("e")
	require.NoError(t, err)
	assert.True(t, st.Explored, "restore writes through to the dungeon overlay")
	assert.True(t, tr.IsExplored("e"))
	assert.True(t, tr.IsKnown("e"))
	assert.True(t, tr.IsKnown("tail"))

	err = tr.Restore(exploration.State{Known: []string{"attic"}})
	assert.ErrorIs(t, err, world.ErrRoomNotFound)
}

func TestPropertyEnteredRoomsRevealExits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 25).Draw(t, "n")
		rooms := make([]*world.Room, n)
		for i := range rooms {
			rooms[i] = &world.Room{ID: fmt.Sprintf("r%02d", i), Title: "R", Light: world.Dark, Exits: map[world.Direction]string{}}
		}
		for i := 1; i < n; i++ {
			rooms[i-1].Exits[world.South] = rooms[i].ID
			rooms[i].Exits[world.North] = rooms[i-1].ID
		}
		d, err := world.New(world.Blueprint{Name: "Shaft", StartRoom: "r00", Rooms: rooms})
		require.NoError(t, err)

		tr := exploration.New(d)
		visits := rapid.SliceOfN(rapid.IntRange(0, n-1), 1, 30).Draw(t, "visits")
		for _, v := range visits {
			id := rooms[v].ID
			require.NoError(t, tr.MarkEntered(id))
			assert.True(t, tr.IsExplored(id))
			for _, target := range rooms[v].Exits {
				assert.True(t, tr.IsKnown(target))
			}
		}
		for _, id := range tr.ExploredSet() {
			assert.True(t, tr.IsKnown(id))
		}
	})
}
