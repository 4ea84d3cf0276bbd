package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

func placeLinear(t *testing.T, cfg Config, seed int64) (*Graph, *Placement) {
	t.Helper()
	cfg.Layout = Linear
	src := dice.NewSeededSource(seed)
	g, err := BuildGraph(context.Background(), cfg, src)
	require.NoError(t, err)
	p, err := Place(context.Background(), g, cfg, theme.Default(), src)
	require.NoError(t, err)
	return g, p
}

func TestPlace_StartRoom(t *testing.T) {
	cfg := baseConfig()
	cfg.Combat, cfg.Trap, cfg.Treasure = 1, 0, 0
	cfg.StartingItems = []string{"torch", "rations"}
	g, _ := placeLinear(t, cfg, 4)

	start := g.Rooms[0]
	assert.True(t, start.SafeRest)
	assert.Nil(t, start.Encounter)
	assert.Equal(t, world.Dim, start.Light)
	assert.Equal(t, []string{"torch", "rations"}, start.Items)
	for _, r := range g.Rooms[1:] {
		assert.Equal(t, world.Dark, r.Light)
	}
}

func TestPlace_SafeRoomFarthest(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 8
	cfg.Combat, cfg.Trap, cfg.Treasure = 0, 0, 0
	g, p := placeLinear(t, cfg, 2)

	assert.Equal(t, "room_008", p.SafeRoom)
	assert.Nil(t, p.Relaxation)
	assert.True(t, g.Rooms[7].SafeRest)
	assert.Equal(t, 7, p.Empty)
}

func TestPlace_SafeRoomSkipsBoss(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 8
	cfg.Combat, cfg.Trap, cfg.Treasure = 0, 0, 0
	cfg.IncludeBoss = true
	g, p := placeLinear(t, cfg, 2)

	assert.Equal(t, "room_008", p.Boss)
	assert.Equal(t, "room_007", p.SafeRoom)
	assert.False(t, g.Rooms[7].SafeRest)
	require.Len(t, p.Combat, 1)
	assert.True(t, p.Combat[0].Boss)
	assert.Contains(t, g.Rooms[7].Items, bossLootItem)
}

func TestPlace_SafeRoomRelaxation(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 6
	cfg.Combat, cfg.Trap, cfg.Treasure = 1, 0, 0
	g, p := placeLinear(t, cfg, 7)

	require.NotNil(t, p.Relaxation)
	assert.Equal(t, "room_002", p.Relaxation.Room)
	assert.Equal(t, string(world.Combat), p.Relaxation.Cleared)
	assert.Equal(t, "room_002", p.SafeRoom)
	assert.True(t, g.Rooms[1].SafeRest)
	assert.Nil(t, g.Rooms[1].Encounter)
	assert.Len(t, p.Combat, 4)
	for _, s := range p.Combat {
		assert.NotEqual(t, "room_002", s.Room)
	}
}

// star builds room_001 joined to room_002 (north) and room_003 (south), with
// room_004..room_006 chained east of room_002.
func star(t *testing.T) *Graph {
	t.Helper()
	g := &Graph{Layout: Branching, capacity: len(world.Cardinal), index: map[string]int{}}
	for range 6 {
		g.addRoom()
	}
	g.connect(0, 1, world.North)
	g.connect(0, 2, world.South)
	g.connect(1, 3, world.East)
	g.connect(3, 4, world.East)
	g.connect(4, 5, world.East)
	return g
}

func TestPlaceSafeRoom_RelaxationPrefersNonHostile(t *testing.T) {
	g := star(t)
	p := &Placement{}
	for _, i := range []int{1, 3, 4, 5} {
		g.Rooms[i].Encounter = &world.Encounter{Kind: world.Combat}
		p.Combat = append(p.Combat, CombatSlot{Room: g.Rooms[i].ID})
	}
	p.placeSafeRoom(g, g.Distances(), -1)

	assert.Equal(t, "room_003", p.SafeRoom)
	require.NotNil(t, p.Relaxation)
	assert.Equal(t, "room_003", p.Relaxation.Room)
	assert.Empty(t, p.Relaxation.Cleared)
	assert.NotNil(t, g.Rooms[1].Encounter, "hostile room keeps its encounter")
	assert.Len(t, p.Combat, 4)
	assert.True(t, g.Rooms[2].SafeRest)
}

func TestPlaceSafeRoom_RelaxationClearsWhenAllHostile(t *testing.T) {
	g := star(t)
	p := &Placement{}
	for i := 1; i < len(g.Rooms); i++ {
		g.Rooms[i].Encounter = &world.Encounter{Kind: world.Combat}
		p.Combat = append(p.Combat, CombatSlot{Room: g.Rooms[i].ID})
	}
	p.placeSafeRoom(g, g.Distances(), -1)

	assert.Equal(t, "room_002", p.SafeRoom)
	require.NotNil(t, p.Relaxation)
	assert.Equal(t, string(world.Combat), p.Relaxation.Cleared)
	assert.Nil(t, g.Rooms[1].Encounter)
	assert.Len(t, p.Combat, 4)
}

func TestPlace_NoSafeRoomBelowMinimum(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = MinRoomsForSafeRoom - 1
	cfg.Combat, cfg.Trap, cfg.Treasure = 0, 0, 0
	g, p := placeLinear(t, cfg, 1)
	assert.Empty(t, p.SafeRoom)
	for _, r := range g.Rooms[1:] {
		assert.False(t, r.SafeRest)
	}
}

func TestPlace_TrapPayload(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 30
	cfg.Combat, cfg.Trap, cfg.Treasure = 0, 1, 0
	cfg.PartyLevel = 3
	g, p := placeLinear(t, cfg, 11)

	traps := 0
	for _, r := range g.Rooms[1:] {
		if r.Encounter == nil {
			continue
		}
		traps++
		e := r.Encounter
		assert.Equal(t, world.Trap, e.Kind)
		assert.Equal(t, world.TriggerOnSearch, e.Trigger)
		assert.NotEmpty(t, e.TrapType)
		_, err := dice.Parse(e.Damage)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, e.Difficulty, 20)
		assert.LessOrEqual(t, e.Difficulty, 30)
	}
	assert.Equal(t, p.Traps, traps)
	assert.Equal(t, 28, traps, "relaxation clears the trap nearest the start")
}

func TestPlace_TreasurePayload(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 20
	cfg.Combat, cfg.Trap, cfg.Treasure = 0, 0, 1
	cfg.TreasureLevel = theme.TreasureHigh
	cfg.MagicItemChance = 1
	g, p := placeLinear(t, cfg, 3)

	cat := theme.Default()
	gold := cat.Gold[theme.TreasureHigh]
	assert.Equal(t, 19, p.Treasures)
	for _, r := range g.Rooms[1:] {
		e := r.Encounter
		require.NotNil(t, e)
		assert.Equal(t, world.Treasure, e.Kind)
		assert.Contains(t, cat.Treasure[theme.TreasureHigh], e.Items[0])
		assert.Contains(t, cat.MagicItems, e.Items[len(e.Items)-1])
		assert.GreaterOrEqual(t, e.Gold, gold.Min)
		assert.LessOrEqual(t, e.Gold, gold.Max)
	}
}

func TestPlace_GuaranteedItems(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 5
	cfg.Combat, cfg.Trap, cfg.Treasure = 0, 0, 0
	cfg.GuaranteedItems = []string{"silver_key", "map_fragment"}
	g, _ := placeLinear(t, cfg, 8)

	var found []string
	for _, r := range g.Rooms[1:] {
		found = append(found, r.Items...)
	}
	assert.ElementsMatch(t, cfg.GuaranteedItems, found)
	assert.Empty(t, g.Rooms[0].Items)
}
