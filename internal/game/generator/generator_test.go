package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

func seed(v int64) *int64 { return &v }

func drawConfig(t *rapid.T) Config {
	combat := rapid.Float64Range(0, 1).Draw(t, "combat")
	trap := rapid.Float64Range(0, 1-combat).Draw(t, "trap")
	treasure := rapid.Float64Range(0, 1-combat-trap).Draw(t, "treasure")
	return Config{
		Rooms:           rapid.IntRange(1, 60).Draw(t, "rooms"),
		Layout:          rapid.SampledFrom(Layouts).Draw(t, "layout"),
		Combat:          combat,
		Trap:            trap,
		Treasure:        treasure,
		Theme:           rapid.SampledFrom(theme.Default().IDs()).Draw(t, "theme"),
		Seed:            seed(rapid.Int64().Draw(t, "seed")),
		Difficulty:      rapid.SampledFrom(npc.Tiers).Draw(t, "tier"),
		PartyLevel:      rapid.IntRange(1, MaxPartyLevel).Draw(t, "party_level"),
		Lethality:       rapid.Float64Range(0.1, MaxLethality).Draw(t, "lethality"),
		TreasureLevel:   rapid.SampledFrom(theme.TreasureLevels).Draw(t, "treasure_level"),
		MagicItemChance: rapid.Float64Range(0, 1).Draw(t, "magic"),
		Shortcuts:       rapid.IntRange(0, 20).Draw(t, "shortcuts"),
		IncludeBoss:     rapid.Bool().Draw(t, "boss"),
		StartingItems:   []string{"torch"},
	}
}

func TestGenerate_ExampleScenarioIsReproducible(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 8
	cfg.Layout = Branching
	cfg.Combat, cfg.Trap, cfg.Treasure = 0.5, 0.2, 0.2
	cfg.Seed = seed(42)

	gen := New(nil)
	a, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)
	b, err := New(zap.NewNop()).Generate(context.Background(), cfg)
	require.NoError(t, err)

	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(aj), string(bj))
	assert.Equal(t, 8, a.RoomCount())
	assert.True(t, a.Generated())
	assert.Equal(t, int64(42), *a.Seed())
}

func TestGenerate_InvalidConfigFailsBeforeWork(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := baseConfig()
	cfg.Combat, cfg.Trap, cfg.Treasure = 0.6, 0.3, 0.2

	_, err := New(zap.New(core)).Generate(context.Background(), cfg)
	var cve *ConfigValidationError
	require.True(t, errors.As(err, &cve))
	assert.Zero(t, logs.Len())
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 30
	cfg.Seed = seed(1)
	a, err := New(nil).Generate(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Seed = seed(2)
	b, err := New(nil).Generate(context.Background(), cfg)
	require.NoError(t, err)

	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	assert.NotEqual(t, string(aj), string(bj))
}

func TestGenerate_Unseeded(t *testing.T) {
	d, err := New(nil).Generate(context.Background(), baseConfig())
	require.NoError(t, err)
	assert.Equal(t, 10, d.RoomCount())
	assert.Nil(t, d.Seed())
}

func TestRun_RelaxationLoggedAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := baseConfig()
	cfg.Rooms = 6
	cfg.Layout = Linear
	cfg.Combat, cfg.Trap, cfg.Treasure = 1, 0, 0
	cfg.Seed = seed(3)

	res, err := New(zap.New(core)).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Relaxations, 1)
	assert.Equal(t, "room_002", res.Relaxations[0].Room)

	warns := logs.FilterMessage("guaranteed safe room relaxed").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "generator", warns[0].LoggerName)

	room, err := res.Dungeon.Room("room_002")
	require.NoError(t, err)
	assert.True(t, room.SafeRest)
	assert.Nil(t, room.Encounter)
}

func TestRun_BossRoom(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 5
	cfg.Layout = Linear
	cfg.IncludeBoss = true
	cfg.BossMonster = "ogre"
	cfg.Seed = seed(10)

	res, err := New(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "room_005", res.Stats.Boss)

	room, err := res.Dungeon.Room("room_005")
	require.NoError(t, err)
	require.NotNil(t, room.Encounter)
	assert.True(t, room.Encounter.Boss)
	require.Len(t, room.Encounter.Monsters, 1)
	assert.Equal(t, "ogre", room.Encounter.Monsters[0].Monster)
	assert.Equal(t, 1, room.Encounter.Monsters[0].Count)
	assert.Equal(t, "Ogre Lair", room.Title)
	assert.Contains(t, room.Description, "OGRE")
	assert.LessOrEqual(t, room.Encounter.Challenge, room.Encounter.Ceiling)
}

func TestRun_FlavorAndName(t *testing.T) {
	cfg := baseConfig()
	cfg.Theme = "crypt"
	cfg.Seed = seed(77)
	d, err := New(nil).Generate(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "Crypt Entrance", d.StartRoom().Title)
	assert.True(t, strings.HasPrefix(d.StartRoom().Description, "The entrance to a dark crypt. "))
	th, _ := theme.Default().Lookup("crypt")
	named := false
	for _, p := range th.Prefixes {
		for _, n := range th.Nouns {
			named = named || d.Name() == p+" "+n
		}
	}
	assert.True(t, named, d.Name())
	for _, r := range d.Rooms() {
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.Description)
	}

	cfg.Name = "The Bone Pit"
	d, err = New(nil).Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "The Bone Pit", d.Name())
}

func TestRun_CombatHint(t *testing.T) {
	cfg := baseConfig()
	cfg.Rooms = 12
	cfg.Combat, cfg.Trap, cfg.Treasure = 1, 0, 0
	cfg.MonsterPool = []string{"kobold"}
	cfg.Seed = seed(5)
	d, err := New(nil).Generate(context.Background(), cfg)
	require.NoError(t, err)

	hint := theme.Default().Hint("kobold")
	for _, r := range d.Rooms() {
		if r.Encounter != nil && r.Encounter.Kind == world.Combat {
			assert.True(t, strings.HasSuffix(r.Description, hint), r.ID)
		}
	}
}

func TestRun_CustomCatalogs(t *testing.T) {
	b, err := npc.NewBestiary([]*npc.Template{{
		ID: "slime", Name: "Slime", HitDice: 1, AC: 9, THAC0: 20, XP: 5, Frequency: npc.Common,
		Attacks: []npc.Attack{{Name: "touch", Damage: "1d2"}},
	}})
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.MonsterPool = []string{"slime"}
	cfg.Seed = seed(1)
	_, err = New(nil, WithBestiary(b)).Generate(context.Background(), cfg)
	require.NoError(t, err)

	cfg.MonsterPool = []string{"goblin"}
	_, err = New(nil, WithBestiary(b)).Generate(context.Background(), cfg)
	var cve *ConfigValidationError
	assert.ErrorAs(t, err, &cve)

	// An empty pool falls back to the theme's, which this bestiary lacks.
	cfg.MonsterPool = nil
	_, err = New(nil, WithBestiary(b)).Generate(context.Background(), cfg)
	require.ErrorAs(t, err, &cve)
	assert.True(t, cve.Has("monster_pool"))
	var ge *GenerationError
	assert.False(t, errors.As(err, &ge), "rejected before generation starts")
}

func TestRun_UnreachableIsGenerationError(t *testing.T) {
	g := New(nil)
	g.capacity = 1
	cfg := baseConfig()
	cfg.Rooms = 4
	_, err := g.Run(context.Background(), cfg)

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "topology", ge.Stage)
	var ute *UnreachableTopologyError
	assert.True(t, errors.As(err, &ute))
}

func TestPropertyGeneratedDungeonInvariants(t *testing.T) {
	gen := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		cfg := drawConfig(t)
		res, err := gen.Run(context.Background(), cfg)
		require.NoError(t, err)
		d := res.Dungeon

		require.Equal(t, cfg.Rooms, d.RoomCount())
		require.Len(t, d.Distances(d.StartRoomID()), cfg.Rooms, "connected")

		edges := 0
		safe := 0
		for _, r := range d.Rooms() {
			edges += len(r.Exits)
			for _, target := range r.Exits {
				_, err := d.Room(target)
				require.NoError(t, err, "dangling exit in %s", r.ID)
			}
			if cfg.Layout == Linear {
				assert.LessOrEqual(t, len(r.Exits), 2)
			}
			if r.SafeRest && r.ID != d.StartRoomID() {
				safe++
			}
			if e := r.Encounter; e != nil && e.Kind == world.Combat {
				require.NotEmpty(t, e.Monsters)
				agg := 0.0
				for _, m := range e.Monsters {
					agg += float64(m.Count) * m.Challenge * m.Multiplier
				}
				assert.LessOrEqual(t, agg, e.Ceiling+1e-9)
				assert.LessOrEqual(t, e.Challenge, e.Ceiling+1e-9)
			}
		}
		edges /= 2

		switch cfg.Layout {
		case Linear, Branching:
			assert.Equal(t, cfg.Rooms-1, edges)
		case Network:
			assert.LessOrEqual(t, edges-(cfg.Rooms-1), min(cfg.Shortcuts, ShortcutBound(cfg.Rooms)))
		}

		start := d.StartRoom()
		assert.True(t, start.SafeRest)
		assert.False(t, start.Encounter.Hostile())
		if cfg.Rooms >= MinRoomsForSafeRoom {
			assert.GreaterOrEqual(t, safe, 1)
		}
	})
}

func TestPropertyGenerationDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := drawConfig(t)
		a, err := New(nil).Generate(context.Background(), cfg)
		require.NoError(t, err)
		b, err := New(nil).Generate(context.Background(), cfg)
		require.NoError(t, err)

		aj, err := json.Marshal(a)
		require.NoError(t, err)
		bj, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, string(aj), string(bj))
	})
}

func TestPropertyGeneratedRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := drawConfig(t)
		d, err := New(nil).Generate(context.Background(), cfg)
		require.NoError(t, err)

		data, err := json.Marshal(d)
		require.NoError(t, err)
		back, err := world.Deserialize(data)
		require.NoError(t, err)
		assert.Equal(t, d.Serialize(), back.Serialize())
	})
}
