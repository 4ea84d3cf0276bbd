package generator

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

const (
	// MinRoomsForSafeRoom is the room count from which a second safe room
	// besides the start room is guaranteed.
	MinRoomsForSafeRoom = 6
	// MinSafeSpacing is the minimum distance from start of the guaranteed safe room.
	MinSafeSpacing = 2
	// MinRoomsForBoss is the smallest dungeon that receives a boss room.
	MinRoomsForBoss = 3

	basicItemChance = 0.3
	bossLootChance  = 0.5
	bossLootItem    = "potion_healing"

	trapBaseDifficulty  = 10
	trapLevelDifficulty = 5
	trapJitter          = 5
	trapMinDifficulty   = 10
	trapMaxDifficulty   = 40
)

// CombatSlot is a combat room awaiting monster scaling.
type CombatSlot struct {
	Room string
	// Depth is the room's distance from start divided by the largest distance.
	Depth float64
	Boss  bool
}

// Placement summarizes content placement over a graph.
type Placement struct {
	// Combat lists combat slots in room-id order.
	Combat []CombatSlot
	// Boss is the boss room id, or "".
	Boss string
	// SafeRoom is the guaranteed safe room besides the start room, or "".
	SafeRoom   string
	Relaxation *PlacementRelaxation

	Traps     int
	Treasures int
	Empty     int
}

// Place annotates the rooms of g with encounters, items, and safe-rest flags.
// Every non-start room draws exactly one value from src, in room-id order,
// to pick its encounter kind; payload draws follow immediately.
//
// Precondition: g must pass Check for cfg; cfg must be valid against catalog.
// Postcondition: the start room is safe and has no encounter; combat rooms
// carry an empty combat encounter listed in Placement.Combat.
func Place(ctx context.Context, g *Graph, cfg Config, catalog *theme.Catalog, src dice.Source) (*Placement, error) {
	_, span := tracer().Start(ctx, "generator.place")
	defer span.End()

	if _, ok := catalog.Lookup(cfg.Theme); !ok {
		return nil, fmt.Errorf("unknown theme %q", cfg.Theme)
	}
	pool := catalog.Treasure[cfg.TreasureLevel]
	if len(pool) == 0 {
		return nil, fmt.Errorf("theme catalog has no treasure for level %q", cfg.TreasureLevel)
	}

	dist := g.Distances()
	maxDist := slices.Max(dist)
	p := &Placement{}

	start := g.Rooms[0]
	start.SafeRest = true
	start.Light = world.Dim
	start.Items = append([]string{}, cfg.StartingItems...)

	boss := -1
	if cfg.IncludeBoss && len(g.Rooms) >= MinRoomsForBoss {
		boss = farthest(dist)
		p.Boss = g.Rooms[boss].ID
	}

	for i := 1; i < len(g.Rooms); i++ {
		r := g.Rooms[i]
		u := src.Float64()
		if i == boss {
			r.Encounter = &world.Encounter{Kind: world.Combat, Trigger: world.TriggerOnEnter, Boss: true}
			p.Combat = append(p.Combat, CombatSlot{Room: r.ID, Depth: 1, Boss: true})
			r.Items = append(r.Items, bossLootItem)
			if src.Float64() < bossLootChance {
				r.Items = append(r.Items, dice.Pick(src, catalog.MagicItems))
			}
			continue
		}
		switch {
		case u < cfg.Combat:
			r.Encounter = &world.Encounter{Kind: world.Combat, Trigger: world.TriggerOnEnter}
			p.Combat = append(p.Combat, CombatSlot{Room: r.ID, Depth: depth(dist[i], maxDist)})
		case u < cfg.Combat+cfg.Trap:
			r.Encounter = trapEncounter(cfg, catalog, src)
			p.Traps++
		case u < cfg.Combat+cfg.Trap+cfg.Treasure:
			r.Encounter = treasureEncounter(cfg, catalog, pool, src)
			p.Treasures++
		default:
			p.Empty++
		}
	}

	for _, item := range cfg.GuaranteedItems {
		target := start
		if len(g.Rooms) > 1 {
			target = g.Rooms[1+src.Intn(len(g.Rooms)-1)]
		}
		target.Items = append(target.Items, item)
	}

	if len(g.Rooms) >= MinRoomsForSafeRoom {
		p.placeSafeRoom(g, dist, boss)
	}

	span.SetAttributes(
		attribute.Int("placement.combat", len(p.Combat)),
		attribute.Int("placement.traps", p.Traps),
		attribute.Int("placement.treasures", p.Treasures),
		attribute.Bool("placement.relaxed", p.Relaxation != nil),
	)
	return p, nil
}

// placeSafeRoom marks the farthest non-hostile room at distance >=
// MinSafeSpacing as safe, ties broken by lowest id. When no room qualifies
// the nearest non-hostile room is used; only when every candidate is hostile
// is the nearest one cleared.
func (p *Placement) placeSafeRoom(g *Graph, dist []int, boss int) {
	best := -1
	for i := 1; i < len(g.Rooms); i++ {
		if i == boss || g.Rooms[i].Encounter.Hostile() || dist[i] < MinSafeSpacing {
			continue
		}
		if best < 0 || dist[i] > dist[best] {
			best = i
		}
	}
	if best >= 0 {
		g.Rooms[best].SafeRest = true
		p.SafeRoom = g.Rooms[best].ID
		return
	}

	nearest := nearestRoom(g, dist, boss, func(r *world.Room) bool { return !r.Encounter.Hostile() })
	if nearest < 0 {
		nearest = nearestRoom(g, dist, boss, func(*world.Room) bool { return true })
	}
	if nearest < 0 {
		return
	}
	r := g.Rooms[nearest]
	relax := PlacementRelaxation{
		Room:   r.ID,
		Reason: fmt.Sprintf("no non-hostile room at distance >= %d from start", MinSafeSpacing),
	}
	if r.Encounter.Hostile() {
		relax.Cleared = string(r.Encounter.Kind)
		if r.Encounter.Kind == world.Combat {
			p.Combat = slices.DeleteFunc(p.Combat, func(s CombatSlot) bool { return s.Room == r.ID })
		} else {
			p.Traps--
		}
		r.Encounter = nil
		p.Empty++
	}
	r.SafeRest = true
	p.SafeRoom = r.ID
	p.Relaxation = &relax
}

// nearestRoom returns the index of the non-start, non-boss room closest to
// the start that satisfies keep, ties broken by lowest id, or -1.
func nearestRoom(g *Graph, dist []int, boss int, keep func(*world.Room) bool) int {
	nearest := -1
	for i := 1; i < len(g.Rooms); i++ {
		if i == boss || !keep(g.Rooms[i]) {
			continue
		}
		if nearest < 0 || dist[i] < dist[nearest] {
			nearest = i
		}
	}
	return nearest
}

func trapEncounter(cfg Config, catalog *theme.Catalog, src dice.Source) *world.Encounter {
	trap := dice.Pick(src, catalog.Traps)
	profile, _ := cfg.Difficulty.Profile()
	jitter := src.Intn(2*trapJitter+1) - trapJitter
	difficulty := trapBaseDifficulty + trapLevelDifficulty*cfg.PartyLevel + profile.TrapBonus + jitter
	difficulty = max(trapMinDifficulty, min(trapMaxDifficulty, difficulty))
	return &world.Encounter{
		Kind:       world.Trap,
		Trigger:    world.TriggerOnSearch,
		TrapType:   trap.Type,
		Damage:     trap.Damage,
		Difficulty: difficulty,
	}
}

func treasureEncounter(cfg Config, catalog *theme.Catalog, pool []string, src dice.Source) *world.Encounter {
	items := []string{dice.Pick(src, pool)}
	if src.Float64() < basicItemChance {
		items = append(items, dice.Pick(src, catalog.BasicItems))
	}
	if src.Float64() < cfg.MagicItemChance {
		items = append(items, dice.Pick(src, catalog.MagicItems))
	}
	gold := catalog.Gold[cfg.TreasureLevel]
	return &world.Encounter{
		Kind:    world.Treasure,
		Trigger: world.TriggerOnSearch,
		Items:   items,
		Gold:    dice.Between(src, gold.Min, gold.Max),
	}
}

// farthest returns the index of the room with the greatest distance, ties
// broken by lowest index.
func farthest(dist []int) int {
	best := 0
	for i, d := range dist {
		if d > dist[best] {
			best = i
		}
	}
	return best
}

func depth(d, maxDist int) float64 {
	if maxDist == 0 {
		return 0
	}
	return float64(d) / float64(maxDist)
}
