package generator

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/observability"
)

func tracer() trace.Tracer {
	return observability.Tracer("generator")
}

// Stats describes the content of a generated dungeon.
type Stats struct {
	Rooms            int    `json:"rooms"`
	Edges            int    `json:"edges"`
	Shortcuts        int    `json:"shortcuts"`
	SkippedShortcuts int    `json:"skipped_shortcuts"`
	Combat           int    `json:"combat"`
	Traps            int    `json:"traps"`
	Treasures        int    `json:"treasures"`
	Empty            int    `json:"empty"`
	Boss             string `json:"boss,omitempty"`
	SafeRoom         string `json:"safe_room,omitempty"`
}

// Result is the full outcome of a generation run.
type Result struct {
	Dungeon     *world.Dungeon
	Relaxations []PlacementRelaxation
	Stats       Stats
}

// Generator runs the generation pipeline against a theme catalog and bestiary.
type Generator struct {
	logger   *zap.Logger
	themes   *theme.Catalog
	bestiary *npc.Bestiary
	scaler   *npc.Scaler
	capacity int
}

// Option configures a Generator.
type Option func(*Generator)

// WithThemes replaces the embedded theme catalog.
func WithThemes(c *theme.Catalog) Option {
	return func(g *Generator) { g.themes = c }
}

// WithBestiary replaces the embedded bestiary.
func WithBestiary(b *npc.Bestiary) Option {
	return func(g *Generator) { g.bestiary = b }
}

// New creates a Generator. A nil logger is replaced by a no-op logger.
//
// Postcondition: Returns a non-nil Generator.
func New(logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{logger: observability.Component(logger, "generator"), capacity: len(world.Cardinal)}
	for _, o := range opts {
		o(g)
	}
	if g.themes == nil {
		g.themes = theme.Default()
	}
	if g.bestiary == nil {
		g.bestiary = npc.DefaultBestiary()
	}
	g.scaler = npc.NewScaler(g.bestiary)
	return g
}

// Generate runs the pipeline and returns only the dungeon.
func (g *Generator) Generate(ctx context.Context, cfg Config) (*world.Dungeon, error) {
	res, err := g.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Dungeon, nil
}

// Run validates cfg and generates a dungeon. Random draws happen in a fixed
// order: topology, placement, scaling, flavor. A given seed and config
// always produce the same dungeon.
//
// Postcondition: Returns a validated dungeon with exactly cfg.Rooms rooms, or
// a *ConfigValidationError before any generation work, or a *GenerationError.
func (g *Generator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(g.themes, g.bestiary); err != nil {
		return nil, err
	}
	th, _ := g.themes.Lookup(cfg.Theme)
	src := dice.SourceFor(cfg.Seed)

	ctx, span := tracer().Start(ctx, "generator.generate")
	defer span.End()
	log := g.logger.With(
		zap.Int("rooms", cfg.Rooms),
		zap.String("layout", string(cfg.Layout)),
		zap.String("theme", cfg.Theme),
	)
	if cfg.Seed != nil {
		log = log.With(zap.Int64("seed", *cfg.Seed))
	}

	graph, err := buildGraph(ctx, cfg, src, g.capacity, log)
	if err != nil {
		span.RecordError(err)
		return nil, &GenerationError{Stage: "topology", Err: err}
	}
	if err := graph.Check(cfg); err != nil {
		span.RecordError(err)
		return nil, wrapStage("topology", err)
	}
	log.Debug("topology built",
		zap.Int("edges", graph.Edges()),
		zap.Int("shortcuts", graph.Shortcuts),
		zap.Int("skipped_shortcuts", graph.SkippedShortcuts),
	)

	placement, err := Place(ctx, graph, cfg, g.themes, src)
	if err != nil {
		span.RecordError(err)
		return nil, &GenerationError{Stage: "placement", Err: err}
	}
	res := &Result{}
	if placement.Relaxation != nil {
		res.Relaxations = append(res.Relaxations, *placement.Relaxation)
		log.Warn("guaranteed safe room relaxed",
			zap.String("room", placement.Relaxation.Room),
			zap.String("cleared", placement.Relaxation.Cleared),
			zap.String("reason", placement.Relaxation.Reason),
		)
	}
	log.Debug("content placed",
		zap.Int("combat", len(placement.Combat)),
		zap.Int("traps", placement.Traps),
		zap.Int("treasures", placement.Treasures),
		zap.String("safe_room", placement.SafeRoom),
	)

	if err := g.scale(ctx, graph, placement, cfg, src); err != nil {
		span.RecordError(err)
		return nil, &GenerationError{Stage: "scaling", Err: err}
	}

	name := applyFlavor(graph, cfg, th, g.themes, g.bestiary, src)

	d, err := world.New(world.Blueprint{
		Name:      name,
		StartRoom: StartRoomID,
		Rooms:     graph.Rooms,
		Generated: true,
		Seed:      cfg.Seed,
		Theme:     cfg.Theme,
		Layout:    string(cfg.Layout),
	})
	if err != nil {
		span.RecordError(err)
		return nil, wrapStage("validation", err)
	}

	res.Dungeon = d
	res.Stats = Stats{
		Rooms:            d.RoomCount(),
		Edges:            graph.Edges(),
		Shortcuts:        graph.Shortcuts,
		SkippedShortcuts: graph.SkippedShortcuts,
		Combat:           len(placement.Combat),
		Traps:            placement.Traps,
		Treasures:        placement.Treasures,
		Empty:            placement.Empty,
		Boss:             placement.Boss,
		SafeRoom:         placement.SafeRoom,
	}
	span.SetAttributes(
		attribute.String("dungeon.name", name),
		attribute.Int("dungeon.rooms", res.Stats.Rooms),
		attribute.Int("dungeon.edges", res.Stats.Edges),
		attribute.Int("dungeon.combat", res.Stats.Combat),
	)
	log.Info("dungeon generated",
		zap.String("name", name),
		zap.Int("edges", res.Stats.Edges),
		zap.Int("combat", res.Stats.Combat),
		zap.Int("traps", res.Stats.Traps),
		zap.Int("treasures", res.Stats.Treasures),
	)
	return res, nil
}

// scale fills every combat slot, in room-id order, with a scaled monster group.
func (g *Generator) scale(ctx context.Context, graph *Graph, p *Placement, cfg Config, src dice.Source) error {
	_, span := tracer().Start(ctx, "generator.scale")
	defer span.End()

	pool := cfg.pool(g.themes)
	for _, slot := range p.Combat {
		room, ok := graph.Room(slot.Room)
		if !ok {
			return fmt.Errorf("combat slot %q: %w", slot.Room, world.ErrRoomNotFound)
		}
		group, err := g.scaler.Scale(npc.Request{
			Pool:        pool,
			Tier:        cfg.Difficulty,
			PartyLevel:  cfg.PartyLevel,
			Lethality:   cfg.Lethality,
			Depth:       slot.Depth,
			Boss:        slot.Boss,
			BossMonster: cfg.BossMonster,
		}, src)
		if err != nil {
			return err
		}
		monsters := make([]world.MonsterGroup, len(group.Members))
		for i, m := range group.Members {
			monsters[i] = world.MonsterGroup{
				Monster:    m.Monster,
				Count:      m.Count,
				Multiplier: m.Multiplier,
				Challenge:  m.Challenge,
			}
		}
		room.Encounter.Monsters = monsters
		room.Encounter.Challenge = group.Challenge
		room.Encounter.Ceiling = group.Ceiling
	}
	span.SetAttributes(attribute.Int("scale.slots", len(p.Combat)))
	return nil
}

// wrapStage wraps err in a *GenerationError unless it already is one.
func wrapStage(stage string, err error) error {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return err
	}
	return &GenerationError{Stage: stage, Err: err}
}
