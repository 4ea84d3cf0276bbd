package generator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// StartRoomID is the id of the first room of every generated dungeon.
const StartRoomID = "room_001"

const (
	// branchChance is the probability that a branching step grows from an
	// older frontier room instead of the most recent one.
	branchChance = 0.35
	// shortcutAttempts bounds the endpoint draws per requested shortcut.
	shortcutAttempts = 20
	// minShortcutDistance is the smallest graph distance a shortcut may bridge.
	minShortcutDistance = 3
)

// RoomID returns the generated id of the i-th room, counting from 1.
func RoomID(i int) string {
	return fmt.Sprintf("room_%03d", i)
}

// ShortcutBound returns the maximum number of shortcut edges a network
// layout of n rooms may carry.
func ShortcutBound(n int) int {
	return n / 4
}

// Graph is a generated room topology before content placement.
type Graph struct {
	Layout Layout
	// Rooms holds the rooms in creation order; Rooms[0] is the start room.
	Rooms []*world.Room
	// Shortcuts is the number of shortcut edges added.
	Shortcuts int
	// SkippedShortcuts counts requested shortcuts that found no valid endpoints.
	SkippedShortcuts int

	capacity int
	index    map[string]int
}

// Edges returns the number of undirected edges.
func (g *Graph) Edges() int {
	deg := 0
	for _, r := range g.Rooms {
		deg += len(r.Exits)
	}
	return deg / 2
}

// Room returns the room with the given id.
func (g *Graph) Room(id string) (*world.Room, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.Rooms[i], true
}

// Distances returns the BFS distance from the start room to every room, by index.
func (g *Graph) Distances() []int {
	return g.distancesFrom(0)
}

func (g *Graph) distancesFrom(src int) []int {
	dist := make([]int, len(g.Rooms))
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		r := g.Rooms[i]
		for _, dir := range r.Directions() {
			j, ok := g.index[r.Exits[dir]]
			if !ok || dist[j] >= 0 {
				continue
			}
			dist[j] = dist[i] + 1
			queue = append(queue, j)
		}
	}
	return dist
}

func (g *Graph) freeDirections(i int) []world.Direction {
	r := g.Rooms[i]
	if len(r.Exits) >= g.capacity {
		return nil
	}
	var free []world.Direction
	for _, d := range world.Cardinal {
		if _, used := r.Exits[d]; !used {
			free = append(free, d)
		}
	}
	return free
}

func (g *Graph) addRoom() int {
	i := len(g.Rooms)
	id := RoomID(i + 1)
	g.Rooms = append(g.Rooms, &world.Room{
		ID:    id,
		Light: world.Dark,
		Exits: make(map[world.Direction]string),
		Items: []string{},
	})
	g.index[id] = i
	return i
}

func (g *Graph) connect(a, b int, dir world.Direction) {
	g.Rooms[a].Exits[dir] = g.Rooms[b].ID
	g.Rooms[b].Exits[dir.Opposite()] = g.Rooms[a].ID
}

func (g *Graph) adjacent(a, b int) bool {
	for _, target := range g.Rooms[a].Exits {
		if target == g.Rooms[b].ID {
			return true
		}
	}
	return false
}

// BuildGraph builds the room topology for cfg, drawing every choice from src.
//
// Precondition: cfg must be valid.
// Postcondition: Returns a graph that passes Check, or an
// *UnreachableTopologyError when the frontier empties before the target.
func BuildGraph(ctx context.Context, cfg Config, src dice.Source) (*Graph, error) {
	return buildGraph(ctx, cfg, src, len(world.Cardinal), zap.NewNop())
}

func buildGraph(ctx context.Context, cfg Config, src dice.Source, capacity int, logger *zap.Logger) (*Graph, error) {
	_, span := tracer().Start(ctx, "generator.build_graph")
	defer span.End()

	g := &Graph{
		Layout:   cfg.Layout,
		capacity: capacity,
		index:    make(map[string]int, cfg.Rooms),
	}
	g.addRoom()

	var err error
	switch cfg.Layout {
	case Linear:
		err = g.growLinear(cfg.Rooms, src)
	default:
		err = g.growTree(cfg.Rooms, src)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if cfg.Layout == Network {
		want := min(cfg.Shortcuts, ShortcutBound(cfg.Rooms))
		for k := 0; k < want; k++ {
			if !g.addShortcut(src) {
				g.SkippedShortcuts++
				logger.Debug("shortcut skipped", zap.Int("attempts", shortcutAttempts))
			}
		}
	}

	span.SetAttributes(
		attribute.String("graph.layout", string(cfg.Layout)),
		attribute.Int("graph.rooms", len(g.Rooms)),
		attribute.Int("graph.edges", g.Edges()),
		attribute.Int("graph.shortcuts", g.Shortcuts),
	)
	return g, nil
}

// growLinear extends the tail of the path until n rooms exist.
func (g *Graph) growLinear(n int, src dice.Source) error {
	for len(g.Rooms) < n {
		tail := len(g.Rooms) - 1
		free := g.freeDirections(tail)
		if tail > 0 && len(g.Rooms[tail].Exits) >= 2 {
			free = nil
		}
		if len(free) == 0 {
			return &UnreachableTopologyError{Layout: Linear, Requested: n, Built: len(g.Rooms)}
		}
		dir := dice.Pick(src, free)
		g.connect(tail, g.addRoom(), dir)
	}
	return nil
}

// growTree grows a tree from a frontier of rooms with free capacity. Rooms
// whose capacity is exhausted are dropped from the frontier and another
// frontier room is chosen instead.
func (g *Graph) growTree(n int, src dice.Source) error {
	frontier := []int{0}
	for len(g.Rooms) < n {
		live := frontier[:0]
		for _, i := range frontier {
			if len(g.freeDirections(i)) > 0 {
				live = append(live, i)
			}
		}
		frontier = live
		if len(frontier) == 0 {
			return &UnreachableTopologyError{Layout: g.Layout, Requested: n, Built: len(g.Rooms)}
		}

		parent := frontier[len(frontier)-1]
		if len(frontier) > 1 && src.Float64() < branchChance {
			parent = frontier[src.Intn(len(frontier)-1)]
		}
		dir := dice.Pick(src, g.freeDirections(parent))
		child := g.addRoom()
		g.connect(parent, child, dir)
		frontier = append(frontier, child)
	}
	return nil
}

// addShortcut tries to join two distant rooms with a new bidirectional edge.
//
// Postcondition: Returns true if an edge was added.
func (g *Graph) addShortcut(src dice.Source) bool {
	n := len(g.Rooms)
	for attempt := 0; attempt < shortcutAttempts; attempt++ {
		a, b := src.Intn(n), src.Intn(n)
		if a == b || g.adjacent(a, b) {
			continue
		}
		if d := g.distancesFrom(a)[b]; d >= 0 && d < minShortcutDistance {
			continue
		}
		dir, ok := g.pairDirection(a, b)
		if !ok {
			continue
		}
		g.connect(a, b, dir)
		g.Shortcuts++
		return true
	}
	return false
}

// pairDirection returns the first cardinal direction free on a whose
// opposite is free on b.
func (g *Graph) pairDirection(a, b int) (world.Direction, bool) {
	if len(g.Rooms[a].Exits) >= g.capacity || len(g.Rooms[b].Exits) >= g.capacity {
		return "", false
	}
	for _, d := range world.Cardinal {
		if _, used := g.Rooms[a].Exits[d]; used {
			continue
		}
		if _, used := g.Rooms[b].Exits[d.Opposite()]; used {
			continue
		}
		return d, true
	}
	return "", false
}

// Check verifies the topology post-conditions for a graph built from cfg:
// room count, unique ids, no dangling or one-way exits, degree limits, edge
// count for the layout family, and connectivity.
//
// Postcondition: Returns nil, a *world.DanglingExitError, a
// *world.DisconnectedGraphError, or a *GenerationError naming the constraint.
func (g *Graph) Check(cfg Config) error {
	fail := func(constraint string) error {
		return &GenerationError{Stage: "topology", Constraint: constraint}
	}
	n := len(g.Rooms)
	if n != cfg.Rooms {
		return fail(fmt.Sprintf("room count must be %d, got %d", cfg.Rooms, n))
	}

	rooms := make(map[string]*world.Room, n)
	for _, r := range g.Rooms {
		if _, dup := rooms[r.ID]; dup {
			return fail(fmt.Sprintf("room ids must be unique, %q repeats", r.ID))
		}
		rooms[r.ID] = r
	}
	if _, ok := rooms[StartRoomID]; !ok {
		return fail(fmt.Sprintf("start room %q must exist", StartRoomID))
	}

	for _, r := range g.Rooms {
		if len(r.Exits) > len(world.Cardinal) {
			return fail(fmt.Sprintf("room %s has %d exits, max %d", r.ID, len(r.Exits), len(world.Cardinal)))
		}
		if cfg.Layout == Linear && len(r.Exits) > 2 {
			return fail(fmt.Sprintf("linear room %s has %d exits, max 2", r.ID, len(r.Exits)))
		}
		for _, dir := range r.Directions() {
			target, ok := rooms[r.Exits[dir]]
			if !ok {
				return &world.DanglingExitError{Room: r.ID, Direction: dir, Target: r.Exits[dir]}
			}
			if back, ok := target.Exit(dir.Opposite()); !ok || back != r.ID {
				return fail(fmt.Sprintf("exit %s from %s to %s must be bidirectional", dir, r.ID, target.ID))
			}
		}
	}

	edges := g.Edges()
	switch cfg.Layout {
	case Linear, Branching:
		if edges != n-1 {
			return fail(fmt.Sprintf("%s layout must have %d edges, got %d", cfg.Layout, n-1, edges))
		}
	case Network:
		if edges < n-1 || edges > n-1+ShortcutBound(n) {
			return fail(fmt.Sprintf("network layout must have %d-%d edges, got %d", n-1, n-1+ShortcutBound(n), edges))
		}
	}

	return world.CheckConnected(rooms, StartRoomID)
}
