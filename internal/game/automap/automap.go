// Package automap renders an ASCII map of the explored part of a dungeon.
package automap

import (
	"strings"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Empty is rendered when no room has been explored.
const Empty = "No map data available yet. Explore to reveal the map."

// Tracker is the exploration view the renderer needs.
type Tracker interface {
	IsExplored(id string) bool
	IsKnown(id string) bool
}

// Point is a grid cell; y grows southward.
type Point struct{ X, Y int }

// collisionOffsets are tried, in order, around an occupied target cell.
var collisionOffsets = []Point{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Positions assigns every reachable room a distinct grid cell by depth-first
// traversal from the start room, following exits in compass order. A room
// whose natural cell is taken goes to the nearest free cell.
func Positions(d *world.Dungeon) map[string]Point {
	pos := make(map[string]Point, d.RoomCount())
	used := make(map[Point]bool, d.RoomCount())
	var place func(id string, at Point)
	place = func(id string, at Point) {
		pos[id] = at
		used[at] = true
		room, err := d.Room(id)
		if err != nil {
			return
		}
		for _, dir := range room.Directions() {
			next := room.Exits[dir]
			if _, done := pos[next]; done {
				continue
			}
			dx, dy := dir.Offset()
			place(next, freeNear(used, Point{at.X + dx, at.Y + dy}))
		}
	}
	place(d.StartRoomID(), Point{})
	return pos
}

func freeNear(used map[Point]bool, target Point) Point {
	for _, o := range collisionOffsets {
		p := Point{target.X + o.X, target.Y + o.Y}
		if !used[p] {
			return p
		}
	}
	for r := 2; ; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				p := Point{target.X + dx, target.Y + dy}
				if !used[p] {
					return p
				}
			}
		}
	}
}

// Render draws explored rooms as "[ ]", the current room as "[X]", and known
// unexplored rooms as "[?]". Connectors join explored rooms whose exits lead
// to the adjacent cell.
//
// Postcondition: Returns Empty when nothing is explored.
func Render(d *world.Dungeon, t Tracker, current string) string {
	pos := Positions(d)
	grid := make(map[Point]string)
	explored := 0
	for id, p := range pos {
		switch {
		case t.IsExplored(id):
			grid[p] = id
			explored++
		case t.IsKnown(id):
			grid[p] = id
		}
	}
	if explored == 0 {
		return Empty
	}

	first := true
	var minX, maxX, minY, maxY int
	for p := range grid {
		if first {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	linked := func(a Point, dir world.Direction, b Point) bool {
		ia, okA := grid[a]
		ib, okB := grid[b]
		if !okA || !okB || !t.IsExplored(ia) || !t.IsExplored(ib) {
			return false
		}
		room, err := d.Room(ia)
		if err != nil {
			return false
		}
		target, ok := room.Exit(dir)
		return ok && target == ib
	}

	var lines []string
	for y := minY; y <= maxY; y++ {
		var row, conn strings.Builder
		for x := minX; x <= maxX; x++ {
			p := Point{x, y}
			id, ok := grid[p]
			switch {
			case !ok:
				row.WriteString("   ")
			case id == current:
				row.WriteString("[X]")
			case t.IsExplored(id):
				row.WriteString("[ ]")
			default:
				row.WriteString("[?]")
			}
			if x < maxX {
				if linked(p, world.East, Point{x + 1, y}) {
					row.WriteString("─")
				} else {
					row.WriteString(" ")
				}
			}
			if linked(p, world.South, Point{x, y + 1}) {
				conn.WriteString(" │ ")
			} else {
				conn.WriteString("   ")
			}
			if x < maxX {
				conn.WriteString(" ")
			}
		}
		lines = append(lines, strings.TrimRight(row.String(), " "))
		if y < maxY {
			lines = append(lines, strings.TrimRight(conn.String(), " "))
		}
	}
	return strings.Join(lines, "\n")
}

// Legend explains the map symbols.
const Legend = "[X] = Your Location\n[ ] = Explored Room\n[?] = Known Room"
