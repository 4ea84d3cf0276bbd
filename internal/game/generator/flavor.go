package generator

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// applyFlavor names the dungeon and writes room titles and descriptions.
// It runs last so flavor draws never shift topology or placement.
//
// Postcondition: Returns the dungeon name; every room has a non-empty title.
func applyFlavor(g *Graph, cfg Config, t *theme.Theme, catalog *theme.Catalog, bestiary *npc.Bestiary, src dice.Source) string {
	name := cfg.Name
	if name == "" {
		name = t.DungeonName(src)
	}

	titles := append([]string(nil), t.Titles...)
	descriptions := append([]string(nil), t.Descriptions...)
	dice.Shuffle(src, titles)
	dice.Shuffle(src, descriptions)

	start := g.Rooms[0]
	start.Title = t.EntranceTitle()
	start.Description = fmt.Sprintf("The entrance to a dark %s. %s", t.ID, dice.Pick(src, descriptions))

	for i := 1; i < len(g.Rooms); i++ {
		r := g.Rooms[i]
		r.Title = titles[i%len(titles)]
		r.Description = descriptions[i%len(descriptions)]

		e := r.Encounter
		if e == nil || e.Kind != world.Combat || len(e.Monsters) == 0 {
			continue
		}
		if e.Boss {
			boss := e.Monsters[0].Monster
			if tmpl, ok := bestiary.Get(boss); ok {
				boss = tmpl.Name
			}
			r.Title = boss + " Lair"
			r.Description = fmt.Sprintf("The final chamber of the %s. A massive %s guards a pile of glittering treasure! "+
				"This is the master of this place, and a formidable foe.", t.ID, strings.ToUpper(boss))
			continue
		}
		r.Description += " " + catalog.Hint(e.Monsters[0].Monster)
	}
	return name
}
