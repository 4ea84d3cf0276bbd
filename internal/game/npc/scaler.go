package npc

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// Tier is a dungeon-wide difficulty setting.
type Tier string

// Difficulty tiers.
const (
	Easy     Tier = "easy"
	Standard Tier = "standard"
	Hard     Tier = "hard"
	Deadly   Tier = "deadly"
)

// Tiers lists the valid tiers from easiest to hardest.
var Tiers = []Tier{Easy, Standard, Hard, Deadly}

// TierProfile holds the scaling parameters of one tier.
type TierProfile struct {
	// CeilingPerLevel is the hard challenge ceiling per party level.
	CeilingPerLevel float64
	// Floor is the fraction of the ceiling targeted next to the start room.
	Floor float64
	// MaxMonsters caps the number of monsters in one room.
	MaxMonsters int
	// TrapBonus is added to trap detect difficulty.
	TrapBonus int
}

var tierProfiles = map[Tier]TierProfile{
	Easy:     {CeilingPerLevel: 6, Floor: 0.4, MaxMonsters: 4, TrapBonus: -2},
	Standard: {CeilingPerLevel: 9, Floor: 0.5, MaxMonsters: 5, TrapBonus: 0},
	Hard:     {CeilingPerLevel: 12, Floor: 0.6, MaxMonsters: 6, TrapBonus: 3},
	Deadly:   {CeilingPerLevel: 16, Floor: 0.7, MaxMonsters: 8, TrapBonus: 6},
}

// Profile returns the scaling parameters for t.
func (t Tier) Profile() (TierProfile, bool) {
	p, ok := tierProfiles[t]
	return p, ok
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierProfiles[t]
	return ok
}

// Ceiling returns the hard challenge ceiling for a tier, party level, and
// lethality multiplier.
func Ceiling(t Tier, partyLevel int, lethality float64) float64 {
	p, ok := t.Profile()
	if !ok {
		return 0
	}
	return p.CeilingPerLevel * float64(partyLevel) * lethality
}

// bandLowFraction is the fraction of the target at which accumulation stops.
const bandLowFraction = 0.75

// maxMultiplier caps the per-encounter upward stat adjustment.
const maxMultiplier = 1.5

// Request describes one combat slot to fill.
type Request struct {
	Pool       []string
	Tier       Tier
	PartyLevel int
	Lethality  float64
	// Depth is the room's distance from start normalized to [0, 1].
	Depth float64
	// Boss requests a single strongest monster.
	Boss bool
	// BossMonster overrides boss selection when non-empty.
	BossMonster string
}

// Member is one monster type in a group. Multiplier scales hit points and
// damage of every instance.
type Member struct {
	Monster    string  `json:"monster"`
	Count      int     `json:"count"`
	Multiplier float64 `json:"multiplier"`
	// Challenge is the unscaled per-monster challenge value.
	Challenge float64 `json:"challenge"`
}

// Group is a scaled monster group.
//
// Invariant: Challenge <= Ceiling.
type Group struct {
	Members   []Member
	Challenge float64
	Target    float64
	Ceiling   float64
}

// Size returns the total monster count.
func (g Group) Size() int {
	n := 0
	for _, m := range g.Members {
		n += m.Count
	}
	return n
}

// Aggregate sums count × challenge × multiplier over members.
func Aggregate(members []Member) float64 {
	var total float64
	for _, m := range members {
		total += float64(m.Count) * m.Challenge * m.Multiplier
	}
	return total
}

// Scaler builds monster groups from a bestiary.
type Scaler struct {
	bestiary *Bestiary
}

// NewScaler creates a Scaler over b.
//
// Precondition: b must be non-nil.
func NewScaler(b *Bestiary) *Scaler {
	return &Scaler{bestiary: b}
}

type candidate struct {
	tmpl      *Template
	challenge float64
}

// Scale fills a combat slot.
//
// Precondition: every pool id exists in the bestiary; PartyLevel >= 1; Lethality > 0.
// Postcondition: the returned group is non-empty and its Challenge never
// exceeds its Ceiling.
func (s *Scaler) Scale(req Request, src dice.Source) (Group, error) {
	profile, ok := req.Tier.Profile()
	if !ok {
		return Group{}, fmt.Errorf("unknown difficulty tier %q", req.Tier)
	}
	cands, err := s.candidates(req)
	if err != nil {
		return Group{}, err
	}

	ceiling := Ceiling(req.Tier, req.PartyLevel, req.Lethality)
	depth := math.Max(0, math.Min(1, req.Depth))
	target := ceiling * (profile.Floor + (1-profile.Floor)*depth)
	if req.Boss {
		target = ceiling
	}

	var members []Member
	if req.Boss {
		members = s.boss(req, cands, ceiling)
	} else {
		members = accumulate(cands, ceiling, target*bandLowFraction, profile.MaxMonsters, src)
	}

	members = fit(members, cands, ceiling, target*bandLowFraction)
	return Group{
		Members:   members,
		Challenge: Aggregate(members),
		Target:    target,
		Ceiling:   ceiling,
	}, nil
}

func (s *Scaler) candidates(req Request) ([]candidate, error) {
	if len(req.Pool) == 0 {
		return nil, fmt.Errorf("monster pool must not be empty")
	}
	seen := make(map[string]bool, len(req.Pool))
	var cands []candidate
	for _, id := range req.Pool {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, ok := s.bestiary.Get(id)
		if !ok {
			return nil, fmt.Errorf("monster pool references unknown monster %q", id)
		}
		cands = append(cands, candidate{tmpl: t, challenge: t.Challenge()})
	}
	return cands, nil
}

// accumulate adds weighted random picks that fit under the ceiling until the
// aggregate reaches low or maxCount monsters are placed.
func accumulate(cands []candidate, ceiling, low float64, maxCount int, src dice.Source) []Member {
	var members []Member
	index := make(map[string]int)
	agg := 0.0
	for total := 0; total < maxCount && agg < low; total++ {
		var fits []candidate
		weight := 0
		for _, c := range cands {
			if agg+c.challenge <= ceiling {
				fits = append(fits, c)
				weight += c.tmpl.Frequency.Weight()
			}
		}
		if len(fits) == 0 {
			break
		}
		r := src.Intn(weight)
		chosen := fits[len(fits)-1]
		for _, c := range fits {
			r -= c.tmpl.Frequency.Weight()
			if r < 0 {
				chosen = c
				break
			}
		}
		if i, ok := index[chosen.tmpl.ID]; ok {
			members[i].Count++
		} else {
			index[chosen.tmpl.ID] = len(members)
			members = append(members, Member{
				Monster:    chosen.tmpl.ID,
				Count:      1,
				Multiplier: 1,
				Challenge:  chosen.challenge,
			})
		}
		agg += chosen.challenge
	}
	return members
}

func (s *Scaler) boss(req Request, cands []candidate, ceiling float64) []Member {
	if req.BossMonster != "" {
		if t, ok := s.bestiary.Get(req.BossMonster); ok {
			return []Member{{Monster: t.ID, Count: 1, Multiplier: 1, Challenge: t.Challenge()}}
		}
	}
	var best *candidate
	for i := range cands {
		c := &cands[i]
		if c.challenge > ceiling {
			continue
		}
		if best == nil || c.challenge > best.challenge {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return []Member{{Monster: best.tmpl.ID, Count: 1, Multiplier: 1, Challenge: best.challenge}}
}

// fit applies the group multiplier. An empty group becomes the weakest
// candidate scaled down to the ceiling; an over-ceiling group is scaled down;
// an under-band group is scaled up, never past the ceiling or maxMultiplier.
func fit(members []Member, cands []candidate, ceiling, low float64) []Member {
	if len(members) == 0 {
		weakest := cands[0]
		for _, c := range cands[1:] {
			if c.challenge < weakest.challenge {
				weakest = c
			}
		}
		members = []Member{{Monster: weakest.tmpl.ID, Count: 1, Multiplier: 1, Challenge: weakest.challenge}}
	}

	agg := Aggregate(members)
	mult := 1.0
	switch {
	case agg > ceiling:
		mult = ceiling / agg
	case agg < low:
		mult = math.Min(math.Min(low/agg, ceiling/agg), maxMultiplier)
	}
	if mult >= 0.001 {
		mult = math.Floor(mult*1000) / 1000
	}
	for {
		for i := range members {
			members[i].Multiplier = mult
		}
		if Aggregate(members) <= ceiling {
			break
		}
		mult *= 0.999
	}
	return members
}
