package npc

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed monsters.yaml
var defaultMonsters []byte

// Bestiary indexes validated monster templates by id.
type Bestiary struct {
	templates map[string]*Template
}

// NewBestiary builds a Bestiary from the given templates.
//
// Postcondition: Returns a Bestiary, or an error on a duplicate id or an
// invalid template.
func NewBestiary(templates []*Template) (*Bestiary, error) {
	b := &Bestiary{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := b.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate monster template id %q", t.ID)
		}
		b.templates[t.ID] = t
	}
	return b, nil
}

// LoadBestiaryFromBytes parses a YAML list of templates.
func LoadBestiaryFromBytes(data []byte) (*Bestiary, error) {
	var templates []*Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parsing bestiary YAML: %w", err)
	}
	return NewBestiary(templates)
}

// LoadBestiary reads every *.yaml file in dir; each file holds a list of templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the combined bestiary or the first read, parse, or
// validation error.
func LoadBestiary(dir string) (*Bestiary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading bestiary dir %q: %w", dir, err)
	}

	var all []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var templates []*Template
		if err := yaml.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		all = append(all, templates...)
	}
	return NewBestiary(all)
}

var (
	defaultOnce     sync.Once
	defaultBestiary *Bestiary
)

// DefaultBestiary returns the embedded bestiary.
func DefaultBestiary() *Bestiary {
	defaultOnce.Do(func() {
		b, err := LoadBestiaryFromBytes(defaultMonsters)
		if err != nil {
			panic("npc: embedded bestiary invalid: " + err.Error())
		}
		defaultBestiary = b
	})
	return defaultBestiary
}

// Get returns the template with the given id.
func (b *Bestiary) Get(id string) (*Template, bool) {
	t, ok := b.templates[id]
	return t, ok
}

// IDs returns all template ids in sorted order.
func (b *Bestiary) IDs() []string {
	ids := make([]string, 0, len(b.templates))
	for id := range b.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of templates.
func (b *Bestiary) Len() int {
	return len(b.templates)
}
