package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/observability"
)

// FileStore keeps one JSON document per scenario in a directory.
// Files are named "<slug>_<id>.json" and rewritten whole on every save.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore opens dir, creating it if needed.
//
// Postcondition: Returns a usable store or an error if dir cannot be created.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scenario dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: observability.Component(logger, "scenario")}, nil
}

// Dir returns the directory backing the store.
func (f *FileStore) Dir() string { return f.dir }

// Save writes s, replacing any earlier file for the same id.
func (f *FileStore) Save(ctx context.Context, s Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("saving scenario %q: empty id", s.Name)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scenario %s: %w", s.ID, err)
	}
	path := filepath.Join(f.dir, FileName(s))
	if old, _, err := f.find(ctx, s.ID); err == nil && old != path {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("replacing scenario %s: %w", s.ID, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenario %s: %w", s.ID, err)
	}
	f.logger.Debug("scenario saved", zap.String("id", s.ID), zap.String("path", path))
	return nil
}

// Load returns the scenario with id.
func (f *FileStore) Load(ctx context.Context, id string) (Scenario, error) {
	_, s, err := f.find(ctx, id)
	return s, err
}

// LoadByName returns the first scenario whose name matches, ignoring case.
func (f *FileStore) LoadByName(ctx context.Context, name string) (Scenario, error) {
	all, err := f.scan(ctx)
	if err != nil {
		return Scenario{}, err
	}
	for _, e := range all {
		if strings.EqualFold(e.scenario.Name, name) {
			return e.scenario, nil
		}
	}
	return Scenario{}, fmt.Errorf("scenario named %q: %w", name, ErrNotFound)
}

// List returns summaries of every readable scenario file, sorted by name.
// Unreadable files are logged and skipped.
func (f *FileStore) List(ctx context.Context) ([]Summary, error) {
	all, err := f.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(all))
	for _, e := range all {
		out = append(out, e.scenario.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the scenario file for id.
func (f *FileStore) Delete(ctx context.Context, id string) error {
	path, _, err := f.find(ctx, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting scenario %s: %w", id, err)
	}
	return nil
}

// FileName returns the file name used for s.
func FileName(s Scenario) string {
	return slug(s.Name) + "_" + s.ID + ".json"
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

type entry struct {
	path     string
	scenario Scenario
}

func (f *FileStore) find(ctx context.Context, id string) (string, Scenario, error) {
	all, err := f.scan(ctx)
	if err != nil {
		return "", Scenario{}, err
	}
	for _, e := range all {
		if e.scenario.ID == id {
			return e.path, e.scenario, nil
		}
	}
	return "", Scenario{}, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
}

func (f *FileStore) scan(ctx context.Context) ([]entry, error) {
	paths, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	sort.Strings(paths)
	out := make([]entry, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			f.logger.Warn("skipping unreadable scenario", zap.String("path", p), zap.Error(err))
			continue
		}
		var s Scenario
		if err := json.Unmarshal(data, &s); err != nil || s.ID == "" {
			f.logger.Warn("skipping malformed scenario", zap.String("path", p), zap.Error(err))
			continue
		}
		out = append(out, entry{path: p, scenario: s})
	}
	return out, nil
}
