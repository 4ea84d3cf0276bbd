package world

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// authoringDefaults are filled into hand-authored room entries that omit them.
var authoringDefaults = map[string]func() any{
	"description": func() any { return "" },
	"light_level": func() any { return string(Dark) },
	"exits":       func() any { return map[string]any{} },
	"items":       func() any { return []any{} },
	"encounter":   func() any { return nil },
	"safe_rest":   func() any { return false },
	"explored":    func() any { return false },
}

// LoadFile reads a hand-authored dungeon in JSON (.json) or YAML (.yaml, .yml).
//
// Precondition: path must point to a readable dungeon file.
// Postcondition: Returns a validated Dungeon or a non-nil error.
func LoadFile(path string) (*Dungeon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dungeon file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadAuthoredYAML(data)
	case ".json":
		return LoadAuthoredJSON(data)
	default:
		return nil, fmt.Errorf("dungeon file %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

// LoadAuthoredYAML parses a hand-authored YAML dungeon.
//
// The document is converted to a JSON snapshot and goes through Deserialize,
// so authored and generated dungeons are validated identically.
func LoadAuthoredYAML(data []byte) (*Dungeon, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing dungeon YAML: %w", err)
	}
	return loadAuthored(doc)
}

// LoadAuthoredJSON parses a hand-authored JSON dungeon, filling authoring
// defaults before Deserialize.
func LoadAuthoredJSON(data []byte) (*Dungeon, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing dungeon JSON: %w", err)
	}
	return loadAuthored(doc)
}

func loadAuthored(doc map[string]any) (*Dungeon, error) {
	if doc == nil {
		return nil, &ValidationError{Field: "snapshot", Reason: "empty document"}
	}
	if rooms, ok := doc["rooms"].(map[string]any); ok {
		for key, raw := range rooms {
			room, ok := raw.(map[string]any)
			if !ok {
				return nil, &ValidationError{Room: key, Field: "room", Reason: "must be a mapping"}
			}
			if _, ok := room["id"]; !ok {
				room["id"] = key
			}
			for field, def := range authoringDefaults {
				if _, ok := room[field]; !ok {
					room[field] = def()
				}
			}
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding authored dungeon: %w", err)
	}
	return Deserialize(data)
}
