// Package templates holds the room presets offered when adding a room.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Room struct {
	Name  string   `yaml:"name" json:"name"`
	Items []string `yaml:"items" json:"items"`
}

type file struct {
	Rooms []Room `yaml:"rooms"`
}

// Set is an ordered list of room templates looked up by name.
type Set struct {
	rooms []Room
}

// Default returns the built-in templates.
func Default() *Set {
	s, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded room templates are invalid: %v", err))
	}
	return s
}

// Load reads templates from path, or returns the defaults when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if len(f.Rooms) == 0 {
		return nil, errors.New("no room templates defined")
	}

	seen := make(map[string]bool, len(f.Rooms))
	for i := range f.Rooms {
		r := &f.Rooms[i]
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("template %d has no name", i+1)
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate template %q", r.Name)
		}
		seen[key] = true

		items := r.Items[:0]
		for _, it := range r.Items {
			if it = strings.TrimSpace(it); it != "" {
				items = append(items, it)
			}
		}
		r.Items = items
	}
	return &Set{rooms: f.Rooms}, nil
}

// All returns a copy of every template in file order.
func (s *Set) All() []Room {
	out := make([]Room, len(s.rooms))
	for i, r := range s.rooms {
		out[i] = Room{Name: r.Name, Items: append([]string(nil), r.Items...)}
	}
	return out
}

// Find looks a template up by name, ignoring case.
func (s *Set) Find(name string) (Room, bool) {
	for _, r := range s.rooms {
		if strings.EqualFold(r.Name, strings.TrimSpace(name)) {
			return Room{Name: r.Name, Items: append([]string(nil), r.Items...)}, true
		}
	}
	return Room{}, false
}
