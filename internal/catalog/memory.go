package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sqwerl/internal/common/fsutil"
	"sqwerl/pkg/types"
)

// Document is the on-disk layout of a catalog file.
type Document struct {
	Root   string        `json:"root" yaml:"root" toml:"root"`
	Things []types.Thing `json:"things" yaml:"things" toml:"things"`
}

// Memory is a catalog held fully in memory, typically loaded from a file.
type Memory struct {
	root   string
	things map[string]types.Thing
}

// NewMemory indexes things and checks that every collection member exists.
// Parents are inferred from collection membership when not set.
func NewMemory(root string, things []types.Thing) (*Memory, error) {
	m := &Memory{root: root, things: make(map[string]types.Thing, len(things))}
	for _, t := range things {
		if t.ID == "" {
			return nil, fmt.Errorf("thing without id")
		}
		if _, dup := m.things[t.ID]; dup {
			return nil, fmt.Errorf("duplicate thing id: %s", t.ID)
		}
		m.things[t.ID] = t
	}
	if _, ok := m.things[root]; !ok {
		return nil, fmt.Errorf("root thing %q not defined", root)
	}
	for id, t := range m.things {
		for prop, members := range t.Collections {
			for _, mid := range members {
				child, ok := m.things[mid]
				if !ok {
					return nil, fmt.Errorf("%s.%s references unknown thing %q", id, prop, mid)
				}
				if prop == "children" && child.Parent == "" {
					child.Parent = id
					m.things[mid] = child
				}
			}
		}
	}
	return m, nil
}

// LoadFile reads a catalog document based on its extension.
// Supports: .yaml/.yml, .json, .toml
func LoadFile(path string) (*Memory, error) {
	if path == "" {
		return nil, fmt.Errorf("empty catalog path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var doc Document
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &doc)
	case ".json":
		err = json.Unmarshal(b, &doc)
	case ".toml":
		err = toml.Unmarshal(b, &doc)
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(p), err)
	}
	if doc.Root == "" {
		doc.Root = "root"
	}
	return NewMemory(doc.Root, doc.Things)
}

func (m *Memory) Root() string { return m.root }
func (m *Memory) Ready() bool  { return true }

func (m *Memory) Thing(id string) (types.Thing, error) {
	t, ok := m.things[id]
	if !ok {
		return types.Thing{}, ErrNotFound("thing", id)
	}
	return t, nil
}

// Properties lists the collection property names of id in sorted order.
func (m *Memory) Properties(id string) []string {
	t := m.things[id]
	out := make([]string, 0, len(t.Collections))
	for k := range t.Collections {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) collection(id, property string) ([]string, error) {
	t, ok := m.things[id]
	if !ok {
		return nil, ErrNotFound("thing", id)
	}
	ids, ok := t.Collections[property]
	if !ok {
		return nil, ErrNotFound("property", id+"."+property)
	}
	return ids, nil
}

func (m *Memory) Size(id, property string) (int, error) {
	ids, err := m.collection(id, property)
	return len(ids), err
}

func (m *Memory) Members(id, property string, offset, limit int) ([]types.Item, int, error) {
	if err := checkWindow(offset, limit); err != nil {
		return nil, 0, err
	}
	ids, err := m.collection(id, property)
	if err != nil {
		return nil, 0, err
	}
	start, end := span(offset, limit, len(ids))
	out := make([]types.Item, 0, end-start)
	for i, mid := range ids[start:end] {
		it := m.things[mid].Summary()
		it.Offset = start + i
		out = append(out, it)
	}
	return out, len(ids), nil
}
