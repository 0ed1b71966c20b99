package types

import (
	"encoding/json"
	"fmt"
)

// Item is one entity in a remote collection.
//
// On the wire an item is a flat JSON object carrying at least an "id"; every
// other property lands in Payload untouched. Offset is not transmitted, it is
// assigned from the position of the item inside a collection page.
type Item struct {
	// Stable identifier, unchanged across reloads.
	// example: 6f1c0c36-5f0e-5a4e-9a43-3b9f0c0f6b7e
	ID string `json:"id" example:"6f1c0c36-5f0e-5a4e-9a43-3b9f0c0f6b7e"`
	// Absolute position inside the collection (0-based).
	Offset int `json:"-"`
	// Server attributes (name, type, ...), opaque to the loader.
	Payload map[string]any `json:"-"`
}

// Name returns the "name" attribute if present.
func (it Item) Name() string {
	if s, ok := it.Payload["name"].(string); ok {
		return s
	}
	return ""
}

// Type returns the "type" attribute if present.
func (it Item) Type() string {
	if s, ok := it.Payload["type"].(string); ok {
		return s
	}
	return ""
}

// MarshalJSON flattens Payload next to the id.
func (it Item) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(it.Payload)+1)
	for k, v := range it.Payload {
		m[k] = v
	}
	m["id"] = it.ID
	return json.Marshal(m)
}

// UnmarshalJSON splits the object into ID and Payload. An item without a
// string id is rejected.
func (it *Item) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("item: not an object")
	}
	id, ok := m["id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("item: missing id")
	}
	delete(m, "id")
	it.ID = id
	it.Payload = m
	return nil
}

// Thing is a node of the server-held hierarchy.
type Thing struct {
	// Stable identifier.
	// example: root
	ID string `json:"id" yaml:"id" toml:"id"`
	// Human-friendly name.
	// example: Things
	Name string `json:"name" yaml:"name" toml:"name"`
	// Type name, e.g. Folder or Document.
	// example: Folder
	Type string `json:"type,omitempty" yaml:"type" toml:"type"`
	// Parent id, empty for the root.
	Parent string `json:"parent,omitempty" yaml:"parent" toml:"parent"`
	// Collection properties keyed by name (e.g. "children"); values are thing ids.
	Collections map[string][]string `json:"-" yaml:"collections" toml:"collections"`
	// Free-form attributes.
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes" toml:"attributes"`
}

// Summary projects a thing into the member representation used inside
// collection pages.
func (t Thing) Summary() Item {
	p := map[string]any{"name": t.Name}
	if t.Type != "" {
		p["type"] = t.Type
	}
	return Item{ID: t.ID, Payload: p}
}
