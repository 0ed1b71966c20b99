package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"sqwerl/pkg/types"
)

// Synthetic is an arbitrarily large generated hierarchy. Nothing is
// materialized: members are computed for each requested window.
//
// Ids are dotted paths: "root", "root.17", "root.17.3". The root has size
// children, each of those has fanout children, deeper things are leaves.
type Synthetic struct {
	size   int
	fanout int
	ns     uuid.UUID
}

const syntheticRoot = "root"

// syntheticNamespace seeds the stable per-thing UUIDs.
var syntheticNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sqwerl.com/things"))

// NewSynthetic returns a generated catalog.
func NewSynthetic(size, fanout int) (*Synthetic, error) {
	if size < 0 || fanout < 0 {
		return nil, fmt.Errorf("synthetic catalog: size and fanout must be >= 0")
	}
	return &Synthetic{size: size, fanout: fanout, ns: syntheticNamespace}, nil
}

func (s *Synthetic) Root() string { return syntheticRoot }
func (s *Synthetic) Ready() bool  { return true }

// parse returns the path indexes of id, or false when id is not a thing.
func (s *Synthetic) parse(id string) ([]int, bool) {
	parts := strings.Split(id, ".")
	if parts[0] != syntheticRoot || len(parts) > 3 {
		return nil, false
	}
	var idx []int
	limits := []int{s.size, s.fanout}
	for i, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] || strconv.Itoa(n) != p {
			return nil, false
		}
		idx = append(idx, n)
	}
	return idx, true
}

func (s *Synthetic) childCount(depth int) int {
	switch depth {
	case 0:
		return s.size
	case 1:
		return s.fanout
	}
	return 0
}

func (s *Synthetic) thing(id string, idx []int) types.Thing {
	t := types.Thing{
		ID:         id,
		Type:       "Document",
		Attributes: map[string]any{"uuid": uuid.NewSHA1(s.ns, []byte(id)).String()},
	}
	if len(idx) == 0 {
		t.Name = "Things"
	} else {
		t.Name = fmt.Sprintf("Thing %d", idx[len(idx)-1])
		t.Parent = id[:strings.LastIndex(id, ".")]
	}
	if len(idx) < 2 && s.childCount(len(idx)) > 0 {
		t.Type = "Folder"
	}
	return t
}

func (s *Synthetic) Thing(id string) (types.Thing, error) {
	idx, ok := s.parse(id)
	if !ok {
		return types.Thing{}, ErrNotFound("thing", id)
	}
	return s.thing(id, idx), nil
}

func (s *Synthetic) Properties(id string) []string {
	if _, ok := s.parse(id); !ok {
		return nil
	}
	return []string{"children"}
}

func (s *Synthetic) Size(id, property string) (int, error) {
	idx, ok := s.parse(id)
	if !ok {
		return 0, ErrNotFound("thing", id)
	}
	if property != "children" {
		return 0, ErrNotFound("property", id+"."+property)
	}
	return s.childCount(len(idx)), nil
}

func (s *Synthetic) Members(id, property string, offset, limit int) ([]types.Item, int, error) {
	if err := checkWindow(offset, limit); err != nil {
		return nil, 0, err
	}
	total, err := s.Size(id, property)
	if err != nil {
		return nil, 0, err
	}
	idx, _ := s.parse(id)
	start, end := span(offset, limit, total)
	out := make([]types.Item, 0, end-start)
	for i := start; i < end; i++ {
		cid := id + "." + strconv.Itoa(i)
		child := s.thing(cid, append(append([]int(nil), idx...), i))
		it := child.Summary()
		it.Payload["uuid"] = child.Attributes["uuid"]
		it.Offset = i
		out = append(out, it)
	}
	return out, total, nil
}
