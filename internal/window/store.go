package window

import "sqwerl/pkg/types"

// Store is a sparse, order-preserving array of slots. Only loaded items are
// held in memory; placeholder slots are synthesized on read, so a collection
// of any size costs memory proportional to what has been fetched.
//
// Store is not safe for concurrent use; the Loader serializes access.
type Store struct {
	total  int
	known  bool
	loaded map[int]types.Item
}

// NewStore returns an empty store whose size is not known yet.
func NewStore() *Store {
	return &Store{loaded: make(map[int]types.Item)}
}

// Initialize discards all content and creates total placeholder slots.
func (s *Store) Initialize(total int) {
	if total < 0 {
		total = 0
	}
	s.total = total
	s.known = true
	s.loaded = make(map[int]types.Item)
}

// Reset returns the store to the unknown-size state.
func (s *Store) Reset() {
	s.total = 0
	s.known = false
	s.loaded = make(map[int]types.Item)
}

// Known reports whether the collection size has been revealed.
func (s *Store) Known() bool { return s.known }

// Len is the current slot count.
func (s *Store) Len() int { return s.total }

// LoadedCount is the number of materialized slots.
func (s *Store) LoadedCount() int { return len(s.loaded) }

// Get returns the slot at offset. Offsets outside [0, Len) read as
// placeholders.
func (s *Store) Get(offset int) Slot {
	if it, ok := s.loaded[offset]; ok {
		return Slot{Kind: SlotLoaded, Offset: offset, Item: it}
	}
	return placeholder(offset)
}

// Merge overwrites [start, start+len(items)) with loaded items and leaves
// every other slot alone. A range past the end extends the store first.
func (s *Store) Merge(start int, items []types.Item) {
	if start < 0 || len(items) == 0 {
		return
	}
	if end := start + len(items); end > s.total {
		s.total = end
	}
	for i, it := range items {
		it.Offset = start + i
		s.loaded[it.Offset] = it
	}
}

// Resize grows or truncates the store to n slots. Growing appends
// placeholders; truncating drops slots at offsets >= n. Loaded slots below n
// keep their offsets.
func (s *Store) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n < s.total {
		if s.total-n < len(s.loaded) {
			for o := n; o < s.total; o++ {
				delete(s.loaded, o)
			}
		} else {
			for o := range s.loaded {
				if o >= n {
					delete(s.loaded, o)
				}
			}
		}
	}
	s.total = n
	s.known = true
}

// FirstPlaceholder returns the first unloaded offset in [start, stop).
func (s *Store) FirstPlaceholder(start, stop int) (int, bool) {
	for o := start; o < stop; o++ {
		if _, ok := s.loaded[o]; !ok {
			return o, true
		}
	}
	return 0, false
}

// Satisfied reports whether every slot in [start, stop) is loaded.
func (s *Store) Satisfied(start, stop int) bool {
	_, missing := s.FirstPlaceholder(start, stop)
	return !missing
}
