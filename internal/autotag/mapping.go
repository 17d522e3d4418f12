package autotag

import (
	"fmt"
	"slices"
	"strings"
)

// Mapping is a one-to-one correspondence from items to the tracks of one
// candidate release.
//
// A frozen mapping is a probe: it was built for an intermediate distance
// computation and must never be mistaken for the caller-owned mapping of a
// final match. Mutating a frozen mapping panics.
type Mapping struct {
	pairs  map[*Item]*TrackInfo
	frozen bool
}

// NewMapping returns an empty, mutable mapping.
func NewMapping() *Mapping {
	return &Mapping{pairs: make(map[*Item]*TrackInfo)}
}

// Len returns the number of mapped items. A nil mapping is empty.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Get returns the track mapped to item.
func (m *Mapping) Get(item *Item) (*TrackInfo, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.pairs[item]
	return t, ok
}

// Set maps item to track.
func (m *Mapping) Set(item *Item, track *TrackInfo) {
	m.mustBeMutable("set")
	m.pairs[item] = track
}

// Update copies every pair of other into m, overwriting existing entries.
func (m *Mapping) Update(other *Mapping) {
	m.mustBeMutable("update")
	if other == nil {
		return
	}
	for item, track := range other.pairs {
		m.pairs[item] = track
	}
}

// Frozen reports whether the mapping is a read-only probe.
func (m *Mapping) Frozen() bool {
	return m != nil && m.frozen
}

// Freeze returns a frozen copy of m.
func (m *Mapping) Freeze() *Mapping {
	c := &Mapping{pairs: make(map[*Item]*TrackInfo, m.Len()), frozen: true}
	if m != nil {
		for item, track := range m.pairs {
			c.pairs[item] = track
		}
	}
	return c
}

// Items returns the mapped items sorted by path.
func (m *Mapping) Items() []*Item {
	if m == nil {
		return nil
	}
	items := make([]*Item, 0, len(m.pairs))
	for item := range m.pairs {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b *Item) int {
		return strings.Compare(a.Path, b.Path)
	})
	return items
}

func (m *Mapping) mustBeMutable(op string) {
	if m == nil {
		panic(fmt.Sprintf("autotag: %s on nil mapping", op))
	}
	if m.frozen {
		panic(fmt.Sprintf("autotag: %s on frozen mapping", op))
	}
}
