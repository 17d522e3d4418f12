package autotag

import (
	"context"
	"log/slog"
	"slices"
)

// MetadataSource proposes candidate releases for a group of items and may
// contribute its own penalties to every candidate's distance.
type MetadataSource interface {
	Name() string
	Candidates(ctx context.Context, items []*Item, artist, album string, vaLikely bool) ([]Candidate, error)
	AlbumDistance(items []*Item, c Candidate, mapping *Mapping) *Distance
}

// Thresholds are the distances under which a best candidate earns a
// recommendation.
type Thresholds struct {
	Strong float64
	Medium float64
}

// DefaultThresholds are used when a Matcher is built with zero thresholds.
var DefaultThresholds = Thresholds{Strong: 0.04, Medium: 0.1}

// Matcher gathers candidates from its registered sources and scores them.
// It is not safe for concurrent use; one group of items is tagged at a time.
type Matcher struct {
	sources    []MetadataSource
	thresholds Thresholds
	log        *slog.Logger
}

// NewMatcher creates a matcher with no sources.
func NewMatcher(thresholds Thresholds, logger *slog.Logger) *Matcher {
	if thresholds.Strong <= 0 {
		thresholds.Strong = DefaultThresholds.Strong
	}
	if thresholds.Medium <= 0 {
		thresholds.Medium = DefaultThresholds.Medium
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Matcher{thresholds: thresholds, log: logger}
}

// Register adds a source. Sources are queried in registration order.
func (m *Matcher) Register(src MetadataSource) {
	m.sources = append(m.sources, src)
}

// HasSource reports whether a source with the given name is registered.
func (m *Matcher) HasSource(name string) bool {
	return slices.ContainsFunc(m.sources, func(s MetadataSource) bool {
		return s.Name() == name
	})
}

// Distance computes the full distance of c: the base album distance followed
// by the penalties of every registered source.
func (m *Matcher) Distance(items []*Item, c Candidate, mapping *Mapping) *Distance {
	dist := AlbumDistance(items, c, mapping)
	for _, src := range m.sources {
		dist.Update(src.AlbumDistance(items, c, mapping))
	}
	return dist
}

// TagAlbum queries every source for items and returns the current artist and
// album along with the scored candidates, best first. A source that fails is
// logged and skipped.
func (m *Matcher) TagAlbum(ctx context.Context, items []*Item) (string, string, Proposal, error) {
	likely := CurrentMetadata(items)
	vaLikely := VALikely(items)
	m.log.Debug("tagging album",
		"artist", likely.Artist, "album", likely.Album, "va_likely", vaLikely, "items", len(items))

	seen := make(map[string]bool)
	var matches []*AlbumMatch
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return "", "", Proposal{}, err
		}

		candidates, err := src.Candidates(ctx, items, likely.Artist, likely.Album, vaLikely)
		if err != nil {
			m.log.Warn("candidate search failed", "source", src.Name(), "error", err)
			continue
		}

		for _, c := range candidates {
			info := c.AlbumInfo()
			if info.AlbumID != "" && seen[info.AlbumID] {
				m.log.Debug("duplicate candidate", "album_id", info.AlbumID)
				continue
			}
			seen[info.AlbumID] = true
			matches = append(matches, m.match(items, c))
		}
	}

	slices.SortStableFunc(matches, func(a, b *AlbumMatch) int {
		switch {
		case a.Distance.Less(b.Distance):
			return -1
		case b.Distance.Less(a.Distance):
			return 1
		}
		return 0
	})

	return likely.Artist, likely.Album, Proposal{
		Candidates:     matches,
		Recommendation: m.recommend(matches),
	}, nil
}

func (m *Matcher) match(items []*Item, c Candidate) *AlbumMatch {
	mapping, extraItems, extraTracks := AssignItems(items, c.AlbumInfo().Tracks)
	dist := m.Distance(items, c, mapping)
	m.log.Debug("candidate scored",
		"album_id", c.AlbumInfo().AlbumID, "album", c.AlbumInfo().Album, "distance", dist.Value())
	return &AlbumMatch{
		Distance:    dist,
		Info:        c,
		Mapping:     mapping,
		ExtraItems:  extraItems,
		ExtraTracks: extraTracks,
	}
}

func (m *Matcher) recommend(matches []*AlbumMatch) Recommendation {
	if len(matches) == 0 {
		return RecNone
	}
	best := matches[0].Distance.Value()
	switch {
	case best <= m.thresholds.Strong:
		return RecStrong
	case best <= m.thresholds.Medium:
		return RecMedium
	default:
		return RecLow
	}
}
