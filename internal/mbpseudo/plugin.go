// Package mbpseudo adds MusicBrainz pseudo-releases as import candidates.
//
// A pseudo-release is a translated or transliterated tracklisting of an
// official release. The plugin watches releases fetched from MusicBrainz,
// remembers which of them link to pseudo-releases in a wanted script, and once
// the official release has been matched against a group of items it proposes
// the pseudo-releases for the same group.
package mbpseudo

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/events"
)

const (
	// Name identifies the plugin among registered sources.
	Name = "mbpseudo"

	// DataSource is reported by every pseudo-release candidate.
	DataSource = "MusicBrainzPseudoRelease"

	relationTranslation = "transl-tracklisting"
	directionForward    = "forward"
	statusPseudoRelease = "pseudo-release"
)

// Config holds the plugin settings.
type Config struct {
	// Scripts lists the wanted scripts (e.g. "Latn"). Empty disables the plugin.
	Scripts []string
	// IncludeOfficialReleases keeps official candidates alongside the
	// pseudo-releases the plugin found through them.
	IncludeOfficialReleases bool
	// SourceWeight is the penalty added to pseudo-release candidates.
	SourceWeight float64
}

// OfficialSource searches official releases and fetches releases by ID.
type OfficialSource interface {
	Candidates(ctx context.Context, items []*autotag.Item, artist, album string, vaLikely bool) ([]autotag.Candidate, error)
	AlbumForID(ctx context.Context, id string) (*autotag.AlbumInfo, error)
}

// Host is the importer the plugin is registered with.
type Host interface {
	Scorer
	HasSource(name string) bool
}

// Plugin is the pseudo-release metadata source. Its registries live for one
// import session and are not safe for concurrent use.
type Plugin struct {
	cfg  Config
	mb   OfficialSource
	host Host
	log  *slog.Logger

	// official release ID -> wanted pseudo-release IDs, in relation order
	pseudoReleaseIDs map[string][]string
	// official release ID -> snapshot of its candidate
	intercepted map[string]*autotag.AlbumInfo
}

// New creates the plugin and subscribes it to the bus.
func New(cfg Config, mb OfficialSource, host Host, bus *events.Bus, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Plugin{
		cfg:              cfg,
		mb:               mb,
		host:             host,
		log:              logger.With("plugin", Name),
		pseudoReleaseIDs: make(map[string][]string),
		intercepted:      make(map[string]*autotag.AlbumInfo),
	}

	if bus != nil {
		bus.Subscribe(events.AlbumExtract, func(payload any) {
			if data, ok := payload.(map[string]any); ok {
				p.interceptRelease(data)
			}
		})
		bus.Subscribe(events.AlbumInfoReceived, func(payload any) {
			if c, ok := payload.(autotag.Candidate); ok {
				p.interceptCandidate(c)
			}
		})
	}

	p.log.Debug("desired scripts", "scripts", cfg.Scripts)
	return p
}

// Name implements autotag.MetadataSource.
func (p *Plugin) Name() string {
	return Name
}

// AlbumForID always returns nothing: pseudo-releases are only proposed
// through their official release.
func (p *Plugin) AlbumForID(context.Context, string) (*autotag.AlbumInfo, error) {
	return nil, nil
}

// interceptRelease records the wanted pseudo-releases of a raw release.
func (p *Plugin) interceptRelease(data map[string]any) {
	albumID, ok := data["id"].(string)
	if !ok || albumID == "" {
		return
	}
	if _, pending := p.pseudoReleaseIDs[albumID]; pending {
		return
	}

	var ids []string
	for _, rel := range relations(data) {
		if id, ok := p.wantedPseudoReleaseID(rel); ok {
			ids = append(ids, id)
		}
	}

	if len(ids) > 0 {
		p.log.Debug("intercepted release", "album_id", albumID, "pseudo_releases", ids)
		p.pseudoReleaseIDs[albumID] = ids
	}
}

// relations returns the relation objects of a raw release.
func relations(data map[string]any) []map[string]any {
	list, ok := data["relations"].([]any)
	if !ok {
		list, _ = data["release-relation-list"].([]any)
	}
	rels := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if rel, ok := v.(map[string]any); ok {
			rels = append(rels, rel)
		}
	}
	return rels
}

// wantedPseudoReleaseID returns the ID of the release a relation points to
// when the relation is a forward translation into a wanted script. A release
// without a text representation is assumed to be in the first wanted script.
func (p *Plugin) wantedPseudoReleaseID(rel map[string]any) (string, bool) {
	if len(p.cfg.Scripts) == 0 {
		return "", false
	}
	if relType, _ := rel["type"].(string); relType != relationTranslation {
		return "", false
	}
	if direction, _ := rel["direction"].(string); direction != directionForward {
		return "", false
	}
	release, ok := rel["release"].(map[string]any)
	if !ok {
		return "", false
	}

	script := p.cfg.Scripts[0]
	if repr, ok := release["text-representation"].(map[string]any); ok {
		if v, present := repr["script"]; present {
			s, ok := v.(string)
			if !ok {
				return "", false
			}
			script = s
		}
	}

	id, ok := release["id"].(string)
	if !ok || id == "" || !slices.Contains(p.cfg.Scripts, script) {
		return "", false
	}
	return id, true
}

// interceptCandidate snapshots official candidates that have pending
// pseudo-releases, and drops pending entries that turn out to point at a
// release which is itself a pseudo-release.
func (p *Plugin) interceptCandidate(c autotag.Candidate) {
	info := c.AlbumInfo()
	if info == nil {
		return
	}

	if strings.EqualFold(info.Status, statusPseudoRelease) {
		p.purgePseudoTarget(info.AlbumID)
		return
	}

	if _, isPseudo := c.(*PseudoAlbumInfo); isPseudo {
		return
	}
	if _, pending := p.pseudoReleaseIDs[info.AlbumID]; !pending {
		return
	}
	if _, done := p.intercepted[info.AlbumID]; done {
		return
	}

	p.log.Debug("intercepted candidate", "album_id", info.AlbumID)
	p.intercepted[info.AlbumID] = info.Copy()
}

// purgePseudoTarget removes every pending entry listing id as one of its
// pseudo-releases.
func (p *Plugin) purgePseudoTarget(id string) {
	for officialID, ids := range p.pseudoReleaseIDs {
		if slices.Contains(ids, id) {
			p.log.Debug("purged pending pseudo-releases", "album_id", officialID, "pseudo_release", id)
			delete(p.pseudoReleaseIDs, officialID)
		}
	}
}

// AlbumDistance implements autotag.MetadataSource.
//
// For a pseudo-release candidate scored with a caller-owned mapping (a final
// proposal), the pseudo side is made active and the mapping is rebuilt
// against its tracks, so the proposal applies the pseudo-release even when
// the official side scored better. For an intercepted official candidate,
// the mapping is kept so the candidate can be recognized later.
func (p *Plugin) AlbumDistance(
	items []*autotag.Item,
	c autotag.Candidate,
	mapping *autotag.Mapping,
) *autotag.Distance {
	switch info := c.(type) {
	case *PseudoAlbumInfo:
		if mapping != nil && !mapping.Frozen() {
			p.log.Debug("switching to pseudo-release source for final proposal",
				"album_id", info.Pseudo().AlbumID)
			info.UsePseudoAsRef()
			fresh, _, _ := autotag.AssignItems(items, info.AlbumInfo().Tracks)
			mapping.Update(fresh)
		}
	default:
		albumID := c.AlbumInfo().AlbumID
		if entry, ok := p.intercepted[albumID]; ok {
			p.log.Debug("storing mapping", "album_id", albumID)
			entry.Mapping = mapping
		}
	}

	dist := autotag.NewDistance()
	if p.cfg.SourceWeight > 0 && c.AlbumInfo().DataSource == DataSource {
		dist.Add("source", p.cfg.SourceWeight)
	}
	return dist
}
