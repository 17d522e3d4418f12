package mbpseudo

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/musicbrainz"
)

// Candidates implements autotag.MetadataSource.
//
// If an intercepted official release has already been matched against
// exactly these items, its pseudo-releases are fetched and returned. Else,
// unless the main MusicBrainz source is registered (it will feed the plugin
// through the bus), official releases are searched here and run through the
// same interception; when that matches one, a second and final resolution
// pass produces its pseudo-releases.
func (p *Plugin) Candidates(
	ctx context.Context,
	items []*autotag.Item,
	artist, album string,
	vaLikely bool,
) ([]autotag.Candidate, error) {
	if len(p.cfg.Scripts) == 0 {
		return nil, nil
	}

	if officialID, ok := p.resolvedOfficial(items); ok {
		return p.pseudoReleases(ctx, items, officialID), nil
	}

	if p.host.HasSource(musicbrainz.SourceName) {
		p.log.Debug("no releases found by main MusicBrainz source")
		return nil, nil
	}

	p.log.Debug("searching for official releases", "artist", artist, "album", album)
	official, err := p.mb.Candidates(ctx, items, artist, album, vaLikely)
	if err != nil {
		return nil, fmt.Errorf("search official releases: %w", err)
	}

	if !p.simulateInterception(items, official) {
		return official, nil
	}

	if !p.cfg.IncludeOfficialReleases {
		official = nil
	}

	officialID, ok := p.resolvedOfficial(items)
	if !ok {
		panic("mbpseudo: matched official release is not resolvable for its own items")
	}
	return append(p.pseudoReleases(ctx, items, officialID), official...), nil
}

// resolvedOfficial finds the intercepted official release whose mapping
// covers only paths of items. Releases are checked in ID order.
func (p *Plugin) resolvedOfficial(items []*autotag.Item) (string, bool) {
	paths := make(map[string]struct{}, len(items))
	for _, item := range items {
		paths[item.Path] = struct{}{}
	}

	for _, id := range slices.Sorted(maps.Keys(p.intercepted)) {
		info := p.intercepted[id]
		if info.Mapping == nil {
			continue
		}
		covered := true
		for _, item := range info.Mapping.Items() {
			if _, ok := paths[item.Path]; !ok {
				covered = false
				break
			}
		}
		if covered {
			return id, true
		}
	}
	return "", false
}

// pseudoReleases fetches the pending pseudo-releases of officialID, picks the
// reference side of each, and consumes both registry entries. Releases that
// cannot be fetched are skipped.
func (p *Plugin) pseudoReleases(ctx context.Context, items []*autotag.Item, officialID string) []autotag.Candidate {
	ids := p.pseudoReleaseIDs[officialID]
	official := p.intercepted[officialID]
	p.log.Debug("processing pseudo-releases", "album_id", officialID, "pseudo_releases", ids)

	var candidates []autotag.Candidate
	for _, id := range ids {
		match, err := p.mb.AlbumForID(ctx, id)
		if err != nil {
			p.log.Warn("fetch pseudo-release failed", "album_id", id, "error", err)
			continue
		}
		if match == nil {
			continue
		}

		pseudo := NewPseudoAlbumInfo(match, official, DataSource)
		ref := pseudo.DetermineBestRef(items, p.host)
		p.log.Debug("using release for distance calculations", "source", ref.String(), "album_id", id)
		candidates = append(candidates, pseudo)
	}

	delete(p.pseudoReleaseIDs, officialID)
	delete(p.intercepted, officialID)
	return candidates
}

// simulateInterception feeds official candidates through the interception
// the bus would have done, then maps every intercepted one against items.
// It reports whether any official candidate was intercepted.
func (p *Plugin) simulateInterception(items []*autotag.Item, official []autotag.Candidate) bool {
	matched := false
	for _, c := range official {
		albumID := c.AlbumInfo().AlbumID
		if _, pending := p.pseudoReleaseIDs[albumID]; pending {
			p.interceptCandidate(c)
		}
		if intercepted, ok := p.intercepted[albumID]; ok {
			intercepted.Mapping, _, _ = autotag.AssignItems(items, intercepted.Tracks)
			matched = true
		}
	}
	return matched
}
