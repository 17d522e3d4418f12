package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/events"
)

const (
	// SourceName identifies the MusicBrainz source among registered sources.
	SourceName = "musicbrainz"

	// DataSource is the DataSource of every AlbumInfo built by this package.
	DataSource = "MusicBrainz"

	defaultSearchLimit = 5
)

// API is the subset of Client used by Source.
// This interface allows for easy mocking in tests.
type API interface {
	SearchReleases(ctx context.Context, artist, album string, limit int) ([]Release, error)
	GetReleaseRaw(ctx context.Context, mbid string) ([]byte, error)
}

// SourceOptions tunes a Source.
type SourceOptions struct {
	SearchLimit  int     // releases resolved per search (default 5)
	SourceWeight float64 // penalty added to candidates from this source
}

// Source is the MusicBrainz metadata source. Every release it fetches is
// announced on the bus twice: raw, then converted.
type Source struct {
	api  API
	bus  *events.Bus
	log  *slog.Logger
	opts SourceOptions
}

// NewSource creates a MusicBrainz source. bus and logger may be nil.
func NewSource(api API, bus *events.Bus, logger *slog.Logger, opts SourceOptions) *Source {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{api: api, bus: bus, log: logger, opts: opts}
}

// Name implements autotag.MetadataSource.
func (s *Source) Name() string {
	return SourceName
}

// AlbumForID fetches a release by ID. A release that does not exist yields
// (nil, nil).
func (s *Source) AlbumForID(ctx context.Context, id string) (*autotag.AlbumInfo, error) {
	body, err := s.api.GetReleaseRaw(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.log.Debug("release not found", "album_id", id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get release %s: %w", id, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode release %s: %w", id, err)
	}
	s.bus.Send(events.AlbumExtract, raw)

	var resp releaseDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode release %s: %w", id, err)
	}

	info := convertAlbumInfo(resp)
	s.bus.Send(events.AlbumInfoReceived, info)
	return info, nil
}

// Candidates implements autotag.MetadataSource. When an item already carries
// a release ID that resolves, that release is the only candidate; otherwise
// MusicBrainz is searched by artist and album.
func (s *Source) Candidates(
	ctx context.Context,
	items []*autotag.Item,
	artist, album string,
	vaLikely bool,
) ([]autotag.Candidate, error) {
	seen := make(map[string]bool)
	for _, item := range items {
		id := item.MBReleaseID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		info, err := s.AlbumForID(ctx, id)
		if err != nil {
			s.log.Debug("release id from tags did not resolve", "album_id", id, "error", err)
			continue
		}
		if info != nil {
			s.log.Debug("using release id from tags", "album_id", id)
			return []autotag.Candidate{info}, nil
		}
	}

	if vaLikely {
		artist = ""
	}
	if artist == "" && album == "" {
		return nil, nil
	}

	releases, err := s.api.SearchReleases(ctx, artist, album, s.opts.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search releases: %w", err)
	}
	s.log.Debug("release search", "artist", artist, "album", album, "results", len(releases))

	var candidates []autotag.Candidate
	for _, r := range releases {
		if len(candidates) >= s.opts.SearchLimit {
			break
		}
		info, err := s.AlbumForID(ctx, r.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn("fetch release failed", "album_id", r.ID, "error", err)
			continue
		}
		if info != nil {
			candidates = append(candidates, info)
		}
	}
	return candidates, nil
}

// AlbumDistance implements autotag.MetadataSource by penalizing candidates
// that come from MusicBrainz with the configured source weight.
func (s *Source) AlbumDistance(_ []*autotag.Item, c autotag.Candidate, _ *autotag.Mapping) *autotag.Distance {
	dist := autotag.NewDistance()
	if s.opts.SourceWeight > 0 && c.AlbumInfo().DataSource == DataSource {
		dist.Add("source", s.opts.SourceWeight)
	}
	return dist
}

// convertAlbumInfo converts a raw release details response.
func convertAlbumInfo(r releaseDetailsResponse) *autotag.AlbumInfo {
	info := &autotag.AlbumInfo{
		AlbumID:    r.ID,
		Album:      r.Title,
		Artist:     extractArtist(r.ArtistCredit),
		Status:     r.Status,
		Country:    r.Country,
		Year:       extractYear(r.Date),
		Mediums:    len(r.Media),
		DataSource: DataSource,
	}

	if len(r.ArtistCredit) > 0 {
		info.ArtistID = r.ArtistCredit[0].Artist.ID
		info.VA = info.ArtistID == autotag.VariousArtistsID
	}
	if r.ReleaseGroup != nil {
		info.ReleaseGroupID = r.ReleaseGroup.ID
		info.AlbumType = r.ReleaseGroup.PrimaryType
	}
	if r.TextRepresentation != nil {
		info.Script = r.TextRepresentation.Script
		info.Language = r.TextRepresentation.Language
	}
	if len(r.LabelInfo) > 0 {
		info.CatalogNum = r.LabelInfo[0].CatalogNumber
		if r.LabelInfo[0].Label != nil {
			info.Label = r.LabelInfo[0].Label.Name
		}
	}

	index := 0
	for _, m := range r.Media {
		if info.Media == "" {
			info.Media = m.Format
		}
		for _, t := range m.Tracks {
			index++
			ti := &autotag.TrackInfo{
				TrackID:     t.ID,
				Title:       t.Title,
				Artist:      extractArtist(t.ArtistCredit),
				Index:       index,
				Medium:      m.Position,
				MediumIndex: t.Position,
				Length:      time.Duration(t.Length) * time.Millisecond,
			}
			if ti.Length == 0 && t.Recording != nil {
				ti.Length = time.Duration(t.Recording.Length) * time.Millisecond
			}
			if ti.Artist == "" {
				ti.Artist = info.Artist
			}
			info.Tracks = append(info.Tracks, ti)
		}
	}

	return info
}
