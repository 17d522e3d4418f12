package musicbrainz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/events"
)

type fakeAPI struct {
	releases map[string]string // id -> raw JSON
	search   []Release
	fail     map[string]error

	searchArtist, searchAlbum string
	searchLimit               int
	fetched                   []string
}

func (f *fakeAPI) SearchReleases(_ context.Context, artist, album string, limit int) ([]Release, error) {
	f.searchArtist, f.searchAlbum, f.searchLimit = artist, album, limit
	return f.search, nil
}

func (f *fakeAPI) GetReleaseRaw(_ context.Context, id string) ([]byte, error) {
	f.fetched = append(f.fetched, id)
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	raw, ok := f.releases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(raw), nil
}

const tokyoRelease = `{
	"id": "r1",
	"title": "東京ストーリー",
	"date": "2003-05-21",
	"country": "JP",
	"status": "Official",
	"artist-credit": [{"name": "Artist", "artist": {"id": "a1", "name": "Artist"}}],
	"release-group": {"id": "rg1", "primary-type": "Album"},
	"text-representation": {"language": "jpn", "script": "Jpan"},
	"label-info": [{"catalog-number": "CAT-1", "label": {"id": "l1", "name": "Label"}}],
	"media": [
		{"position": 1, "format": "CD", "tracks": [
			{"id": "t1", "position": 1, "title": "一番", "length": 200000},
			{"id": "t2", "position": 2, "title": "二番", "recording": {"id": "rec2", "length": 180000},
			 "artist-credit": [{"name": "Guest"}]}
		]},
		{"position": 2, "format": "DVD", "tracks": [
			{"id": "t3", "position": 1, "title": "三番", "length": 60000}
		]}
	],
	"relations": [{"type": "transl-tracklisting", "direction": "forward", "release": {"id": "p1"}}]
}`

const variousRelease = `{
	"id": "va1",
	"title": "Hits",
	"status": "Official",
	"artist-credit": [{"name": "Various Artists", "artist": {"id": "89ad4ac3-39f7-470e-963a-56509c546377"}}],
	"media": []
}`

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		releases: map[string]string{"r1": tokyoRelease, "va1": variousRelease},
		fail:     make(map[string]error),
	}
}

func TestSource_AlbumForID_Converts(t *testing.T) {
	src := NewSource(newFakeAPI(), nil, nil, SourceOptions{})

	info, err := src.AlbumForID(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, "r1", info.AlbumID)
	assert.Equal(t, "東京ストーリー", info.Album)
	assert.Equal(t, "Artist", info.Artist)
	assert.Equal(t, "a1", info.ArtistID)
	assert.False(t, info.VA)
	assert.Equal(t, "Official", info.Status)
	assert.Equal(t, "Jpan", info.Script)
	assert.Equal(t, "jpn", info.Language)
	assert.Equal(t, "JP", info.Country)
	assert.Equal(t, 2003, info.Year)
	assert.Equal(t, "Label", info.Label)
	assert.Equal(t, "CAT-1", info.CatalogNum)
	assert.Equal(t, "CD", info.Media)
	assert.Equal(t, 2, info.Mediums)
	assert.Equal(t, "rg1", info.ReleaseGroupID)
	assert.Equal(t, "Album", info.AlbumType)
	assert.Equal(t, DataSource, info.DataSource)

	require.Len(t, info.Tracks, 3)
	assert.Equal(t, autotag.TrackInfo{
		TrackID: "t1", Title: "一番", Artist: "Artist", Index: 1, Medium: 1, MediumIndex: 1, Length: 200 * time.Second,
	}, *info.Tracks[0])
	assert.Equal(t, 180*time.Second, info.Tracks[1].Length, "falls back to the recording length")
	assert.Equal(t, "Guest", info.Tracks[1].Artist)
	assert.Equal(t, 3, info.Tracks[2].Index)
	assert.Equal(t, 2, info.Tracks[2].Medium)
	assert.Equal(t, 1, info.Tracks[2].MediumIndex)
}

func TestSource_AlbumForID_VariousArtists(t *testing.T) {
	src := NewSource(newFakeAPI(), nil, nil, SourceOptions{})

	info, err := src.AlbumForID(context.Background(), "va1")
	require.NoError(t, err)

	assert.True(t, info.VA)
	assert.Empty(t, info.Tracks)
}

func TestSource_AlbumForID_NotFound(t *testing.T) {
	src := NewSource(newFakeAPI(), nil, nil, SourceOptions{})

	info, err := src.AlbumForID(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestSource_AlbumForID_Errors(t *testing.T) {
	api := newFakeAPI()
	api.releases["garbled"] = `{"id": `
	api.fail["down"] = errors.New("connection reset")
	src := NewSource(api, nil, nil, SourceOptions{})

	_, err := src.AlbumForID(context.Background(), "garbled")
	assert.ErrorContains(t, err, "decode release garbled")

	_, err = src.AlbumForID(context.Background(), "down")
	assert.ErrorContains(t, err, "connection reset")
}

func TestSource_AlbumForID_AnnouncesRawThenConverted(t *testing.T) {
	bus := events.NewBus()
	var order []string
	var raw map[string]any
	var converted autotag.Candidate
	bus.Subscribe(events.AlbumExtract, func(p any) {
		order = append(order, events.AlbumExtract)
		raw, _ = p.(map[string]any)
	})
	bus.Subscribe(events.AlbumInfoReceived, func(p any) {
		order = append(order, events.AlbumInfoReceived)
		converted, _ = p.(autotag.Candidate)
	})
	src := NewSource(newFakeAPI(), bus, nil, SourceOptions{})

	info, err := src.AlbumForID(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, []string{events.AlbumExtract, events.AlbumInfoReceived}, order)
	require.NotNil(t, raw)
	assert.Equal(t, "r1", raw["id"])
	assert.Len(t, raw["relations"], 1)
	assert.Same(t, info, converted)
}

func TestSource_Candidates_UsesReleaseIDFromTags(t *testing.T) {
	api := newFakeAPI()
	api.search = []Release{{ID: "va1"}}
	src := NewSource(api, nil, nil, SourceOptions{})
	items := []*autotag.Item{
		{Path: "/a/1.flac", MBReleaseID: "missing"},
		{Path: "/a/2.flac", MBReleaseID: "missing"},
		{Path: "/a/3.flac", MBReleaseID: "r1"},
	}

	got, err := src.Candidates(context.Background(), items, "Artist", "Album", false)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].AlbumInfo().AlbumID)
	assert.Equal(t, []string{"missing", "r1"}, api.fetched)
	assert.Empty(t, api.searchAlbum, "no search when a tagged id resolves")
}

func TestSource_Candidates_Search(t *testing.T) {
	api := newFakeAPI()
	api.search = []Release{{ID: "r1"}, {ID: "gone"}, {ID: "va1"}}
	api.fail["gone"] = errors.New("timeout")
	src := NewSource(api, nil, nil, SourceOptions{SearchLimit: 3})

	got, err := src.Candidates(context.Background(), nil, "Artist", "Album", false)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].AlbumInfo().AlbumID)
	assert.Equal(t, "va1", got[1].AlbumInfo().AlbumID)
	assert.Equal(t, "Artist", api.searchArtist)
	assert.Equal(t, "Album", api.searchAlbum)
	assert.Equal(t, 3, api.searchLimit)
}

func TestSource_Candidates_SearchLimit(t *testing.T) {
	api := newFakeAPI()
	api.search = []Release{{ID: "r1"}, {ID: "va1"}}
	src := NewSource(api, nil, nil, SourceOptions{SearchLimit: 1})

	got, err := src.Candidates(context.Background(), nil, "Artist", "Album", false)
	require.NoError(t, err)

	assert.Len(t, got, 1)
	assert.Equal(t, []string{"r1"}, api.fetched)
}

func TestSource_Candidates_VariousArtistsDropsArtist(t *testing.T) {
	api := newFakeAPI()
	src := NewSource(api, nil, nil, SourceOptions{})

	_, err := src.Candidates(context.Background(), nil, "Various", "Hits", true)
	require.NoError(t, err)

	assert.Empty(t, api.searchArtist)
	assert.Equal(t, "Hits", api.searchAlbum)
	assert.Equal(t, defaultSearchLimit, api.searchLimit)
}

func TestSource_Candidates_NothingToSearch(t *testing.T) {
	api := newFakeAPI()
	api.search = []Release{{ID: "r1"}}
	src := NewSource(api, nil, nil, SourceOptions{})

	got, err := src.Candidates(context.Background(), nil, "Artist", "", true)

	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, api.fetched)
}

func TestSource_Candidates_Canceled(t *testing.T) {
	api := newFakeAPI()
	api.search = []Release{{ID: "r1"}}
	api.fail["r1"] = context.Canceled
	src := NewSource(api, nil, nil, SourceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Candidates(ctx, nil, "Artist", "Album", false)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_AlbumDistance(t *testing.T) {
	src := NewSource(newFakeAPI(), nil, nil, SourceOptions{SourceWeight: 0.5})

	mb := &autotag.AlbumInfo{DataSource: DataSource}
	other := &autotag.AlbumInfo{DataSource: "Discogs"}

	assert.InDelta(t, 0.5, src.AlbumDistance(nil, mb, nil).Penalty("source"), 1e-9)
	assert.Zero(t, src.AlbumDistance(nil, other, nil).Penalty("source"))

	unweighted := NewSource(newFakeAPI(), nil, nil, SourceOptions{})
	assert.Zero(t, unweighted.AlbumDistance(nil, mb, nil).Penalty("source"))
}
