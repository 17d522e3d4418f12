package mbpseudo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/events"
	"github.com/llehouerou/mbpseudo/internal/musicbrainz"
)

// fakeAPI serves raw release documents from memory.
type fakeAPI struct {
	releases map[string]map[string]any
	search   []string // release IDs returned by every search
	fail     map[string]bool
	searches int
	fetches  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		releases: make(map[string]map[string]any),
		fail:     make(map[string]bool),
	}
}

func (f *fakeAPI) add(raw map[string]any) {
	f.releases[raw["id"].(string)] = raw
}

func (f *fakeAPI) SearchReleases(context.Context, string, string, int) ([]musicbrainz.Release, error) {
	f.searches++
	releases := make([]musicbrainz.Release, 0, len(f.search))
	for _, id := range f.search {
		releases = append(releases, musicbrainz.Release{ID: id})
	}
	return releases, nil
}

func (f *fakeAPI) GetReleaseRaw(_ context.Context, id string) ([]byte, error) {
	f.fetches = append(f.fetches, id)
	if f.fail[id] {
		return nil, errors.New("connection reset")
	}
	raw, ok := f.releases[id]
	if !ok {
		return nil, musicbrainz.ErrNotFound
	}
	return json.Marshal(raw)
}

type testEnv struct {
	bus     *events.Bus
	api     *fakeAPI
	matcher *autotag.Matcher
	plugin  *Plugin
}

// newTestEnv wires a plugin the way the CLI does. With mainSource, the main
// MusicBrainz source is registered ahead of the plugin.
func newTestEnv(t *testing.T, cfg Config, mainSource bool) *testEnv {
	t.Helper()

	bus := events.NewBus()
	api := newFakeAPI()
	matcher := autotag.NewMatcher(autotag.Thresholds{}, nil)
	if mainSource {
		matcher.Register(musicbrainz.NewSource(api, bus, nil, musicbrainz.SourceOptions{}))
	}
	own := musicbrainz.NewSource(api, bus, nil, musicbrainz.SourceOptions{})
	p := New(cfg, own, matcher, bus, nil)
	matcher.Register(p)

	return &testEnv{bus: bus, api: api, matcher: matcher, plugin: p}
}

func translation(id, script string) map[string]any {
	release := map[string]any{"id": id}
	if script != "" {
		release["text-representation"] = map[string]any{"script": script}
	}
	return map[string]any{
		"type":      "transl-tracklisting",
		"direction": "forward",
		"release":   release,
	}
}

// rawRelease builds a release document as returned by the MusicBrainz API.
func rawRelease(id, title, status, script string, titles []string, rels ...map[string]any) map[string]any {
	tracks := make([]any, len(titles))
	for i, tt := range titles {
		tracks[i] = map[string]any{
			"id":       fmt.Sprintf("%s-t%d", id, i+1),
			"position": i + 1,
			"title":    tt,
			"length":   200000,
		}
	}
	relations := make([]any, len(rels))
	for i, r := range rels {
		relations[i] = r
	}
	return map[string]any{
		"id":     id,
		"title":  title,
		"status": status,
		"artist-credit": []any{map[string]any{
			"name":   "Artist",
			"artist": map[string]any{"id": "artist-1", "name": "Artist"},
		}},
		"text-representation": map[string]any{"script": script},
		"media": []any{map[string]any{
			"position":    1,
			"format":      "CD",
			"track-count": len(titles),
			"tracks":      tracks,
		}},
		"relations": relations,
	}
}

var (
	officialTitles = []string{"一番", "二番", "三番"}
	pseudoTitles   = []string{"Ichiban", "Niban", "Sanban"}
)

// addTokyoStory registers an official Japanese release with one Latin
// pseudo-release.
func (e *testEnv) addTokyoStory() {
	e.api.add(rawRelease("official-1", "東京ストーリー", "Official", "Jpan", officialTitles,
		translation("pseudo-1", "Latn")))
	e.api.add(rawRelease("pseudo-1", "Tokyo Story", "Pseudo-Release", "Latn", pseudoTitles))
}

// tokyoItems returns local files tagged with the Latin titles.
func tokyoItems(dir string) []*autotag.Item {
	items := make([]*autotag.Item, len(pseudoTitles))
	for i, title := range pseudoTitles {
		items[i] = &autotag.Item{
			Path:        fmt.Sprintf("/music/%s/%02d.flac", dir, i+1),
			Title:       title,
			Artist:      "Artist",
			AlbumArtist: "Artist",
			Album:       "Tokyo Story",
			TrackNumber: i + 1,
			Length:      200 * time.Second,
		}
	}
	return items
}

// albumInfo converts a raw release the way the MusicBrainz source does,
// without announcing it.
func albumInfo(t *testing.T, raw map[string]any) *autotag.AlbumInfo {
	t.Helper()
	api := newFakeAPI()
	api.add(raw)
	info, err := musicbrainz.NewSource(api, nil, nil, musicbrainz.SourceOptions{}).
		AlbumForID(context.Background(), raw["id"].(string))
	if err != nil || info == nil {
		t.Fatalf("albumInfo(%v): info=%v err=%v", raw["id"], info, err)
	}
	return info
}
