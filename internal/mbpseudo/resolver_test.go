package mbpseudo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/events"
)

// matchOfficial replays what the main source and the matcher do for the
// official release: announce it, then score it against items.
func (e *testEnv) matchOfficial(t *testing.T, items []*autotag.Item) *autotag.AlbumInfo {
	t.Helper()
	official := albumInfo(t, e.api.releases["official-1"])
	e.bus.Send(events.AlbumExtract, e.api.releases["official-1"])
	e.bus.Send(events.AlbumInfoReceived, official)

	mapping, _, _ := autotag.AssignItems(items, official.Tracks)
	e.matcher.Distance(items, official, mapping)
	return official
}

func TestCandidates_Disabled(t *testing.T) {
	env := newTestEnv(t, Config{}, false)
	env.addTokyoStory()
	env.api.search = []string{"official-1"}

	got, err := env.plugin.Candidates(context.Background(), tokyoItems("tokyo"), "Artist", "Tokyo Story", false)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, env.api.searches)
	assert.Empty(t, env.api.fetches)
}

func TestCandidates_AfterMainSourceMatch(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, true)
	env.addTokyoStory()
	items := tokyoItems("tokyo")
	env.matchOfficial(t, items)

	got, err := env.plugin.Candidates(context.Background(), items, "Artist", "Tokyo Story", false)
	require.NoError(t, err)
	require.Len(t, got, 1)

	view, ok := got[0].(*PseudoAlbumInfo)
	require.True(t, ok, "candidate is %T", got[0])
	assert.Equal(t, "pseudo-1", view.AlbumInfo().AlbumID)
	assert.Equal(t, "official-1", view.Official().AlbumID)
	assert.Equal(t, DataSource, view.Pseudo().DataSource)
	assert.Equal(t, SourcePseudo, view.ActiveSource())
	assert.Equal(t, []string{"pseudo-1"}, env.api.fetches)
	assert.Zero(t, env.api.searches)

	assert.Empty(t, env.plugin.pseudoReleaseIDs)
	assert.Empty(t, env.plugin.intercepted)

	// consumed: the same group gets nothing the second time
	got, err = env.plugin.Candidates(context.Background(), items, "Artist", "Tokyo Story", false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, env.api.searches)
}

func TestCandidates_MainSourceWithoutMatch(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, true)
	env.addTokyoStory()
	env.api.search = []string{"official-1"}

	got, err := env.plugin.Candidates(context.Background(), tokyoItems("tokyo"), "Artist", "Tokyo Story", false)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, env.api.searches)
}

func TestCandidates_MappingMustCoverOnlyTheseItems(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, true)
	env.addTokyoStory()
	env.matchOfficial(t, tokyoItems("elsewhere"))

	got, err := env.plugin.Candidates(context.Background(), tokyoItems("tokyo"), "Artist", "Tokyo Story", false)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, env.plugin.pseudoReleaseIDs, "official-1")
	assert.Contains(t, env.plugin.intercepted, "official-1")
}

func TestCandidates_PartialMappingResolves(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, true)
	env.addTokyoStory()
	items := tokyoItems("tokyo")
	env.matchOfficial(t, items[:2])

	got, err := env.plugin.Candidates(context.Background(), items, "Artist", "Tokyo Story", false)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pseudo-1", got[0].AlbumInfo().AlbumID)
}

func TestCandidates_OwnSearch(t *testing.T) {
	tests := []struct {
		name            string
		includeOfficial bool
		want            []string
	}{
		{name: "pseudo-releases only", includeOfficial: false, want: []string{"pseudo-1"}},
		{name: "official releases kept", includeOfficial: true, want: []string{"pseudo-1", "official-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Config{
				Scripts:                 []string{"Latn"},
				IncludeOfficialReleases: tt.includeOfficial,
			}, false)
			env.addTokyoStory()
			env.api.search = []string{"official-1"}

			got, err := env.plugin.Candidates(context.Background(), tokyoItems("tokyo"), "Artist", "Tokyo Story", false)
			require.NoError(t, err)

			ids := make([]string, len(got))
			for i, c := range got {
				ids[i] = c.AlbumInfo().AlbumID
			}
			assert.Equal(t, tt.want, ids)
			assert.IsType(t, &PseudoAlbumInfo{}, got[0])
			assert.Equal(t, 1, env.api.searches)
			assert.Equal(t, []string{"official-1", "pseudo-1"}, env.api.fetches)
			assert.Empty(t, env.plugin.pseudoReleaseIDs)
			assert.Empty(t, env.plugin.intercepted)
		})
	}
}

func TestCandidates_OwnSearchWithoutTranslations(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, false)
	env.api.add(rawRelease("official-1", "Tokyo Story", "Official", "Latn", pseudoTitles))
	env.api.search = []string{"official-1"}

	got, err := env.plugin.Candidates(context.Background(), tokyoItems("tokyo"), "Artist", "Tokyo Story", false)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.IsType(t, &autotag.AlbumInfo{}, got[0])
	assert.Equal(t, "official-1", got[0].AlbumInfo().AlbumID)
	assert.Equal(t, []string{"official-1"}, env.api.fetches)
}

func TestCandidates_SkipsPseudoReleasesThatCannotBeFetched(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, false)
	env.api.add(rawRelease("official-1", "東京ストーリー", "Official", "Jpan", officialTitles,
		translation("pseudo-broken", "Latn"),
		translation("pseudo-missing", "Latn"),
		translation("pseudo-1", "Latn")))
	env.api.add(rawRelease("pseudo-1", "Tokyo Story", "Pseudo-Release", "Latn", pseudoTitles))
	env.api.fail["pseudo-broken"] = true
	env.api.search = []string{"official-1"}

	got, err := env.plugin.Candidates(context.Background(), tokyoItems("tokyo"), "Artist", "Tokyo Story", false)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pseudo-1", got[0].AlbumInfo().AlbumID)
	assert.Equal(t, []string{"official-1", "pseudo-broken", "pseudo-missing", "pseudo-1"}, env.api.fetches)
	assert.Empty(t, env.plugin.pseudoReleaseIDs)
	assert.Empty(t, env.plugin.intercepted)
}

func TestPseudoAlbumInfo_AlbumIDIsAlwaysPseudo(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, false)
	env.addTokyoStory()
	official := albumInfo(t, env.api.releases["official-1"])
	view := NewPseudoAlbumInfo(albumInfo(t, env.api.releases["pseudo-1"]), official, DataSource)

	assert.Equal(t, "pseudo-1", view.AlbumInfo().AlbumID)
	assert.Equal(t, "Tokyo Story", view.AlbumInfo().Album)

	view.UseOfficialAsRef()
	assert.Equal(t, "pseudo-1", view.AlbumInfo().AlbumID)
	assert.Equal(t, "東京ストーリー", view.AlbumInfo().Album)
	assert.Equal(t, "official-1", official.AlbumID)
	assert.Equal(t, SourceOfficial, view.ActiveSource())

	view.UsePseudoAsRef()
	assert.Equal(t, SourcePseudo, view.ActiveSource())
	assert.Equal(t, "Tokyo Story", view.AlbumInfo().Album)
}

func TestRefSource_String(t *testing.T) {
	assert.Equal(t, "pseudo", SourcePseudo.String())
	assert.Equal(t, "official", SourceOfficial.String())
}

// tieScorer gives both sides the same distance and records the mappings it
// was handed.
type tieScorer struct {
	mappings []*autotag.Mapping
}

func (s *tieScorer) Distance(_ []*autotag.Item, _ autotag.Candidate, mapping *autotag.Mapping) *autotag.Distance {
	s.mappings = append(s.mappings, mapping)
	d := autotag.NewDistance()
	d.Add("album", 0.5)
	return d
}

func TestDetermineBestRef_TieFavorsPseudo(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, false)
	env.addTokyoStory()
	view := NewPseudoAlbumInfo(
		albumInfo(t, env.api.releases["pseudo-1"]),
		albumInfo(t, env.api.releases["official-1"]),
		DataSource,
	)
	view.UseOfficialAsRef()

	scorer := &tieScorer{}
	got := view.DetermineBestRef(tokyoItems("tokyo"), scorer)

	assert.Equal(t, SourcePseudo, got)
	assert.Equal(t, SourcePseudo, view.ActiveSource())
	require.Len(t, scorer.mappings, 2)
	for _, m := range scorer.mappings {
		assert.True(t, m.Frozen())
	}
}

func TestDetermineBestRef_IdenticalReleasesTie(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, false)
	official := albumInfo(t, rawRelease("official-2", "Tokyo Story", "Official", "Latn", pseudoTitles))
	pseudo := albumInfo(t, rawRelease("pseudo-2", "Tokyo Story", "Pseudo-Release", "Latn", pseudoTitles))
	view := NewPseudoAlbumInfo(pseudo, official, DataSource)

	got := view.DetermineBestRef(tokyoItems("tokyo"), env.matcher)

	assert.Equal(t, SourcePseudo, got)
}

func TestDetermineBestRef_OfficialWhenCloser(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}}, false)
	env.addTokyoStory()
	view := NewPseudoAlbumInfo(
		albumInfo(t, env.api.releases["pseudo-1"]),
		albumInfo(t, env.api.releases["official-1"]),
		DataSource,
	)

	items := tokyoItems("tokyo")
	for i, item := range items {
		item.Title = officialTitles[i]
		item.Album = "東京ストーリー"
	}

	got := view.DetermineBestRef(items, env.matcher)

	assert.Equal(t, SourceOfficial, got)
	assert.Equal(t, "東京ストーリー", view.AlbumInfo().Album)
	assert.Equal(t, "pseudo-1", view.AlbumInfo().AlbumID)
}

func TestTagAlbum_ProposesPseudoRelease(t *testing.T) {
	env := newTestEnv(t, Config{Scripts: []string{"Latn"}, IncludeOfficialReleases: true}, true)
	env.addTokyoStory()
	env.api.search = []string{"official-1"}
	items := tokyoItems("tokyo")

	artist, album, proposal, err := env.matcher.TagAlbum(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, "Artist", artist)
	assert.Equal(t, "Tokyo Story", album)

	require.Len(t, proposal.Candidates, 2)
	best := proposal.Candidates[0]
	view, ok := best.Info.(*PseudoAlbumInfo)
	require.True(t, ok, "best candidate is %T", best.Info)
	assert.Equal(t, "pseudo-1", view.AlbumInfo().AlbumID)
	assert.Equal(t, SourcePseudo, view.ActiveSource())
	assert.Equal(t, autotag.RecStrong, proposal.Recommendation)

	for i, item := range items {
		track, ok := best.Mapping.Get(item)
		require.True(t, ok)
		assert.Same(t, view.Pseudo().Tracks[i], track)
	}

	assert.Equal(t, "official-1", proposal.Candidates[1].Info.AlbumInfo().AlbumID)
	assert.True(t, best.Distance.Less(proposal.Candidates[1].Distance))
	assert.Empty(t, env.plugin.pseudoReleaseIDs)
	assert.Empty(t, env.plugin.intercepted)
}
