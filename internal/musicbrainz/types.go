// Package musicbrainz provides a client for the MusicBrainz API and a
// metadata source that turns releases into import candidates.
package musicbrainz

// Release is a release found by a search.
type Release struct {
	ID          string
	Title       string
	Artist      string
	Date        string
	Country     string
	TrackCount  int
	Score       int    // Search relevance score (0-100)
	ReleaseType string // Album, Single, EP, etc.
	Status      string // Official, Promotion, Bootleg, Pseudo-Release
	Formats     string // CD, Vinyl, Digital, etc.
}

// searchResponse is the raw response from MusicBrainz release search.
type searchResponse struct {
	Releases []releaseResult `json:"releases"`
}

// releaseResult is a single release from search results.
type releaseResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Score        int            `json:"score"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	Status       string         `json:"status"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	ReleaseGroup *releaseGroup  `json:"release-group"`
	Media        []medium       `json:"media"`
}

// artistCredit represents an artist contribution.
type artistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		SortName string `json:"sort-name"`
	} `json:"artist"`
	JoinPhrase string `json:"joinphrase"`
}

// releaseGroup contains release type info.
type releaseGroup struct {
	ID          string `json:"id"`
	PrimaryType string `json:"primary-type"`
}

// medium represents a disc/medium in a release.
type medium struct {
	Position   int     `json:"position"`
	Format     string  `json:"format"`
	TrackCount int     `json:"track-count"`
	Tracks     []track `json:"tracks"`
}

// track is a raw track from the API.
type track struct {
	ID           string         `json:"id"`
	Position     int            `json:"position"`
	Title        string         `json:"title"`
	Length       int            `json:"length"` // milliseconds
	Recording    *recording     `json:"recording"`
	ArtistCredit []artistCredit `json:"artist-credit"`
}

// recording represents a MusicBrainz recording (linked from track).
type recording struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Length int    `json:"length"`
}

// releaseDetailsResponse is the response when fetching a single release.
type releaseDetailsResponse struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Date               string              `json:"date"`
	Country            string              `json:"country"`
	Status             string              `json:"status"`
	Barcode            string              `json:"barcode"`
	ArtistCredit       []artistCredit      `json:"artist-credit"`
	ReleaseGroup       *releaseGroup       `json:"release-group"`
	Media              []medium            `json:"media"`
	LabelInfo          []labelInfo         `json:"label-info"`
	TextRepresentation *textRepresentation `json:"text-representation"`
}

// labelInfo contains label and catalog number for a release.
type labelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         *label `json:"label"`
}

// label represents a record label.
type label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// textRepresentation contains script info for a release.
type textRepresentation struct {
	Language string `json:"language"`
	Script   string `json:"script"`
}
