// Package autotag matches groups of local tracks against candidate releases
// from metadata sources and scores how well each candidate fits.
package autotag

import "time"

// VariousArtistsID is the MusicBrainz artist ID for "Various Artists".
const VariousArtistsID = "89ad4ac3-39f7-470e-963a-56509c546377"

// Item is a scanned audio file: its tags plus the path it was read from.
// The path is the item's identity when matching.
type Item struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	DiscNumber  int
	Year        int
	Length      time.Duration
	Country     string
	Label       string
	Media       string
	Comp        bool // compilation flag

	// MusicBrainz IDs already present in the file, if any
	MBReleaseID string
	MBTrackID   string
}

// TrackInfo is one track of a candidate release.
type TrackInfo struct {
	TrackID     string
	Title       string
	Artist      string
	Index       int // 1-based position across the whole release
	Medium      int // 1-based disc number
	MediumIndex int // 1-based position on its medium
	Length      time.Duration
}

// AlbumInfo is one release description fetched from a metadata source.
type AlbumInfo struct {
	AlbumID        string
	Album          string
	Artist         string
	ArtistID       string
	Tracks         []*TrackInfo
	VA             bool
	Status         string // Official, Promotion, Bootleg, Pseudo-Release
	Script         string // Latn, Jpan, Cyrl, ...
	Language       string
	Country        string
	Label          string
	CatalogNum     string
	Media          string // CD, Digital Media, ...
	Mediums        int
	Year           int
	AlbumType      string
	ReleaseGroupID string
	DataSource     string

	// Mapping is attached after the fact by code that has matched this
	// release against a group of items. Nil until then.
	Mapping *Mapping
}

// AlbumInfo returns the receiver, so a plain AlbumInfo is its own Candidate.
func (a *AlbumInfo) AlbumInfo() *AlbumInfo {
	return a
}

// Copy returns a snapshot of the release. The track list is copied but the
// tracks themselves are shared.
func (a *AlbumInfo) Copy() *AlbumInfo {
	c := *a
	c.Tracks = append([]*TrackInfo(nil), a.Tracks...)
	return &c
}

// Candidate is anything a metadata source proposes for a group of items.
// AlbumInfo returns the attributes currently in effect for scoring and applying.
type Candidate interface {
	AlbumInfo() *AlbumInfo
}

// AlbumMatch is a scored candidate for a group of items.
type AlbumMatch struct {
	Distance    *Distance
	Info        Candidate
	Mapping     *Mapping
	ExtraItems  []*Item
	ExtraTracks []*TrackInfo
}

// Recommendation expresses how confident the matcher is in its best candidate.
type Recommendation int

const (
	RecNone Recommendation = iota
	RecLow
	RecMedium
	RecStrong
)

func (r Recommendation) String() string {
	switch r {
	case RecLow:
		return "low"
	case RecMedium:
		return "medium"
	case RecStrong:
		return "strong"
	default:
		return "none"
	}
}

// Proposal is the sorted list of candidates for a group of items.
type Proposal struct {
	Candidates     []*AlbumMatch
	Recommendation Recommendation
}
