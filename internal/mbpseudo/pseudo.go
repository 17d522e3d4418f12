package mbpseudo

import (
	"github.com/llehouerou/mbpseudo/internal/autotag"
)

// RefSource selects which release a PseudoAlbumInfo reads its attributes from.
type RefSource int

const (
	// SourcePseudo reads attributes from the pseudo-release.
	SourcePseudo RefSource = iota
	// SourceOfficial reads attributes from the official release.
	SourceOfficial
)

// String returns "official" or "pseudo".
func (s RefSource) String() string {
	if s == SourceOfficial {
		return "official"
	}
	return "pseudo"
}

// Scorer computes the full distance of a candidate.
type Scorer interface {
	Distance(items []*autotag.Item, c autotag.Candidate, mapping *autotag.Mapping) *autotag.Distance
}

// PseudoAlbumInfo is a candidate built from a pseudo-release and the official
// release it translates. Its attributes come from whichever side is active,
// except the album ID, which is always the pseudo-release's so it never
// collides with the official candidate.
type PseudoAlbumInfo struct {
	pseudo   *autotag.AlbumInfo
	official *autotag.AlbumInfo
	active   RefSource
}

// NewPseudoAlbumInfo wraps pseudo and official. The pseudo side is active and
// reports dataSource as its origin.
func NewPseudoAlbumInfo(pseudo, official *autotag.AlbumInfo, dataSource string) *PseudoAlbumInfo {
	p := pseudo.Copy()
	p.DataSource = dataSource
	p.Mapping = nil
	return &PseudoAlbumInfo{pseudo: p, official: official, active: SourcePseudo}
}

var _ autotag.Candidate = (*PseudoAlbumInfo)(nil)

// AlbumInfo implements autotag.Candidate.
func (p *PseudoAlbumInfo) AlbumInfo() *autotag.AlbumInfo {
	if p.active == SourcePseudo {
		return p.pseudo
	}
	view := *p.official
	view.AlbumID = p.pseudo.AlbumID
	return &view
}

// Pseudo returns the pseudo-release.
func (p *PseudoAlbumInfo) Pseudo() *autotag.AlbumInfo {
	return p.pseudo
}

// Official returns the official release.
func (p *PseudoAlbumInfo) Official() *autotag.AlbumInfo {
	return p.official
}

// ActiveSource returns the side attributes are currently read from.
func (p *PseudoAlbumInfo) ActiveSource() RefSource {
	return p.active
}

// UsePseudoAsRef makes the pseudo-release the active side.
func (p *PseudoAlbumInfo) UsePseudoAsRef() {
	p.active = SourcePseudo
}

// UseOfficialAsRef makes the official release the active side. The album ID
// stays the pseudo-release's.
func (p *PseudoAlbumInfo) UseOfficialAsRef() {
	p.active = SourceOfficial
}

// DetermineBestRef scores items against both sides and leaves the closer one
// active. The official side must be strictly closer to win.
func (p *PseudoAlbumInfo) DetermineBestRef(items []*autotag.Item, scorer Scorer) RefSource {
	p.UsePseudoAsRef()
	pseudoDist := p.computeDistance(items, scorer)

	p.UseOfficialAsRef()
	officialDist := p.computeDistance(items, scorer)

	if officialDist.Less(pseudoDist) {
		p.UseOfficialAsRef()
		return SourceOfficial
	}
	p.UsePseudoAsRef()
	return SourcePseudo
}

// computeDistance scores the active side with a frozen probe mapping, so the
// distance hooks know this is not a final proposal.
func (p *PseudoAlbumInfo) computeDistance(items []*autotag.Item, scorer Scorer) *autotag.Distance {
	mapping, _, _ := autotag.AssignItems(items, p.AlbumInfo().Tracks)
	return scorer.Distance(items, p, mapping.Freeze())
}
