package autotag

import (
	"cmp"
	"math"
	"slices"
)

// Weights of each distance component. Keys not listed weigh 1.
var Weights = map[string]float64{
	"source":           2.0,
	"artist":           3.0,
	"album":            3.0,
	"media":            1.0,
	"mediums":          1.0,
	"year":             1.0,
	"country":          0.5,
	"label":            0.5,
	"catalognum":       0.5,
	"album_id":         5.0,
	"tracks":           2.0,
	"missing_tracks":   0.9,
	"unmatched_tracks": 0.6,
	"track_title":      3.0,
	"track_artist":     2.0,
	"track_index":      1.0,
	"track_length":     2.0,
	"track_id":         5.0,
}

const (
	trackLengthGrace = 10 // seconds
	trackLengthMax   = 30 // seconds
)

// Distance accumulates weighted penalties between items and a candidate.
// Each penalty is in [0, 1]; the overall value is the weighted sum divided by
// the weighted maximum, so it is also in [0, 1]. Lower is better.
type Distance struct {
	penalties map[string][]float64
}

// NewDistance returns an empty distance.
func NewDistance() *Distance {
	return &Distance{penalties: make(map[string][]float64)}
}

func weight(key string) float64 {
	if w, ok := Weights[key]; ok {
		return w
	}
	return 1
}

// Add records a raw penalty for key. Values are clamped to [0, 1].
func (d *Distance) Add(key string, dist float64) {
	d.penalties[key] = append(d.penalties[key], min(max(dist, 0), 1))
}

// AddExpr adds a full penalty when expr is true, none otherwise.
func (d *Distance) AddExpr(key string, expr bool) {
	if expr {
		d.Add(key, 1)
	} else {
		d.Add(key, 0)
	}
}

// AddRatio adds the penalty num/den, clamped. A zero denominator adds nothing.
func (d *Distance) AddRatio(key string, num, den float64) {
	if den <= 0 {
		return
	}
	d.Add(key, num/den)
}

// AddString adds the normalized string distance between a and b.
func (d *Distance) AddString(key, a, b string) {
	d.Add(key, StringDistance(a, b))
}

// Update merges every penalty of other into d.
func (d *Distance) Update(other *Distance) {
	if other == nil {
		return
	}
	for key, values := range other.penalties {
		d.penalties[key] = append(d.penalties[key], values...)
	}
}

// Raw returns the weighted sum of all penalties.
func (d *Distance) Raw() float64 {
	var sum float64
	for key, values := range d.penalties {
		for _, v := range values {
			sum += v * weight(key)
		}
	}
	return sum
}

// Max returns the weighted sum of the highest possible penalties.
func (d *Distance) Max() float64 {
	var sum float64
	for key, values := range d.penalties {
		sum += float64(len(values)) * weight(key)
	}
	return sum
}

// Value returns the normalized distance in [0, 1].
func (d *Distance) Value() float64 {
	m := d.Max()
	if m == 0 {
		return 0
	}
	return d.Raw() / m
}

// Less reports whether d is strictly better than other.
func (d *Distance) Less(other *Distance) bool {
	return d.Value() < other.Value()
}

// Penalty returns the weighted, normalized contribution of key.
func (d *Distance) Penalty(key string) float64 {
	m := d.Max()
	if m == 0 {
		return 0
	}
	var sum float64
	for _, v := range d.penalties[key] {
		sum += v * weight(key)
	}
	return sum / m
}

// Keys returns the components with a non-zero penalty, heaviest first.
func (d *Distance) Keys() []string {
	var keys []string
	for key := range d.penalties {
		if d.Penalty(key) > 0 {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(d.Penalty(b), d.Penalty(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

// TrackDistance scores how well item matches track.
func TrackDistance(item *Item, track *TrackInfo, inclArtist bool) *Distance {
	dist := NewDistance()

	if item.Length > 0 && track.Length > 0 {
		diff := math.Abs(item.Length.Seconds()-track.Length.Seconds()) - trackLengthGrace
		dist.AddRatio("track_length", max(diff, 0), trackLengthMax)
	}

	dist.AddString("track_title", item.Title, track.Title)

	if inclArtist && item.Artist != "" && track.Artist != "" {
		dist.AddString("track_artist", item.Artist, track.Artist)
	}

	if item.TrackNumber > 0 && track.Index > 0 {
		dist.AddExpr("track_index",
			item.TrackNumber != track.Index && item.TrackNumber != track.MediumIndex)
	}

	if item.MBTrackID != "" && track.TrackID != "" {
		dist.AddExpr("track_id", item.MBTrackID != track.TrackID)
	}

	return dist
}

// AlbumDistance computes the base distance between items and the attributes
// of c currently in effect, given a mapping built against c's tracks.
func AlbumDistance(items []*Item, c Candidate, mapping *Mapping) *Distance {
	info := c.AlbumInfo()
	likely := CurrentMetadata(items)
	dist := NewDistance()

	if !info.VA {
		dist.AddString("artist", likely.Artist, info.Artist)
	}
	dist.AddString("album", likely.Album, info.Album)

	if likely.Year > 0 && info.Year > 0 {
		dist.AddExpr("year", likely.Year != info.Year)
	}
	if likely.Country != "" && info.Country != "" {
		dist.AddString("country", likely.Country, info.Country)
	}
	if likely.Label != "" && info.Label != "" {
		dist.AddString("label", likely.Label, info.Label)
	}
	if likely.Media != "" && info.Media != "" {
		dist.AddString("media", likely.Media, info.Media)
	}
	if likely.MBReleaseID != "" {
		dist.AddExpr("album_id", likely.MBReleaseID != info.AlbumID)
	}

	for _, item := range mapping.Items() {
		track, _ := mapping.Get(item)
		dist.Add("tracks", TrackDistance(item, track, info.VA).Value())
	}

	for range max(len(info.Tracks)-mapping.Len(), 0) {
		dist.Add("missing_tracks", 1)
	}
	for range max(len(items)-mapping.Len(), 0) {
		dist.Add("unmatched_tracks", 1)
	}

	return dist
}
