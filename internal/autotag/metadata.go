package autotag

import "strings"

// variousArtists holds lowercase names that mark a compilation.
var variousArtists = []string{"", "various artists", "various", "va", "unknown"}

// Likely holds the most common value of each album-level field across a
// group of items.
type Likely struct {
	Artist      string
	Album       string
	Year        int
	Country     string
	Label       string
	Media       string
	MBReleaseID string

	// ArtistConsensus is true when every item has the same artist.
	ArtistConsensus bool
}

// CurrentMetadata returns the plurality value of each album-level field.
// Ties go to the value that reached the top count first.
func CurrentMetadata(items []*Item) Likely {
	artist, consensus := plurality(items, func(i *Item) string {
		if i.AlbumArtist != "" {
			return i.AlbumArtist
		}
		return i.Artist
	})
	album, _ := plurality(items, func(i *Item) string { return i.Album })
	country, _ := plurality(items, func(i *Item) string { return i.Country })
	label, _ := plurality(items, func(i *Item) string { return i.Label })
	media, _ := plurality(items, func(i *Item) string { return i.Media })
	releaseID, _ := plurality(items, func(i *Item) string { return i.MBReleaseID })

	years := make(map[int]int)
	year, best := 0, 0
	for _, item := range items {
		if item.Year == 0 {
			continue
		}
		years[item.Year]++
		if years[item.Year] > best {
			year, best = item.Year, years[item.Year]
		}
	}

	return Likely{
		Artist:          artist,
		Album:           album,
		Year:            year,
		Country:         country,
		Label:           label,
		Media:           media,
		MBReleaseID:     releaseID,
		ArtistConsensus: consensus,
	}
}

// VALikely reports whether items look like a various-artists compilation.
func VALikely(items []*Item) bool {
	likely := CurrentMetadata(items)
	if !likely.ArtistConsensus {
		return true
	}
	for _, name := range variousArtists {
		if strings.ToLower(likely.Artist) == name {
			return true
		}
	}
	for _, item := range items {
		if item.Comp {
			return true
		}
	}
	return false
}

// plurality returns the most frequent non-empty value of field and whether
// every item agrees on it.
func plurality(items []*Item, field func(*Item) string) (string, bool) {
	counts := make(map[string]int)
	value, best := "", 0
	for _, item := range items {
		v := field(item)
		counts[v]++
		if v != "" && counts[v] > best {
			value, best = v, counts[v]
		}
	}
	return value, len(counts) <= 1
}
