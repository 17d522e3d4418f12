package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"

	"github.com/llehouerou/mbpseudo/internal/autotag"
)

var errNotAudio = errors.New("no audio stream")

// ReadItem reads the tags of a music file.
//
// The file must carry an audio stream TagLib can measure. Common fields come
// from dhowden/tag; files it cannot parse are read with TagLib alone. Fields
// dhowden/tag does not expose (MusicBrainz IDs, release country, label,
// media) and the audio length always come from TagLib.
func ReadItem(path string) (*autotag.Item, error) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}
	if props.Length <= 0 {
		return nil, fmt.Errorf("read tags %s: %w", path, errNotAudio)
	}

	item, err := readWithDhowden(path)
	if err != nil {
		item, err = readWithTaglib(path)
		if err != nil {
			return nil, fmt.Errorf("read tags %s: %w", path, err)
		}
	} else {
		readExtendedTags(path, item)
	}
	item.Length = props.Length

	if item.Title == "" {
		item.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return item, nil
}

func readWithDhowden(path string) (*autotag.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	track, _ := m.Track()
	disc, _ := m.Disc()

	return &autotag.Item{
		Path:        path,
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Album:       m.Album(),
		TrackNumber: track,
		DiscNumber:  disc,
		Year:        m.Year(),
	}, nil
}

func readWithTaglib(path string) (*autotag.Item, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	track, _ := tags.parseNumberPair(taglib.TrackNumber)
	disc, _ := tags.parseNumberPair(taglib.DiscNumber)

	item := &autotag.Item{
		Path:        path,
		Title:       tags.get(taglib.Title),
		Artist:      tags.get(taglib.Artist),
		AlbumArtist: tags.get(taglib.AlbumArtist),
		Album:       tags.get(taglib.Album),
		TrackNumber: track,
		DiscNumber:  disc,
		Year:        parseYear(tags.get(taglib.Date, taglib.OriginalDate)),
	}
	applyExtendedTags(tags, item)
	return item, nil
}

// readExtendedTags fills the fields dhowden/tag does not expose. Failures
// leave them empty.
func readExtendedTags(path string, item *autotag.Item) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return
	}
	applyExtendedTags(taglibTags(rawTags), item)
}

func applyExtendedTags(tags taglibTags, item *autotag.Item) {
	item.Country = tags.get(taglib.ReleaseCountry)
	item.Label = tags.get(taglib.Label)
	item.Media = tags.get(taglib.Media)
	item.Comp = tags.getBool(propCompilation)
	item.MBReleaseID = tags.get(taglib.MusicBrainzAlbumID)
	item.MBTrackID = tags.get(taglib.MusicBrainzReleaseTrackID)
	if item.Year == 0 {
		item.Year = parseYear(tags.get(taglib.Date))
	}
}

// ReadDir reads every music file directly inside dir, sorted by path. Files
// that cannot be read are skipped and reported in the returned error.
func ReadDir(dir string) ([]*autotag.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var (
		items []*autotag.Item
		errs  []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsMusicFile(e.Name()) {
			continue
		}
		item, err := ReadItem(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b *autotag.Item) int {
		return strings.Compare(a.Path, b.Path)
	})
	return items, errors.Join(errs...)
}

// AlbumDirs returns root and every directory below it that directly contains
// music files, sorted.
func AlbumDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsMusicFile(path) {
			return nil
		}
		dir := filepath.Dir(path)
		if len(dirs) == 0 || dirs[len(dirs)-1] != dir {
			dirs = append(dirs, dir)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}
