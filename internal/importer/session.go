// Package importer runs import sessions: each directory of files is tagged
// against the registered metadata sources, a choice is applied, and the
// result is recorded in the library.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/library"
)

// Action is what a session does with a group of items.
type Action int

const (
	ActionApply     Action = iota // apply the best candidate
	ActionSkip                    // record nothing
	ActionAsIs                    // record the items with their own tags
	ActionCandidate               // apply the candidate at Choice.Candidate
)

// Choice answers the question a session asks for each group of items.
type Choice struct {
	Action    Action
	Candidate int // 1-based, for ActionCandidate
}

var (
	ChoiceApply = Choice{Action: ActionApply}
	ChoiceSkip  = Choice{Action: ActionSkip}
	ChoiceAsIs  = Choice{Action: ActionAsIs}
)

// ChooseCandidate returns the choice that applies the n-th candidate.
func ChooseCandidate(n int) Choice {
	return Choice{Action: ActionCandidate, Candidate: n}
}

// ParseChoice parses "apply", "skip", "asis" or a 1-based candidate number.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apply", "a":
		return ChoiceApply, nil
	case "skip", "s":
		return ChoiceSkip, nil
	case "asis", "as-is", "u":
		return ChoiceAsIs, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Choice{}, fmt.Errorf("invalid choice %q", s)
	}
	return ChooseCandidate(n), nil
}

func (c Choice) String() string {
	switch c.Action {
	case ActionApply:
		return "apply"
	case ActionSkip:
		return "skip"
	case ActionAsIs:
		return "asis"
	case ActionCandidate:
		return strconv.Itoa(c.Candidate)
	}
	return "unknown"
}

// Tagger proposes candidates for a group of items.
type Tagger interface {
	TagAlbum(ctx context.Context, items []*autotag.Item) (artist, album string, proposal autotag.Proposal, err error)
}

// Store records imported items.
type Store interface {
	Add(ctx context.Context, records ...library.Record) error
}

// ItemReader reads the items of one directory.
type ItemReader func(dir string) ([]*autotag.Item, error)

// Result describes what happened to one directory.
type Result struct {
	Dir            string
	Items          int
	Artist         string // current artist of the items
	Album          string // current album of the items
	Recommendation autotag.Recommendation
	Candidates     int
	Choice         Choice
	Applied        *autotag.AlbumMatch // nil unless a candidate was applied
	Err            error
}

// Session imports groups of items. Choices are consumed in the order they
// were added; once exhausted, DefaultChoice is used.
type Session struct {
	tagger Tagger
	store  Store
	read   ItemReader
	log    *slog.Logger

	choices       []Choice
	DefaultChoice Choice
}

// NewSession creates a session. logger may be nil.
func NewSession(tagger Tagger, store Store, read ItemReader, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		tagger:        tagger,
		store:         store,
		read:          read,
		log:           logger,
		DefaultChoice: ChoiceApply,
	}
}

// AddChoice queues the answer for the next group.
func (s *Session) AddChoice(c Choice) {
	s.choices = append(s.choices, c)
}

// ClearChoices drops every queued choice.
func (s *Session) ClearChoices() {
	s.choices = nil
}

func (s *Session) nextChoice() Choice {
	if len(s.choices) == 0 {
		return s.DefaultChoice
	}
	c := s.choices[0]
	s.choices = s.choices[1:]
	return c
}

// Run imports each directory in turn. Failures are reported per directory;
// the returned error is only set when ctx is done.
func (s *Session) Run(ctx context.Context, dirs []string) ([]Result, error) {
	results := make([]Result, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.importDir(ctx, dir)
		if res.Err != nil {
			s.log.Warn("import failed", "dir", dir, "error", res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Session) importDir(ctx context.Context, dir string) Result {
	res := Result{Dir: dir}

	items, err := s.read(dir)
	if err != nil {
		if len(items) == 0 {
			res.Err = fmt.Errorf("read %s: %w", dir, err)
			return res
		}
		s.log.Warn("some files could not be read", "dir", dir, "error", err)
	}
	res.Items = len(items)
	if len(items) == 0 {
		res.Choice = ChoiceSkip
		return res
	}

	artist, album, proposal, err := s.tagger.TagAlbum(ctx, items)
	if err != nil {
		res.Err = fmt.Errorf("tag %s: %w", dir, err)
		return res
	}
	res.Artist, res.Album = artist, album
	res.Recommendation = proposal.Recommendation
	res.Candidates = len(proposal.Candidates)
	res.Choice = s.nextChoice()

	s.log.Info("tagged album",
		"dir", dir, "artist", artist, "album", album,
		"candidates", res.Candidates, "recommendation", proposal.Recommendation.String(),
		"choice", res.Choice.String())

	var records []library.Record
	switch res.Choice.Action {
	case ActionSkip:
		return res
	case ActionAsIs:
		records = asIsRecords(items)
	case ActionApply, ActionCandidate:
		match, err := pick(proposal, res.Choice)
		if err != nil {
			res.Err = err
			return res
		}
		if match == nil {
			s.log.Info("no candidates, skipping", "dir", dir)
			res.Choice = ChoiceSkip
			return res
		}
		res.Applied = match
		records = appliedRecords(items, match)
	}

	err = retryWithBackoff(ctx, "record items", func(ctx context.Context) error {
		return s.store.Add(ctx, records...)
	})
	if err != nil {
		res.Err = err
	}
	return res
}

var errNoSuchCandidate = errors.New("no such candidate")

// pick returns the match selected by c, or nil when there is nothing to apply.
func pick(p autotag.Proposal, c Choice) (*autotag.AlbumMatch, error) {
	if c.Action == ActionApply {
		if len(p.Candidates) == 0 {
			return nil, nil
		}
		return p.Candidates[0], nil
	}
	if c.Candidate < 1 || c.Candidate > len(p.Candidates) {
		return nil, fmt.Errorf("%w: %d of %d", errNoSuchCandidate, c.Candidate, len(p.Candidates))
	}
	return p.Candidates[c.Candidate-1], nil
}

func asIsRecords(items []*autotag.Item) []library.Record {
	records := make([]library.Record, len(items))
	for i, item := range items {
		records[i] = asIsRecord(item)
	}
	return records
}

func asIsRecord(item *autotag.Item) library.Record {
	albumArtist := item.AlbumArtist
	if albumArtist == "" {
		albumArtist = item.Artist
	}
	return library.Record{
		Path:        item.Path,
		Title:       item.Title,
		Artist:      item.Artist,
		AlbumArtist: albumArtist,
		Album:       item.Album,
		TrackNumber: item.TrackNumber,
		DiscNumber:  item.DiscNumber,
		Length:      item.Length,
		MBAlbumID:   item.MBReleaseID,
		MBTrackID:   item.MBTrackID,
	}
}

// appliedRecords takes album and track metadata from the match. Items the
// match left without a track keep their own tags.
func appliedRecords(items []*autotag.Item, match *autotag.AlbumMatch) []library.Record {
	info := match.Info.AlbumInfo()
	records := make([]library.Record, len(items))
	for i, item := range items {
		track, ok := match.Mapping.Get(item)
		if !ok {
			records[i] = asIsRecord(item)
			continue
		}
		records[i] = library.Record{
			Path:        item.Path,
			Title:       track.Title,
			Artist:      track.Artist,
			AlbumArtist: info.Artist,
			Album:       info.Album,
			TrackNumber: track.MediumIndex,
			DiscNumber:  track.Medium,
			Length:      item.Length,
			MBAlbumID:   info.AlbumID,
			MBTrackID:   track.TrackID,
			DataSource:  info.DataSource,
		}
	}
	return records
}
