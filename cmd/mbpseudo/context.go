package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/config"
	"github.com/llehouerou/mbpseudo/internal/events"
	"github.com/llehouerou/mbpseudo/internal/library"
	"github.com/llehouerou/mbpseudo/internal/logging"
	"github.com/llehouerou/mbpseudo/internal/mbpseudo"
	"github.com/llehouerou/mbpseudo/internal/musicbrainz"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var extra []string
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				extra = append(extra, path)
			}
		}
		cfg, err := config.Load(extra...)
		if err != nil {
			c.configErr = err
			return
		}
		var level string
		if c.logLevelFlag != nil {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, err := logging.NewFromConfig(cfg, level)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// tagger builds a matcher backed by the live MusicBrainz API.
func (c *commandContext) tagger() (*autotag.Matcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	matcher, _ := buildMatcher(cfg, musicbrainz.NewClient(), c.logger)
	return matcher, nil
}

func (c *commandContext) openLibrary(ctx context.Context) (*library.Library, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.Library.Path
	if path == "" {
		path, err = library.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	c.logger.Debug("opening library", "path", path)
	return library.Open(ctx, path)
}

// buildMatcher wires the sources on a shared event bus. The main MusicBrainz
// source must be registered before the pseudo-release plugin, which relies on
// seeing its events first.
func buildMatcher(cfg *config.Config, api musicbrainz.API, logger *slog.Logger) (*autotag.Matcher, *mbpseudo.Plugin) {
	bus := events.NewBus()

	matchCfg := cfg.GetMatchConfig()
	matcher := autotag.NewMatcher(autotag.Thresholds{
		Strong: matchCfg.StrongRecThresh,
		Medium: matchCfg.MediumRecThresh,
	}, logger)

	mbCfg := cfg.GetMusicBrainzConfig()
	opts := musicbrainz.SourceOptions{
		SearchLimit:  mbCfg.SearchLimit,
		SourceWeight: *mbCfg.SourceWeight,
	}
	if *mbCfg.Enabled {
		matcher.Register(musicbrainz.NewSource(api, bus, logger.With("source", musicbrainz.SourceName), opts))
	}

	pseudoCfg := cfg.GetMBPseudoConfig()
	own := musicbrainz.NewSource(api, bus, logger.With("source", mbpseudo.Name), opts)
	plugin := mbpseudo.New(mbpseudo.Config{
		Scripts:                 pseudoCfg.Scripts,
		IncludeOfficialReleases: pseudoCfg.IncludeOfficialReleases,
		SourceWeight:            *pseudoCfg.SourceWeight,
	}, own, matcher, bus, logger)
	matcher.Register(plugin)

	return matcher, plugin
}
