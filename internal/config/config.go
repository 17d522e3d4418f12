package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "mbpseudo"

type Config struct {
	// Pseudo-release plugin settings
	MBPseudo MBPseudoConfig `koanf:"mbpseudo"`

	// Main MusicBrainz source settings
	MusicBrainz MusicBrainzConfig `koanf:"musicbrainz"`

	// Recommendation thresholds
	Match MatchConfig `koanf:"match"`

	Library LibraryConfig `koanf:"library"`
	Log     LogConfig     `koanf:"log"`
}

// MBPseudoConfig holds the pseudo-release plugin configuration.
type MBPseudoConfig struct {
	Scripts                 []string `koanf:"scripts"`                   // wanted scripts, e.g. ["Latn"]; empty disables the plugin
	IncludeOfficialReleases bool     `koanf:"include_official_releases"` // keep official candidates next to pseudo-releases
	SourceWeight            *float64 `koanf:"source_weight"`             // penalty for pseudo-release candidates (default: 0.5)
}

// MusicBrainzConfig holds MusicBrainz-related configuration.
type MusicBrainzConfig struct {
	Enabled      *bool    `koanf:"enabled"`       // register the main MusicBrainz source (default: true)
	SearchLimit  int      `koanf:"search_limit"`  // releases fetched per search (1-100, default: 5)
	SourceWeight *float64 `koanf:"source_weight"` // penalty for MusicBrainz candidates (default: 0.5)
}

// MatchConfig holds the distance thresholds of recommendations.
type MatchConfig struct {
	StrongRecThresh float64 `koanf:"strong_rec_thresh"` // default: 0.04
	MediumRecThresh float64 `koanf:"medium_rec_thresh"` // default: 0.1
}

// LibraryConfig holds the library database location.
type LibraryConfig struct {
	Path string `koanf:"path"` // empty means the XDG data directory
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error (default: info)
	Format string `koanf:"format"` // console or json (default: console)
}

const defaultSourceWeight = 0.5

// Load reads the default config files, then extra files in order. Later
// files override earlier ones; missing files are ignored.
func Load(extra ...string) (*Config, error) {
	return loadFiles(append(getConfigPaths(), extra...))
}

func loadFiles(paths []string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Library.Path != "" {
		cfg.Library.Path = expandPath(cfg.Library.Path)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/mbpseudo/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetMBPseudoConfig returns the plugin configuration with defaults applied.
// Blank scripts are dropped.
func (c *Config) GetMBPseudoConfig() MBPseudoConfig {
	cfg := c.MBPseudo

	scripts := make([]string, 0, len(cfg.Scripts))
	for _, s := range cfg.Scripts {
		if s = strings.TrimSpace(s); s != "" {
			scripts = append(scripts, s)
		}
	}
	cfg.Scripts = scripts

	cfg.SourceWeight = weightOrDefault(cfg.SourceWeight)
	return cfg
}

// GetMusicBrainzConfig returns the MusicBrainz configuration with defaults applied.
func (c *Config) GetMusicBrainzConfig() MusicBrainzConfig {
	cfg := c.MusicBrainz

	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.SearchLimit <= 0 || cfg.SearchLimit > 100 {
		cfg.SearchLimit = 5
	}
	cfg.SourceWeight = weightOrDefault(cfg.SourceWeight)

	return cfg
}

// GetMatchConfig returns the thresholds with defaults applied.
func (c *Config) GetMatchConfig() MatchConfig {
	cfg := c.Match
	if cfg.StrongRecThresh <= 0 || cfg.StrongRecThresh > 1 {
		cfg.StrongRecThresh = 0.04
	}
	if cfg.MediumRecThresh <= 0 || cfg.MediumRecThresh > 1 {
		cfg.MediumRecThresh = 0.1
	}
	return cfg
}

// GetLogConfig returns the logging configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	return cfg
}

func weightOrDefault(w *float64) *float64 {
	if w == nil || *w < 0 {
		v := defaultSourceWeight
		return &v
	}
	return w
}
