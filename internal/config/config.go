package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	f "github.com/multimediallc/hunk-context/pkg/functional"
	"github.com/pelletier/go-toml/v2"
)

const (
	FileName = "hunkcontext.toml"

	DefaultMaxWorkers    = 4
	DefaultCommentHeader = "<!-- hunk-context -->"
)

type Config struct {
	Ignore      []string `toml:"ignore"`
	Extensions  []string `toml:"extensions"`
	MaxWorkers  int      `toml:"max_workers"`
	SkipInvalid *bool    `toml:"skip_invalid"`
	Comment     *Comment `toml:"comment"`
}

type Comment struct {
	Enabled bool   `toml:"enabled"`
	Header  string `toml:"header"`
}

// FileReader is the subset of a repository reader needed to load the config
type FileReader interface {
	ReadFile(path string) ([]byte, error)
	PathExists(path string) bool
}

type osFileReader struct{}

func (osFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osFileReader) PathExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func defaultConfig() *Config {
	skipInvalid := true
	return &Config{
		Ignore:      []string{},
		Extensions:  []string{},
		MaxWorkers:  DefaultMaxWorkers,
		SkipInvalid: &skipInvalid,
		Comment:     &Comment{Enabled: true, Header: DefaultCommentHeader},
	}
}

// ReadConfig loads hunkcontext.toml from dir. A missing file yields the default
// config; on a read or parse error the default config is returned with the error.
// An invalid ignore pattern is reported alongside the parsed config.
// A nil reader reads from the local filesystem.
func ReadConfig(dir string, reader FileReader) (*Config, error) {
	if reader == nil {
		reader = osFileReader{}
	}
	fileName := path.Join(dir, FileName)

	if !reader.PathExists(fileName) {
		return defaultConfig(), nil
	}
	file, err := reader.ReadFile(fileName)
	if err != nil {
		return defaultConfig(), err
	}
	config := defaultConfig()
	err = toml.Unmarshal(file, &config)
	if err != nil {
		return defaultConfig(), fmt.Errorf("failed to parse %s: %w", fileName, err)
	}

	defaults := defaultConfig()
	if config.Ignore == nil {
		config.Ignore = defaults.Ignore
	}
	if config.Extensions == nil {
		config.Extensions = defaults.Extensions
	}
	if config.MaxWorkers < 1 {
		config.MaxWorkers = defaults.MaxWorkers
	}
	if config.SkipInvalid == nil {
		config.SkipInvalid = defaults.SkipInvalid
	}
	if config.Comment == nil {
		config.Comment = defaults.Comment
	}
	if strings.TrimSpace(config.Comment.Header) == "" {
		config.Comment.Header = DefaultCommentHeader
	}
	for _, pattern := range config.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return config, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return config, nil
}

// IsIgnored reports whether file matches any ignore pattern. A pattern ending in
// "/" ignores everything under that directory.
func (c *Config) IsIgnored(file string) bool {
	file = strings.TrimPrefix(file, "/")
	for _, pattern := range c.Ignore {
		if strings.HasSuffix(pattern, "/") {
			pattern += "**"
		}
		if matched, err := doublestar.Match(pattern, file); err == nil && matched {
			return true
		}
	}
	return false
}

// IgnoreDirs returns the ignore entries that are plain directory prefixes,
// usable to filter a diff before it is parsed further.
func (c *Config) IgnoreDirs() []string {
	return f.Filtered(c.Ignore, func(pattern string) bool {
		return strings.HasSuffix(pattern, "/") && !strings.ContainsAny(pattern, "*?[{")
	})
}

func (c *Config) ShouldSkipInvalid() bool {
	return c.SkipInvalid == nil || *c.SkipInvalid
}
