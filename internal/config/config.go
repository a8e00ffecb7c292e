package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/pwa"
)

// Config is the site configuration descriptor. It is read once per build and
// treated as read-only afterwards.
type Config struct {
	Site       SiteConfig        `yaml:"site"`
	Sidebar    []NavGroup        `yaml:"sidebar"`
	Components map[string]string `yaml:"components,omitempty"` // UI slot name -> component file
	PWA        pwa.Options       `yaml:"pwa"`
	Content    ContentConfig     `yaml:"content,omitempty"`
	Output     OutputConfig      `yaml:"output,omitempty"`
}

// SiteConfig holds the site-wide presentation settings.
type SiteConfig struct {
	Title     string            `yaml:"title"`
	Credits   bool              `yaml:"credits,omitempty"`    // show generator attribution
	CustomCSS []string          `yaml:"custom_css,omitempty"` // stylesheet overrides
	Social    map[string]string `yaml:"social,omitempty"`     // platform -> URL
}

// NavGroup is one sidebar section. Item order is display order.
type NavGroup struct {
	Label string    `yaml:"label"`
	Items []NavItem `yaml:"items"`
}

// NavItem links a sidebar label to a content document by slug.
type NavItem struct {
	Label string `yaml:"label"`
	Slug  string `yaml:"slug"`
}

// ContentConfig locates the content documents slugs resolve against.
type ContentConfig struct {
	Dir string `yaml:"dir,omitempty"`
	// GitInfo enables last-updated lookups from repository history.
	GitInfo bool `yaml:"git_info,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"` // generated artifacts
	BuildDir  string `yaml:"build_dir,omitempty"` // rendered site scanned for precache
}

// Format is a descriptor file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from the file extension; unknown extensions are YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load loads the descriptor at configPath, applies defaults and resolves
// relative paths against the descriptor's directory. It does not validate.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	loadEnvFile(filepath.Dir(configPath))

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, derrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, derrors.ConfigParse(configPath, err)
	}

	// Expand environment variables in the descriptor content
	expanded := os.ExpandEnv(string(data))

	cfg, err := Parse([]byte(expanded), FormatFor(configPath))
	if err != nil {
		return nil, derrors.ConfigParse(configPath, err)
	}

	cfg.resolvePaths(filepath.Dir(configPath))
	return cfg, nil
}

// Parse decodes a descriptor and applies defaults. TOML and JSON documents are
// normalized through YAML so that a single set of field names applies.
func Parse(data []byte, format Format) (*Config, error) {
	switch format {
	case FormatTOML:
		var generic map[string]any
		if _, err := toml.Decode(string(data), &generic); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		return fromGeneric(generic)
	case FormatJSON:
		var generic map[string]any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return fromGeneric(generic)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func fromGeneric(generic map[string]any) (*Config, error) {
	data, err := yaml.Marshal(generic)
	if err != nil {
		return nil, err
	}
	return Parse(data, FormatYAML)
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Content.Dir == "" {
		c.Content.Dir = "src/content/docs"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "dist/.docsite"
	}
	if c.Output.BuildDir == "" {
		c.Output.BuildDir = "dist"
	}
	c.PWA.ApplyDefaults()
}

// resolvePaths anchors relative filesystem paths at the descriptor directory.
func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Content.Dir = abs(c.Content.Dir)
	c.Output.Directory = abs(c.Output.Directory)
	c.Output.BuildDir = abs(c.Output.BuildDir)
	c.PWA.Manifest = abs(c.PWA.Manifest)
}

// Slugs returns every sidebar slug in display order.
func (c *Config) Slugs() []string {
	var out []string
	for _, g := range c.Sidebar {
		for _, it := range g.Items {
			out = append(out, it.Slug)
		}
	}
	return out
}

// ComponentSlots returns the component overrides in slot-name order.
func (c *Config) ComponentSlots() []string {
	return sortedKeys(c.Components)
}
