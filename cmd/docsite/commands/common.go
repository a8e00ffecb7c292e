package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/history"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	// Out receives command output; logs go to stderr.
	Out io.Writer
}

// NewGlobal returns the production Global writing to stdout.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Out: os.Stdout}
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Site descriptor path (.yaml, .yml, .toml or .json)" default:"docsite.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	History string           `help:"SQLite database recording every build; empty disables recording" type:"path"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Write an example site descriptor"`
	Validate ValidateCmd `cmd:"" help:"Validate the descriptor, its sidebar slugs and the web manifest"`
	Build    BuildCmd    `cmd:"" help:"Generate sidebar, web manifest and service worker artifacts"`
	Sidebar  SidebarCmd  `cmd:"" help:"Print the resolved sidebar"`
	Precache PrecacheCmd `cmd:"" help:"Print the precache manifest for the rendered site"`
	Cachekey CachekeyCmd `cmd:"" help:"Print the cache keys the service worker uses for URLs"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild when site inputs change and on a schedule"`
	Log      HistoryCmd  `cmd:"" name:"history" help:"List recorded builds"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// loadValidConfig loads and structurally validates the descriptor.
func loadValidConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openHistory opens the history store when --history is set.
func openHistory(path string) (*history.SQLiteStore, error) {
	if path == "" {
		return nil, nil
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open build history: %w", err)
	}
	return store, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
