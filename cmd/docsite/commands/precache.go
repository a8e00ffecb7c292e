package commands

import (
	"context"
	"os"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/pwa"
)

// PrecacheCmd implements the 'precache' command.
type PrecacheCmd struct {
	BuildDir string `name:"build-dir" help:"Rendered site to scan (overrides output.build_dir)" type:"path"`
}

func (p *PrecacheCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadValidConfig(root.Config)
	if err != nil {
		return err
	}
	dir := cfg.Output.BuildDir
	if p.BuildDir != "" {
		dir = p.BuildDir
	}
	pc, err := scanBuildDir(context.Background(), dir, cfg.Output.Directory, cfg.PWA)
	if err != nil {
		return err
	}
	return writeJSON(g.Out, pc)
}

// scanBuildDir builds the same precache a build would, leaving out anything
// under outputDir.
func scanBuildDir(ctx context.Context, dir, outputDir string, opts pwa.Options) (*pwa.Precache, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "build directory not readable").
			WithContext("path", dir)
	}
	if !info.IsDir() {
		return nil, derrors.New(derrors.CategoryFileSystem, derrors.SeverityFatal, "build directory is not a directory").
			WithContext("path", dir)
	}
	pc, err := pwa.ScanDir(ctx, dir, outputDir, opts)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "scan build directory").
			WithContext("path", dir)
	}
	return pc, nil
}
