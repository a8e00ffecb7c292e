package commands

import (
	"context"
	"fmt"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/pwa"
)

// CachekeyCmd implements the 'cachekey' command.
type CachekeyCmd struct {
	URLs     []string `arg:"" name:"url" help:"Request URLs"`
	Navigate bool     `help:"Treat URLs as navigations and resolve them against the rendered site"`
	BuildDir string   `name:"build-dir" help:"Rendered site used with --navigate (overrides output.build_dir)" type:"path"`
}

func (c *CachekeyCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadValidConfig(root.Config)
	if err != nil {
		return err
	}
	keys, err := pwa.NewKeyNormalizer(cfg.PWA.Workbox.IgnoreURLParametersMatching)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid ignore_url_parameters_matching")
	}

	var router *pwa.Router
	if c.Navigate {
		dir := cfg.Output.BuildDir
		if c.BuildDir != "" {
			dir = c.BuildDir
		}
		pc, err := scanBuildDir(context.Background(), dir, cfg.Output.Directory, cfg.PWA)
		if err != nil {
			return err
		}
		if router, err = pwa.NewRouter(pc, cfg.PWA); err != nil {
			return derrors.InternalError("build navigation router", err)
		}
	}

	for _, raw := range c.URLs {
		key, err := keys.Normalize(raw)
		if err != nil {
			return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid URL").
				WithContext("url", raw)
		}
		dropped, err := keys.IgnoredParams(raw)
		if err != nil {
			return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid URL").
				WithContext("url", raw)
		}
		cols := []string{raw, key}
		if router != nil {
			res, err := router.Resolve(raw, true)
			if err != nil {
				return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid URL").
					WithContext("url", raw)
			}
			switch {
			case !res.Found():
				cols = append(cols, "(not precached)")
			case res.Fallback:
				cols = append(cols, res.URL+" (fallback)")
			default:
				cols = append(cols, res.URL)
			}
		}
		if len(dropped) > 0 {
			cols = append(cols, "ignored="+strings.Join(dropped, ","))
		}
		_, _ = fmt.Fprintln(g.Out, strings.Join(cols, "\t"))
	}
	return nil
}
