package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/version"
)

func main() {
	g := commands.NewGlobal()
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("docsite"),
		kong.Description("Resolve a documentation site descriptor into sidebar, web manifest and offline caching artifacts."),
		kong.UsageOnError(),
		kong.Bind(g),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
