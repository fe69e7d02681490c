package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sssg/cmd/sssg/commands"
	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("sssg"),
		kong.Description("Incremental static site builder with a live-reload dev server."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		slog.Error("Failed to build CLI parser", "error", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		if ferrors.IsClassified(err) {
			return report(cli.Verbose, err)
		}
		parser.Errorf("%s", err)
		return 2
	}
	if err := kctx.Run(cli.Global(), cli); err != nil {
		return report(cli.Verbose, err)
	}
	return 0
}

func report(verbose bool, err error) int {
	return ferrors.NewCLIErrorAdapter(verbose, slog.Default()).Report(err)
}
