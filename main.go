package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/keyring/internal/cli"
	"github.com/semmy-space/keyring/internal/output"
)

var (
	version = "dev"
)

func main() {
	// Build parser
	cliInstance := &cli.CLI{}
	parser := kong.Must(cliInstance,
		kong.Name("keyring"),
		kong.Description("Store and retrieve passwords and secrets in pluggable credential stores"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	// Answer shell completion requests and exit before parsing
	kongplete.Complete(parser,
		kongplete.WithPredictor("file", complete.PredictFiles("*")),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	// Run command with bound dependencies
	if err := ctx.Run(); err != nil {
		// We need a formatter instance, create a basic one for error output
		os.Exit(output.Report(output.New("plain"), err))
	}
}
