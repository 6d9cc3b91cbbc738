package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-forecast/cli"
	"github.com/robinvdvleuten/beancount-forecast/config"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""
)

func main() {
	if err := config.LoadEnv(os.Getenv("BEANFORECAST_ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cli.Version = Version
	cli.CommitSHA = CommitSHA

	var cmds cli.Commands
	ctx := kong.Parse(&cmds,
		kong.Vars{
			"version":     buildVersion(),
			"config_file": config.DefaultFile,
		},
		kong.Name("beanforecast"),
		kong.Description("Expand recurring Beancount transactions into a forecast."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Bind(&cmds.Globals),
	)

	err := ctx.Run()

	var cmdErr *cli.CommandError
	if errors.As(err, &cmdErr) {
		os.Exit(cmdErr.ExitCode())
	}
	ctx.FatalIfErrorf(err)
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
