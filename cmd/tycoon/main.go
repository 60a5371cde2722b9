package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Host     HostCmd          `cmd:"" help:"Host a table and play from this terminal"`
	Join     JoinCmd          `cmd:"" help:"Join a table hosted on another machine"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot-only rounds and report statistics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tycoon"),
		kong.Description("Peer-hosted climbing card game for two to six players"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
