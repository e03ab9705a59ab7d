package document

import (
	"github.com/bornholm/casecache/internal/command/common"
	"github.com/urfave/cli/v2"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "document",
		Usage: "Manage the offline document cache",
		Subcommands: []*cli.Command{
			cacheCommand(),
			getCommand(),
			listCommand(),
			removeCommand(),
			clearCommand(),
			usageCommand(),
		},
	}
}

func withFlags(flags ...cli.Flag) []cli.Flag {
	return common.WithCommonFlags(flags...)
}
