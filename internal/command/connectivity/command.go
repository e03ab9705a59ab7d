package connectivity

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bornholm/casecache/internal/command/common"
	"github.com/bornholm/casecache/internal/core/service"
	"github.com/bornholm/casecache/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "connectivity",
		Usage: "Inspect the host connectivity",
		Subcommands: []*cli.Command{
			statusCommand(),
			watchCommand(),
		},
	}
}

func statusCommand() *cli.Command {
	flags := common.WithCommonFlags()

	return &cli.Command{
		Name:   "status",
		Usage:  "Print the current connectivity state",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			observer, err := setup.NewConnectivityObserverFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create connectivity observer")
			}

			if !observer.Confident() {
				slog.WarnContext(ctx, "connectivity not probed, state is assumed")
			}

			common.Println(cCtx, observer.State())

			return nil
		},
	}
}

func watchCommand() *cli.Command {
	flags := common.WithCommonFlags()

	return &cli.Command{
		Name:   "watch",
		Usage:  "Print connectivity transitions and serve metrics until interrupted",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx, cancel := signal.NotifyContext(cCtx.Context, os.Interrupt)
			defer cancel()

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			if err := setup.StartMetricsServerFromConfig(ctx, conf); err != nil {
				return errors.Wrap(err, "could not start metrics server")
			}

			observer, err := setup.NewConnectivityObserverFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create connectivity observer")
			}

			unsubscribe := observer.OnChange(func(ctx context.Context, transition service.ConnectivityTransition) {
				common.Printf(cCtx, "%s\t%s -> %s\n", transition.At.Format("15:04:05"), transition.From, transition.To)
			})
			defer unsubscribe()

			common.Println(cCtx, observer.State())

			slog.InfoContext(ctx, "use ctrl+c to interrupt")

			<-ctx.Done()

			return nil
		},
	}
}
