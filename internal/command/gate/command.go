package gate

import (
	"time"

	"github.com/bornholm/casecache/internal/command/common"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	paramPeriod      = "period"
	paramCost        = "cost"
	paramDescription = "description"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "gate",
		Usage: "Control access to paid resources",
		Subcommands: []*cli.Command{
			authorizeCommand(),
		},
	}
}

func authorizeCommand() *cli.Command {
	flags := common.WithSubjectFlags(
		&cli.StringFlag{
			Name:  paramPeriod,
			Usage: "Period key, defaults to the current day (YYYY-MM-DD)",
		},
		&cli.Int64Flag{
			Name:  paramCost,
			Value: 1,
			Usage: "Credits charged on the first access of the period",
		},
		&cli.StringFlag{
			Name:    paramDescription,
			Aliases: []string{"d"},
			Usage:   "Transaction description",
		},
	)

	return &cli.Command{
		Name:      "authorize",
		Usage:     "Authorize access to a gated resource, charging it at most once per period",
		ArgsUsage: "<gate>",
		Flags:     flags,
		Before:    common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			gateKey := cCtx.Args().First()
			if gateKey == "" {
				return errors.New("missing gate key")
			}

			subject, err := common.GetSubject(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			period := cCtx.String(paramPeriod)
			if period == "" {
				period = model.DailyPeriod(time.Now())
			}

			description := cCtx.String(paramDescription)
			if description == "" {
				description = "access to " + gateKey + " for " + period
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			gate, err := setup.NewAccessGateFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create access gate")
			}

			authorization, err := gate.Authorize(ctx, gateKey, period, subject, cCtx.Int64(paramCost), description)
			if err != nil {
				return errors.WithStack(err)
			}

			if !authorization.Granted() {
				common.Println(cCtx, authorization.Decision)
				return errors.Wrapf(authorization.Reason, "access to '%s' denied", gateKey)
			}

			common.Println(cCtx, authorization.Decision)

			return nil
		},
	}
}
