package account

import (
	"fmt"
	"strconv"

	"github.com/bornholm/casecache/internal/command/common"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/setup"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	paramBalance     = "balance"
	paramDescription = "description"
	paramLimit       = "limit"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage credit accounts",
		Subcommands: []*cli.Command{
			registerCommand(),
			balanceCommand(),
			statusCommand(),
			debitCommand(),
			creditCommand(),
			historyCommand(),
		},
	}
}

func registerCommand() *cli.Command {
	flags := common.WithSubjectFlags(
		&cli.Int64Flag{
			Name:  paramBalance,
			Value: 0,
			Usage: "Initial balance of the account",
		},
	)

	return &cli.Command{
		Name:   "register",
		Usage:  "Open an account, does nothing if it already exists",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			subject, err := common.GetSubject(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			registry, err := setup.NewAccountRegistryFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create account registry")
			}

			if err := registry.RegisterAccount(ctx, subject, cCtx.Int64(paramBalance)); err != nil {
				return errors.Wrapf(err, "could not register account '%s'", subject)
			}

			return nil
		},
	}
}

func balanceCommand() *cli.Command {
	flags := common.WithSubjectFlags()

	return &cli.Command{
		Name:   "balance",
		Usage:  "Show the account balance",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			subject, err := common.GetSubject(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			ledger, err := setup.NewCreditLedgerFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create credit ledger")
			}

			balance, err := ledger.Balance(ctx, subject)
			if err != nil {
				return errors.WithStack(err)
			}

			common.Println(cCtx, balance)

			return nil
		},
	}
}

func statusCommand() *cli.Command {
	flags := common.WithSubjectFlags()

	return &cli.Command{
		Name:   "status",
		Usage:  "Show the account health (good, warning or critical)",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			subject, err := common.GetSubject(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			ledger, err := setup.NewCreditLedgerFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create credit ledger")
			}

			status, err := ledger.Status(ctx, subject)
			if err != nil {
				return errors.WithStack(err)
			}

			common.Println(cCtx, status)

			return nil
		},
	}
}

func debitCommand() *cli.Command {
	return movementCommand("debit", "Withdraw credits from the account", model.TransactionKindUsage)
}

func creditCommand() *cli.Command {
	return movementCommand("credit", "Add purchased credits to the account", model.TransactionKindPurchase)
}

func movementCommand(name string, usage string, kind model.TransactionKind) *cli.Command {
	flags := common.WithSubjectFlags(
		&cli.StringFlag{
			Name:    paramDescription,
			Aliases: []string{"d"},
			Usage:   "Transaction description",
		},
	)

	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<amount>",
		Flags:     flags,
		Before:    common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			subject, err := common.GetSubject(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			amount, err := strconv.ParseInt(cCtx.Args().First(), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "could not parse amount '%s'", cCtx.Args().First())
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			ledger, err := setup.NewCreditLedgerFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create credit ledger")
			}

			description := cCtx.String(paramDescription)

			var tx model.CreditTransaction
			switch kind {
			case model.TransactionKindUsage:
				tx, err = ledger.Debit(ctx, subject, amount, description)
			default:
				tx, err = ledger.Credit(ctx, subject, amount, description)
			}
			if err != nil {
				return errors.WithStack(err)
			}

			common.Println(cCtx, tx.ID())

			return nil
		},
	}
}

func historyCommand() *cli.Command {
	flags := common.WithSubjectFlags(
		&cli.IntFlag{
			Name:  paramLimit,
			Value: 20,
			Usage: "Maximum number of transactions to show, 0 for all",
		},
	)

	return &cli.Command{
		Name:   "history",
		Usage:  "Show the most recent transactions of the account",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			subject, err := common.GetSubject(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			ledger, err := setup.NewCreditLedgerFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create credit ledger")
			}

			transactions, err := ledger.History(ctx, subject, cCtx.Int(paramLimit))
			if err != nil {
				return errors.WithStack(err)
			}

			table := common.NewTable(cCtx, "ID", "KIND", "AMOUNT", "DESCRIPTION", "DATE")
			for _, tx := range transactions {
				amount := tx.Amount()
				if tx.Kind() == model.TransactionKindUsage {
					amount = -amount
				}

				fmt.Fprintf(table, "%s\t%s\t%+d\t%s\t%s\n", tx.ID(), tx.Kind(), amount, tx.Description(), humanize.Time(tx.CreatedAt()))
			}

			return errors.WithStack(table.Flush())
		},
	}
}
