package document

import (
	"fmt"
	"net/url"
	"os"

	"github.com/bornholm/casecache/internal/command/common"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/setup"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const paramOutput = "output"

func getCommand() *cli.Command {
	flags := withFlags(
		&cli.StringFlag{
			Name:  paramID,
			Usage: "Document identifier, defaults to the url",
		},
		&cli.StringFlag{
			Name:    paramOutput,
			Aliases: []string{"o"},
			Value:   "-",
			Usage:   "Output file (use '-' for stdout)",
		},
	)

	return &cli.Command{
		Name:      "get",
		Usage:     "Read a document, from the cache if available or from the network otherwise",
		ArgsUsage: "<url>",
		Flags:     flags,
		Before:    common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			documentCache, err := setup.NewDocumentCacheFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create document cache")
			}

			rawURL := cCtx.Args().First()

			var source *url.URL
			if rawURL != "" {
				source, err = url.Parse(rawURL)
				if err != nil {
					return errors.Wrapf(err, "could not parse url '%s'", rawURL)
				}
			}

			id := cCtx.String(paramID)
			if id == "" {
				id = rawURL
			}

			if id == "" {
				return errors.New("missing document url or identifier")
			}

			data, err := documentCache.Resolve(ctx, model.DocumentID(id), source, id)
			if err != nil {
				return errors.Wrapf(err, "could not read document '%s'", id)
			}

			output := cCtx.String(paramOutput)
			if output == "-" {
				if _, err := cCtx.App.Writer.Write(data); err != nil {
					return errors.WithStack(err)
				}

				return nil
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}

func listCommand() *cli.Command {
	flags := withFlags()

	return &cli.Command{
		Name:   "list",
		Usage:  "List cached documents",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			documentCache, err := setup.NewDocumentCacheFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create document cache")
			}

			documents, err := documentCache.List(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			table := common.NewTable(cCtx, "ID", "TITLE", "TYPE", "SIZE", "CACHED")
			for _, d := range documents {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n", d.ID(), d.Title(), d.MimeType(), humanize.Bytes(uint64(d.Size())), humanize.Time(d.CachedAt()))
			}

			return errors.WithStack(table.Flush())
		},
	}
}

func removeCommand() *cli.Command {
	flags := withFlags()

	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove documents from the cache",
		ArgsUsage: "<id> [id...]",
		Flags:     flags,
		Before:    common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			if cCtx.NArg() == 0 {
				return errors.New("missing document identifier")
			}

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			documentCache, err := setup.NewDocumentCacheFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create document cache")
			}

			for _, id := range cCtx.Args().Slice() {
				if err := documentCache.Remove(ctx, model.DocumentID(id)); err != nil {
					return errors.Wrapf(err, "could not remove document '%s'", id)
				}
			}

			return nil
		},
	}
}

func clearCommand() *cli.Command {
	flags := withFlags()

	return &cli.Command{
		Name:   "clear",
		Usage:  "Remove all cached documents",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			documentCache, err := setup.NewDocumentCacheFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create document cache")
			}

			return errors.WithStack(documentCache.Clear(ctx))
		},
	}
}

func usageCommand() *cli.Command {
	flags := withFlags()

	return &cli.Command{
		Name:   "usage",
		Usage:  "Show the cache usage",
		Flags:  flags,
		Before: common.InitConfigSource(flags),
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			conf, err := common.GetConfig(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			documentCache, err := setup.NewDocumentCacheFromConfig(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "could not create document cache")
			}

			usage, err := documentCache.Usage(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			limit := "unlimited"
			if maxSize := documentCache.MaxSize(); maxSize > 0 {
				limit = humanize.Bytes(uint64(maxSize))
			}

			common.Printf(cCtx, "%d document(s), %s used of %s\n", usage.Count, humanize.Bytes(uint64(usage.TotalSize)), limit)

			return nil
		},
	}
}
