package document

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bornholm/casecache/internal/command/common"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/service"
	"github.com/bornholm/casecache/internal/setup"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

const (
	paramID          = "id"
	paramTitle       = "title"
	paramInput       = "input"
	paramConcurrency = "concurrency"
)

func cacheCommand() *cli.Command {
	flags := withFlags(
		&cli.StringFlag{
			Name:  paramID,
			Usage: "Document identifier",
		},
		&cli.StringFlag{
			Name:  paramTitle,
			Usage: "Document title",
		},
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    paramInput,
			Aliases: []string{"i"},
			Usage:   "Manifest of documents to cache, one '<id> <url> [title]' per line (use '-' for stdin)",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  paramConcurrency,
			Value: 4,
			Usage: "Number of concurrent downloads when using a manifest",
		}),
	)

	return &cli.Command{
		Name:      "cache",
		Usage:     "Download documents and keep them for offline use",
		ArgsUsage: "[url]",
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

			if input := cCtx.String(paramInput); input != "" {
				return cacheManifest(cCtx, documentCache, input)
			}

			entry, err := getEntry(cCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			doc, err := documentCache.Cache(ctx, entry.ID, entry.Title, entry.Source)
			if err != nil {
				return errors.Wrapf(err, "could not cache document '%s'", entry.ID)
			}

			common.Printf(cCtx, "%s\t%s\t%s\n", doc.ID(), doc.MimeType(), humanize.Bytes(uint64(doc.Size())))

			return nil
		},
	}
}

type manifestEntry struct {
	ID     model.DocumentID
	Title  string
	Source *url.URL
}

func getEntry(cCtx *cli.Context) (*manifestEntry, error) {
	rawURL := cCtx.Args().First()
	if rawURL == "" {
		return nil, errors.New("missing document url")
	}

	source, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse url '%s'", rawURL)
	}

	id := cCtx.String(paramID)
	if id == "" {
		id = rawURL
	}

	title := cCtx.String(paramTitle)
	if title == "" {
		title = id
	}

	return &manifestEntry{
		ID:     model.DocumentID(id),
		Title:  title,
		Source: source,
	}, nil
}

func parseManifestLine(line string) (*manifestEntry, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, errors.Errorf("expected '<id> <url> [title]', got '%s'", line)
	}

	source, err := url.Parse(fields[1])
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse url '%s'", fields[1])
	}

	title := fields[0]
	if len(fields) > 2 {
		title = strings.Join(fields[2:], " ")
	}

	return &manifestEntry{
		ID:     model.DocumentID(fields[0]),
		Title:  title,
		Source: source,
	}, nil
}

func openManifest(input string) (io.ReadCloser, error) {
	if input == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(input)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return file, nil
}

func cacheManifest(cCtx *cli.Context, documentCache *service.DocumentCache, input string) error {
	ctx := cCtx.Context

	manifest, err := openManifest(input)
	if err != nil {
		return errors.Wrap(err, "could not open manifest")
	}

	defer manifest.Close()

	concurrency := max(cCtx.Int(paramConcurrency), 1)
	sem := make(chan struct{}, concurrency)

	var (
		wg                sync.WaitGroup
		mutex             sync.Mutex
		succeeded, failed int
		totalSize         int64
	)

	slog.InfoContext(ctx, "caching documents", slog.String("manifest", input), slog.Int("concurrency", concurrency))

	start := time.Now()

	scanner := bufio.NewScanner(manifest)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseManifestLine(line)
		if err != nil {
			slog.WarnContext(ctx, "ignoring invalid manifest line", slog.Any("error", err))
			mutex.Lock()
			failed++
			mutex.Unlock()
			continue
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(ctx context.Context, entry *manifestEntry) {
			defer func() {
				<-sem
				wg.Done()
			}()

			doc, err := documentCache.Cache(ctx, entry.ID, entry.Title, entry.Source)

			mutex.Lock()
			defer mutex.Unlock()

			if err != nil {
				slog.ErrorContext(ctx, "could not cache document", slog.String("documentID", string(entry.ID)), slog.Any("error", errors.WithStack(err)))
				failed++
				return
			}

			succeeded++
			totalSize += doc.Size()
		}(ctx, entry)
	}

	wg.Wait()

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "could not read manifest")
	}

	slog.InfoContext(ctx, "documents cached",
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.String("size", humanize.Bytes(uint64(totalSize))),
		slog.Duration("duration", time.Since(start)),
	)

	if failed > 0 {
		return errors.Errorf("%d document(s) could not be cached", failed)
	}

	return nil
}
