package common

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Bornholm/amatl/pkg/resolver"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	"gopkg.in/yaml.v3"
)

func NewResolverSourceFromFlagFunc(flag string) func(cCtx *cli.Context) (altsrc.InputSourceContext, error) {
	return func(cCtx *cli.Context) (altsrc.InputSourceContext, error) {
		if rawURL := cCtx.String(flag); rawURL != "" {
			return NewResolvedInputSource(cCtx.Context, rawURL)
		}

		return altsrc.NewMapInputSource("", map[any]any{}), nil
	}
}

// NewResolvedInputSource reads flag values from a YAML or JSON document
// located by any url supported by the amatl resolver (file, http(s), stdin).
func NewResolvedInputSource(ctx context.Context, rawURL string) (altsrc.InputSourceContext, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse url '%s'", rawURL)
	}

	reader, err := resolver.Resolve(ctx, u)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	switch ext := filepath.Ext(u.Path); ext {
	case ".json", ".yaml", ".yml":
		values := map[any]any{}

		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrapf(err, "could not parse '%s'", rawURL)
		}

		if u.Scheme == "" || u.Scheme == "file" {
			values, err = resolveRelativePaths(u, values)
			if err != nil {
				return nil, errors.WithStack(err)
			}
		}

		return altsrc.NewMapInputSource(rawURL, values), nil

	default:
		return nil, errors.Errorf("no parser associated with '%s' file extension", ext)
	}
}

var pathKeys = []string{"input"}

// resolveRelativePaths makes path values relative to the configuration file
// directory.
func resolveRelativePaths(from *url.URL, values map[any]any) (map[any]any, error) {
	dir, err := filepath.Abs(filepath.Dir(from.Path))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, key := range pathKeys {
		value, ok := values[key].(string)
		if !ok || value == "" || value == "-" || filepath.IsAbs(value) || strings.Contains(value, "://") {
			continue
		}

		values[key] = filepath.Join(dir, value)
	}

	return values, nil
}
