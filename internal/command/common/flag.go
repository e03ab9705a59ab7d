package common

import (
	"github.com/bornholm/casecache/internal/config"
	"github.com/bornholm/casecache/internal/core/model"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"

	// Register resolver schemes
	_ "github.com/Bornholm/amatl/pkg/resolver/file"
	_ "github.com/Bornholm/amatl/pkg/resolver/http"
	_ "github.com/Bornholm/amatl/pkg/resolver/stdin"
)

const (
	paramConfig  = "config"
	paramOffline = "offline"
	paramSubject = "subject"
)

var (
	flagOffline = altsrc.NewBoolFlag(&cli.BoolFlag{
		Name:    paramOffline,
		EnvVars: []string{"CASECACHE_CONNECTIVITY_OFFLINE"},
		Usage:   "Consider the host offline, only cached documents are served",
	})
	flagSubject = altsrc.NewStringFlag(&cli.StringFlag{
		Name:    paramSubject,
		Aliases: []string{"s"},
		EnvVars: []string{"CASECACHE_SUBJECT"},
		Usage:   "Account subject",
	})
)

func WithCommonFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		flagOffline,
	}, flags...)
}

func WithSubjectFlags(flags ...cli.Flag) []cli.Flag {
	return WithCommonFlags(append([]cli.Flag{
		flagSubject,
	}, flags...)...)
}

// InitConfigSource loads flag values from the file referenced by the
// --config flag, if any.
func InitConfigSource(flags []cli.Flag) cli.BeforeFunc {
	return altsrc.InitInputSourceWithContext(flags, NewResolverSourceFromFlagFunc(paramConfig))
}

func GetConfig(ctx *cli.Context) (*config.Config, error) {
	conf, err := config.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "could not parse configuration")
	}

	if ctx.Bool(paramOffline) {
		conf.Connectivity.Offline = true
	}

	return conf, nil
}

func GetSubject(ctx *cli.Context) (model.SubjectID, error) {
	subject := ctx.String(paramSubject)
	if subject == "" {
		return "", errors.Errorf("missing '--%s' flag", paramSubject)
	}

	return model.SubjectID(subject), nil
}
