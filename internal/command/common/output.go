package common

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

// NewTable returns a tab aligned writer over the command output. Callers must
// Flush() it.
func NewTable(ctx *cli.Context, headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)

	if len(headers) > 0 {
		for i, h := range headers {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, h)
		}
		fmt.Fprintln(w)
	}

	return w
}

func Println(ctx *cli.Context, args ...any) {
	fmt.Fprintln(writer(ctx), args...)
}

func Printf(ctx *cli.Context, format string, args ...any) {
	fmt.Fprintf(writer(ctx), format, args...)
}

func writer(ctx *cli.Context) io.Writer {
	return ctx.App.Writer
}
