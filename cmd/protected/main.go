// Command protected resolves a non-public member of a type described by
// metadata and prints the invocation template a mock would intercept.
//
//	protected resolve --decl service.yaml Acme.Orders.Service Compute '2 + 3' 'It.IsAny[string]()'
//	protected resolve --winmd Acme.dll --kind get Acme.Orders.Service Secret
//	protected types --decl service.yaml
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// options holds the flags shared by every subcommand.
type options struct {
	declFiles []string
	winmdFile string
	cacheFile string
	rootDir   string
	verbose   bool
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "protected",
		Short:         "Resolve non-public members for interception",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringSliceVar(&opts.declFiles, "decl", nil, "YAML declaration file (repeatable)")
	flags.StringVar(&opts.winmdFile, "winmd", "", "assembly or .winmd file to read metadata from")
	flags.StringVar(&opts.cacheFile, "cache", "", "metadata cache file; empty disables caching")
	flags.StringVar(&opts.rootDir, "root", ".", "directory cached source paths are recorded relative to")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newResolveCmd(opts), newTypesCmd(opts))
	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		cmd.PrintErrf("!! %+v\n", err)
		os.Exit(1)
	}
}
