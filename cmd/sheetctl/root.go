package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetboard/internal/config"
	"github.com/JonMunkholm/sheetboard/internal/core"
	"github.com/JonMunkholm/sheetboard/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	lookup   config.LookupFunc
	dir      string
	logLevel string
	cfg      *config.Config
}

func newRootCmd(lookup config.LookupFunc) *cobra.Command {
	a := &app{lookup: lookup}

	root := &cobra.Command{
		Use:           "sheetctl",
		Short:         "Inspect the dashboard datasets from the command line",
		Long:          `sheetctl loads the datasets the dashboard is configured with, using the same environment variables, and prints load status, filtered tables or the summary panel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Logs go to stderr so stdout stays parseable.
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), a.logLevel, "text"))

			cfg, err := config.LoadWith(a.lookup)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.dir, "dir", "", "read <dir>/<dataset>.csv instead of fetching from the sheet")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newCheckCmd(a), newSummaryCmd(a), newFilterCmd(a))
	return root
}

// loader builds a Loader over the configured source or --dir.
func (a *app) loader() *core.Loader {
	var source core.Source
	if a.dir != "" {
		source = core.DirSource{Dir: a.dir}
	} else {
		source = core.NewHTTPSource(core.HTTPSourceConfig{
			Root:          a.cfg.Source.Root,
			SheetID:       a.cfg.Source.SheetID,
			Timeout:       a.cfg.Source.FetchTimeout,
			AllowInsecure: a.cfg.Source.AllowInsecureTransport,
		})
	}
	return core.NewLoader(source, a.cfg.Source.FetchConcurrency)
}

// resolveDataset matches name case-insensitively against the configured
// datasets and returns the configured spelling. Unknown names are used as
// given.
func (a *app) resolveDataset(name string) string {
	for _, n := range a.cfg.Source.DatasetNames {
		if core.IsDesignated(n, name) {
			return n
		}
	}
	return name
}

func (a *app) summarySpec() core.SummarySpec {
	s := a.cfg.Summary
	return core.SummarySpec{
		CategoryColumns: s.CategoryColumns,
		SumColumn:       s.SumColumn,
		DistinctColumn:  s.DistinctColumn,
		BinaryColumn:    s.BinaryColumn,
		Affirmative:     s.Affirmative,
		Negative:        s.Negative,
	}
}

// describeLoadError renders a load error the way the dashboard shows it.
// Errors without a specific mapping keep their technical message.
func describeLoadError(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return fmt.Sprintf("%s [%v]", core.FormatUserError(err), err)
}
