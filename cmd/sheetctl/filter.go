package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetboard/internal/core"
)

func newFilterCmd(a *app) *cobra.Command {
	var maxRows int

	cmd := &cobra.Command{
		Use:   "filter <dataset> [query...]",
		Short: "Print the rows of a dataset that match a query, with column totals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.resolveDataset(args[0])
			query := strings.Join(args[1:], " ")

			t, err := a.loader().Load(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("%s: %s", name, describeLoadError(err))
			}

			if maxRows <= 0 {
				maxRows = a.cfg.Display.MaxRows
			}
			res := core.Filter(t, query, maxRows)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(t.ColumnNames(), "\t"))
			for _, fr := range res.Rows {
				if !fr.Visible {
					continue
				}
				cells := make([]string, len(fr.Row))
				for i, c := range fr.Row {
					cells[i] = c.Text()
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}

			totals := make([]string, len(res.Totals))
			for i, total := range res.Totals {
				if total != nil {
					totals[i] = core.FormatNumber(*total)
				}
			}
			fmt.Fprintln(tw, strings.Join(totals, "\t"))
			if err := tw.Flush(); err != nil {
				return err
			}

			note := ""
			if res.Truncated {
				note = fmt.Sprintf(" (first %d rows only)", maxRows)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d rows visible%s\n", res.Visible, len(res.Rows), note)
			return err
		},
	}

	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "row cap before filtering (default: MAX_DISPLAY_ROWS)")
	return cmd
}
