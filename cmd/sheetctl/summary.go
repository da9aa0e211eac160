package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetboard/internal/core"
)

func newSummaryCmd(a *app) *cobra.Command {
	var (
		dataset string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the summary panel of the designated dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := dataset
			if name == "" {
				name = a.cfg.Summary.Dataset
			}
			name = a.resolveDataset(name)

			t, err := a.loader().Load(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("%s: %s", name, describeLoadError(err))
			}

			res := core.Summarize(t, a.summarySpec())
			if asJSON {
				out, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			}
			return printSummary(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset to summarize (default: DESIGNATED_SUMMARY_DATASET)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func printSummary(w io.Writer, res core.SummaryResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s\n", res.Dataset)
	fmt.Fprintf(&b, "Rows: %d\n", res.RowCount)

	for _, cat := range res.Categories {
		if !cat.Present {
			fmt.Fprintf(&b, "\n%s: (column not found)\n", cat.Column)
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", cat.Column)
		for _, vc := range cat.Sorted() {
			value := vc.Value
			if value == "" {
				value = "(empty)"
			}
			fmt.Fprintf(&b, "  %s: %d\n", value, vc.Count)
		}
	}

	if res.SumColumn != "" {
		fmt.Fprintf(&b, "\nSum of %s: %s\n", res.SumColumn, core.FormatNumber(res.Sum))
	}
	if res.DistinctColumn != "" {
		fmt.Fprintf(&b, "\n%s (%d):\n", res.DistinctColumn, len(res.Distinct))
		for _, v := range res.Distinct {
			fmt.Fprintf(&b, "  %s\n", v)
		}
	}
	if res.BinaryColumn != "" {
		fmt.Fprintf(&b, "\n%s: affirmative %d, negative %d\n", res.BinaryColumn, res.Binary.Affirmative, res.Binary.Negative)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
