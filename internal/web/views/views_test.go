package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetboard/internal/core"
)

func renderString(t *testing.T, r func(ctx context.Context, buf *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r(context.Background(), &buf); err != nil {
		t.Fatalf("render error: %v", err)
	}
	return buf.String()
}

func TestWarnings_EmptyRendersNothing(t *testing.T) {
	out := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return Warnings(nil).Render(ctx, buf)
	})
	if out != "" {
		t.Errorf("got %q, want empty", out)
	}
}

func TestWarnings_Escapes(t *testing.T) {
	out := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return Warnings([]Warning{{Dataset: "<b>X</b>", Message: "m", Code: "SRC001"}}).Render(ctx, buf)
	})
	if strings.Contains(out, "<b>X</b>") || !strings.Contains(out, "&lt;b&gt;X&lt;/b&gt;") {
		t.Errorf("dataset name not escaped: %s", out)
	}
}

func TestTablePanel_TotalsRow(t *testing.T) {
	tbl, err := core.NewTable("T", []string{"A", "N"}, []core.Row{{"x", "1"}, {"y", "2"}})
	if err != nil {
		t.Fatal(err)
	}
	res := core.Filter(tbl, "", 1)

	out := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return TablePanel(0, res, 1).Render(ctx, buf)
	})

	if !strings.Contains(out, `<tr class="totals"><td></td><td>1</td></tr>`) {
		t.Errorf("totals row wrong: %s", out)
	}
	if !strings.Contains(out, "primeras 1 filas") {
		t.Error("truncation notice missing")
	}
	if strings.Contains(out, "<td>y</td>") {
		t.Error("row beyond the cap rendered")
	}
}

func TestSplitChart_Proportions(t *testing.T) {
	out := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return SplitChart("SNI", "Sí", "No", core.BinarySplit{Affirmative: 3, Negative: 1}).Render(ctx, buf)
	})
	if !strings.Contains(out, `width="75"`) || !strings.Contains(out, `width="25"`) {
		t.Errorf("unexpected bar widths: %s", out)
	}
	if !strings.Contains(out, "Sí: 3 · No: 1") {
		t.Errorf("legend should use the markers: %s", out)
	}

	out = renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return SplitChart("SNI", "SI", "NO", core.BinarySplit{}).Render(ctx, buf)
	})
	if !strings.Contains(out, `x="0" y="0" height="10" width="0"`) {
		t.Errorf("empty split should render a zero bar: %s", out)
	}
}

func TestSummaryPanel_Labels(t *testing.T) {
	res := core.SummaryResult{
		Dataset:        "PTC",
		RowCount:       2,
		DistinctColumn: "SEDE",
		Distinct:       []string{"Norte", "Sur"},
		BinaryColumn:   "SNI",
		Affirmative:    "Y",
		Negative:       "N",
		Binary:         core.BinarySplit{Affirmative: 1, Negative: 1},
	}
	out := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return SummaryPanel(res).Render(ctx, buf)
	})
	for _, want := range []string{"<strong>SEDE:</strong>", "<li>Norte</li>", "Y: 1 · N: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestTabURL(t *testing.T) {
	tests := []struct {
		index int
		query string
		want  string
	}{
		{0, "", "/?tab=0"},
		{2, "álgebra lineal", "/?q=%C3%A1lgebra+lineal&tab=2"},
	}
	for _, tt := range tests {
		if got := TabURL(tt.index, tt.query); got != tt.want {
			t.Errorf("TabURL(%d, %q) = %q, want %q", tt.index, tt.query, got, tt.want)
		}
	}
}

func TestSummaryPanel_MissingColumn(t *testing.T) {
	res := core.Summarize(core.EmptyTable("PTC"), core.SummarySpec{CategoryColumns: []string{"PRODEP"}})
	out := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return SummaryPanel(res).Render(ctx, buf)
	})
	if !strings.Contains(out, "Columna no encontrada") {
		t.Errorf("missing column notice absent: %s", out)
	}
}
