// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// newTable creates a table writer with right-aligned rows.
func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

// renderTable bulk-loads the rows and renders the table.
func renderTable(table *tablewriter.Table, data [][]string) error {
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formatKappa renders an agreement score, or "n/a" when it is undefined.
func formatKappa(k schema.Kappa, fmtFloat func(float64) string) string {
	v, ok := k.Value()
	if !ok {
		return contract.UndefinedValue
	}
	return fmtFloat(v)
}

// kappaLabel returns the agreement band, colored for tables when enabled.
func kappaLabel(k schema.Kappa, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorLabel(k)
	}
	return contract.GetPlainLabel(k)
}

// formatValue renders a judgment as a signed digit.
func formatValue(v schema.AnnotationValue) string {
	if v == schema.Positive {
		return "+1"
	}
	return fmt.Sprintf("%d", int(v))
}

// formatCell renders one comparison cell; a missing judgment is a dash.
func formatCell(c schema.ComparisonCell) string {
	if !c.Present {
		return "-"
	}
	return formatValue(c.Value)
}

// annotatorNames converts annotator ids to plain strings.
func annotatorNames(ids []schema.AnnotatorID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}

// oneLine collapses whitespace so payload text fits in a table cell.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
