package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cleared-dev/spendview/internal/model"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"section", "key", "value"}

const (
	sectionTotal = "total"
	sectionFile  = "file"
	sectionSlice = "slice"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders d as USD, e.g. "$1,234.50".
func FormatCurrency(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.InexactFloat64())
}

// WriteText writes a human-readable breakdown followed by the summary table.
func WriteText(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Analyzing expenses from %s\n\n", s.Range)
	fmt.Fprintln(tw, "Individual Credit Transactions")
	if s.Empty() {
		fmt.Fprintln(tw, "  (no credits in range)")
	} else {
		fmt.Fprintln(tw, "NAME\tDATE\tSOURCE\tAMOUNT\tSHARE")
		for _, sl := range s.Slices {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\n",
				sl.Name, sl.Date.Format(model.DateFormat), sl.Source,
				FormatCurrency(sl.Value), s.Share(sl.Value).StringFixed(1))
		}
	}

	fmt.Fprintln(tw)
	for _, r := range s.Table {
		fmt.Fprintf(tw, "%s\t%s\n", r.Key, FormatCurrency(r.Value))
	}
	return tw.Flush()
}

// WriteCSV writes the summary table and the breakdown as one CSV with a
// section column.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range s.Table {
		section := sectionFile
		if i == 0 {
			section = sectionTotal
		}
		if err := cw.Write([]string{section, r.Key, r.Value.StringFixed(2)}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, sl := range s.Slices {
		if err := cw.Write([]string{sectionSlice, sl.Label, sl.Value.StringFixed(2)}); err != nil {
			return fmt.Errorf("writing slice %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
