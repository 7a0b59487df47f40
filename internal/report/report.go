// Package report renders inventory listings and stock summaries as text
// tables and XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"github.com/sporetrack/sporetrack/internal/model"
)

// Sheet names in the exported workbook.
const (
	SummarySheet = "Summary"
	ItemsSheet   = "Items"
)

const dateLayout = "02.01.2006"

var (
	summaryHeader = []any{"Type", "Generation", "Total", "In stock", "Checked out"}
	itemsHeader   = []any{"Barcode", "Type", "Label date", "Generation", "Sequence", "Location", "Status", "Note", "Updated"}
)

// WriteXLSX writes a workbook with a Summary sheet and an Items sheet.
func WriteXLSX(w io.Writer, summary []model.StockSummary, items []model.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	// A new file starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("creating items sheet: %w", err)
	}

	if err := setRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, s := range summary {
		row := []any{s.Type.Name(), s.Generation, s.Total, s.InStock, s.CheckedOut}
		if err := setRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}
	}

	if err := setRow(f, ItemsSheet, 1, itemsHeader); err != nil {
		return err
	}
	for i, item := range items {
		row := []any{
			item.Barcode,
			item.Type.Name(),
			item.LabelDate.Format(dateLayout),
			item.Generation,
			item.Sequence,
			item.Location,
			item.Status,
			item.Note,
			item.UpdatedAt.Format("2006-01-02 15:04"),
		}
		if err := setRow(f, ItemsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(ItemsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

// WriteSummary prints the per-type, per-generation stock table.
func WriteSummary(w io.Writer, summary []model.StockSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tGEN\tTOTAL\tIN STOCK\tCHECKED OUT")
	var total, in, out int
	for _, s := range summary {
		fmt.Fprintf(tw, "%s\tG%d\t%d\t%d\t%d\n", s.Type.Name(), s.Generation, s.Total, s.InStock, s.CheckedOut)
		total += s.Total
		in += s.InStock
		out += s.CheckedOut
	}
	fmt.Fprintf(tw, "\t\t%d\t%d\t%d\n", total, in, out)
	return tw.Flush()
}

// WriteItems prints one line per item.
func WriteItems(w io.Writer, items []model.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BARCODE\tLOCATION\tSTATUS\tNOTE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Barcode, item.Location, item.Status, item.Note)
	}
	return tw.Flush()
}

// WriteItem prints an item with its full history.
func WriteItem(w io.Writer, item *model.Item) error {
	fmt.Fprintf(w, "%s  %s G%d  labelled %s\n", item.Barcode, item.Type.Name(), item.Generation, item.LabelDate.Format(dateLayout))
	fmt.Fprintf(w, "status: %s at %s\n", item.Status, item.Location)
	if item.Note != "" {
		fmt.Fprintf(w, "note: %s\n", item.Note)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAT\tACTION\tFROM\tTO\tSTATUS")
	for _, h := range item.History {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			h.Seq, h.At.Format("2006-01-02 15:04:05"), h.Action, h.FromLocation, h.ToLocation, h.Status)
	}
	return tw.Flush()
}
