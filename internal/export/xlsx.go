package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"productmix/internal/category"
	"productmix/internal/mix"
)

// SheetName is the single worksheet written by WriteXLSX.
const SheetName = "Product Mix"

// Built-in number formats: 4 is "#,##0.00", 2 is "0.00".
const (
	numFmtAmount = 4
	numFmtPct    = 2
)

// WriteXLSX saves the table as a workbook with one sheet, a frozen header
// row, and numeric cells for amounts and percentages.
func WriteXLSX(path string, recs []mix.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	hdr := Header()
	cells := make([]interface{}, len(hdr))
	for i, h := range hdr {
		cells[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &cells); err != nil {
		return fmt.Errorf("xlsx: header: %w", err)
	}

	for i, r := range recs {
		vals := make([]interface{}, 0, len(hdr))
		vals = append(vals, r.AccountNumber)
		for _, v := range r.Sales {
			vals = append(vals, v.InexactFloat64())
		}
		vals = append(vals, r.TotalSales.InexactFloat64())
		for _, v := range r.Pct {
			vals = append(vals, v.InexactFloat64())
		}
		vals = append(vals, r.Name(""))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return fmt.Errorf("xlsx: account %s: %w", r.AccountNumber, err)
		}
	}

	if len(recs) > 0 {
		if err := styleRange(f, numFmtAmount, 2, 2+category.Count, len(recs)); err != nil {
			return err
		}
		if err := styleRange(f, numFmtPct, 3+category.Count, 2+2*category.Count, len(recs)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx: freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}

// styleRange applies a number format to columns [fromCol, toCol] of the data
// rows.
func styleRange(f *excelize.File, numFmt, fromCol, toCol, rows int) error {
	id, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}
	top, err := excelize.CoordinatesToCellName(fromCol, 2)
	if err != nil {
		return err
	}
	bottom, err := excelize.CoordinatesToCellName(toCol, rows+1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, top, bottom, id); err != nil {
		return fmt.Errorf("xlsx: style %s:%s: %w", top, bottom, err)
	}
	return nil
}
