package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-export/payroll"
)

const (
	currencyFormat = "£#,##0.00"
	numberFormat   = "#,##0.00"
)

type styleKey struct {
	kind ColumnKind
	bold bool
	fill string
}

// xlsxWriter caches one excelize style per (kind, bold, fill).
type xlsxWriter struct {
	f      *excelize.File
	styles map[styleKey]int
}

// WriteXLSX renders a run as a workbook into w.
func WriteXLSX(w io.Writer, res *payroll.Result) error {
	return WriteSheetXLSX(w, BuildSheet(res))
}

// WriteSheetXLSX renders an already built sheet.
func WriteSheetXLSX(w io.Writer, s *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	xw := &xlsxWriter{f: f, styles: make(map[styleKey]int)}
	if err := xw.render(s); err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// XLSXBytes renders a run into memory.
func XLSXBytes(res *payroll.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (xw *xlsxWriter) render(s *Sheet) error {
	f := xw.f
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	width := len(s.Columns)
	lastCol := ColumnName(width)

	// Row 1: banner.
	if err := f.MergeCell(SheetName, "A1", fmt.Sprintf("%s%d", lastCol, BannerRow)); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, "A1", s.Banner); err != nil {
		return err
	}
	banner, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", banner); err != nil {
		return err
	}

	// Row 2: headers.
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{FillHeader}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}
	for i, col := range s.Columns {
		name := ColumnName(i + 1)
		cell := fmt.Sprintf("%s%d", name, HeaderRow)
		if err := f.SetCellValue(SheetName, cell, col.Header); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, header); err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, col.Width); err != nil {
			return err
		}
	}
	if err := f.SetRowHeight(SheetName, HeaderRow, 30); err != nil {
		return err
	}

	// Records.
	for i, row := range s.Rows {
		if err := xw.writeRow(s, FirstDataRow+i, row, false); err != nil {
			return err
		}
	}

	// Totals.
	return xw.writeRow(s, s.TotalsRow(), s.Totals, true)
}

func (xw *xlsxWriter) writeRow(s *Sheet, rowNum int, row Row, totals bool) error {
	for i, c := range row.Cells {
		if totals && c.Value == nil && c.Formula == "" {
			continue
		}
		col := s.Columns[i]
		cell := fmt.Sprintf("%s%d", ColumnName(i+1), rowNum)

		if c.Value != nil {
			if err := xw.f.SetCellValue(SheetName, cell, c.Value); err != nil {
				return err
			}
		}
		if c.Formula != "" {
			if err := xw.f.SetCellFormula(SheetName, cell, c.Formula); err != nil {
				return err
			}
		}

		key := styleKey{kind: col.Kind, bold: col.Bold || totals, fill: row.Fill}
		if totals && i+1 == s.Layout.TotalPay {
			key.fill = FillTotalPay
		}
		style, err := xw.style(key)
		if err != nil {
			return err
		}
		if err := xw.f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func (xw *xlsxWriter) style(k styleKey) (int, error) {
	if id, ok := xw.styles[k]; ok {
		return id, nil
	}
	st := &excelize.Style{Border: thinBorder()}
	if k.bold {
		st.Font = &excelize.Font{Bold: true}
	}
	if k.fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{k.fill}}
	}
	switch k.kind {
	case KindCurrency:
		format := currencyFormat
		st.CustomNumFmt = &format
	case KindNumber:
		format := numberFormat
		st.CustomNumFmt = &format
	}
	id, err := xw.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	xw.styles[k] = id
	return id, nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}
