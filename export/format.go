package export

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

// Format is an output rendition.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts xlsx, csv or pdf in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatPDF:
		return f, nil
	case "":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q: %w", s, generic.ErrInvalidRequest)
	}
}

// ParseFormats reads a comma list. An empty list means xlsx only.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = []Format{FormatXLSX}
	}
	return out, nil
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Render writes res in format f.
func Render(w io.Writer, f Format, res *payroll.Result) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatPDF:
		return WritePDF(w, res)
	default:
		return WriteXLSX(w, res)
	}
}

// Filename is payroll_export_YYYYMMDD_YYYYMMDD.<ext>.
func Filename(p generic.Period, f Format) string {
	return fmt.Sprintf("payroll_export_%s_%s.%s", p.Start.Format("20060102"), p.End.Format("20060102"), f)
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

var printer = message.NewPrinter(language.BritishEnglish)

// Money formats a GBP amount as £1,234.50.
func Money(a generic.Amount) string {
	return printer.Sprintf("£%.2f", a.Round2().Float())
}

// Number formats a quantity with grouping and 2 dp.
func Number(a generic.Amount) string {
	return printer.Sprintf("%.2f", a.Round2().Float())
}
