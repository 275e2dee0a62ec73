// Package export renders the application collection as an xlsx workbook.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/job-tracker/internal/db"
)

// SheetName is the single sheet all rows are written to.
const SheetName = "Job Applications"

var headers = []string{
	"ID",
	"Company Name",
	"Job Title",
	"Domain",
	"Location",
	"Work Type",
	"Status",
	"Application Date",
	"Salary Min",
	"Salary Max",
	"Job URL",
	"Contact Person",
	"Contact Email",
	"CV Uploaded",
	"Cover Letter Uploaded",
	"Notes",
	"Created At",
}

// Workbook builds an xlsx workbook with one row per application. The caller
// owns the returned file and should Close it when done.
func Workbook(apps []db.Application) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, app := range apps {
		row := appRow(&app)
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, val); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := sizeColumns(f, apps); err != nil {
		return nil, err
	}
	return f, nil
}

func appRow(app *db.Application) []any {
	return []any{
		app.ID.String(),
		app.CompanyName,
		app.JobTitle,
		strDeref(app.Domain),
		strDeref(app.Location),
		strDeref(app.WorkType),
		app.Status,
		dateDeref(app.ApplicationDate),
		floatDeref(app.SalaryMin),
		floatDeref(app.SalaryMax),
		strDeref(app.JobURL),
		strDeref(app.ContactPerson),
		strDeref(app.ContactEmail),
		yesNo(app.CVFilepath != nil && *app.CVFilepath != ""),
		yesNo(app.CoverLetterFilepath != nil && *app.CoverLetterFilepath != ""),
		strDeref(app.Notes),
		app.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// sizeColumns widens each column to its longest value, capped so a huge
// notes field does not wreck the layout.
func sizeColumns(f *excelize.File, apps []db.Application) error {
	const maxWidth = 50.0

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, app := range apps {
		for col, val := range appRow(&app) {
			if n := len(fmt.Sprint(val)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for col := range headers {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(widths[col]) + 2
		if width > maxWidth {
			width = maxWidth
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("size column %s: %w", name, err)
		}
	}
	return nil
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func dateDeref(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func floatDeref(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
