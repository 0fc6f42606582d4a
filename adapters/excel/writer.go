package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"grouper/domain/core"
	"grouper/domain/trial"
	"grouper/internal"
	"grouper/internal/errors"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// WorkbookSink writes the result tables of a run to one workbook per run,
// one sheet per table. It implements ports.TableSink.
type WorkbookSink struct {
	dir        string
	dateLayout string
	now        func() time.Time
	logger     *internal.Logger
}

// NewWorkbookSink writes into dir; file names carry the date in dateLayout.
func NewWorkbookSink(dir, dateLayout string) *WorkbookSink {
	return &WorkbookSink{
		dir:        dir,
		dateLayout: dateLayout,
		now:        time.Now,
		logger:     internal.DefaultLogger.Named("Workbook"),
	}
}

// Path returns the output file name for a task, <dir>/<task>-<date>.xlsx.
func (w *WorkbookSink) Path(task trial.Task) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.xlsx", task, w.now().Format(w.dateLayout)))
}

// Write saves tables and returns the workbook path.
func (w *WorkbookSink) Write(ctx context.Context, run core.RunID, task trial.Task, tables []trial.Table) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables to write for %s", task)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.IOError(fmt.Sprintf("failed to create output directory %s", w.dir), err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("%s grouped trials", task),
		Subject:     task.String(),
		Identifier:  run.String(),
		Creator:     "grouper",
		Description: fmt.Sprintf("run %s", run),
	}); err != nil {
		return "", fmt.Errorf("failed to set workbook properties: %w", err)
	}

	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sheet := SheetName(table.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return "", fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		if err := writeTable(f, sheet, table); err != nil {
			return "", err
		}
		w.logger.Debug("Sheet %s: %d rows", sheet, table.Len())
	}

	path := w.Path(task)
	if err := f.SaveAs(path); err != nil {
		return "", errors.IOError(fmt.Sprintf("failed to save workbook %s", path), err)
	}
	w.logger.Info("Wrote %d sheets to %s", len(tables), path)
	return path, nil
}

func writeTable(f *excelize.File, sheet string, table trial.Table) error {
	headers := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

// SheetName makes a table name acceptable as an Excel sheet name.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "Sheet"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}
