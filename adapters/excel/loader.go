package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"grouper/domain/core"
	"grouper/domain/trial"
	"grouper/internal"
	"grouper/internal/errors"
)

// DirectorySource loads every export in a data directory and concatenates
// them in file-name order. It implements ports.TableSource.
type DirectorySource struct {
	dir         string
	sheet       string
	parallelism int
	logger      *internal.Logger
}

// NewDirectorySource creates a source over dir reading up to parallelism
// files at once.
func NewDirectorySource(dir string, parallelism int) *DirectorySource {
	if parallelism < 1 {
		parallelism = 1
	}
	return &DirectorySource{
		dir:         dir,
		parallelism: parallelism,
		logger:      internal.DefaultLogger.Named("DataReader"),
	}
}

// WithSheet reads the named sheet of every workbook instead of the first.
func (s *DirectorySource) WithSheet(sheet string) *DirectorySource {
	s.sheet = sheet
	return s
}

// Discover lists the .xlsx and .csv files of the directory, sorted by name.
// Excel lock files (~$name.xlsx) are skipped.
func (s *DirectorySource) Discover() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("data directory %s", s.dir))
	}
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to list data directory %s", s.dir), err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx", ".csv":
			files = append(files, filepath.Join(s.dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load reads all files concurrently and concatenates them in file order, so
// the result does not depend on scheduling.
func (s *DirectorySource) Load(ctx context.Context, spec trial.TaskSpec) (*trial.RawTable, error) {
	files, err := s.Discover()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .xlsx or .csv files in %s", core.ErrEmptyInput, s.dir)
	}
	s.logger.Info("Loading %d files for %s from %s", len(files), spec.Task, s.dir)

	tables := make([]*trial.RawTable, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := s.loadFile(file, spec)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &trial.RawTable{}
	for _, t := range tables {
		out.Append(t)
	}
	s.logger.Info("Loaded %d rows from %d files", len(out.Rows), len(files))
	return out, nil
}

func (s *DirectorySource) loadFile(path string, spec trial.TaskSpec) (*trial.RawTable, error) {
	data, err := NewDataReader(path).WithSheet(s.sheet).ReadData()
	if err != nil {
		return nil, err
	}

	if spec.BlockFromFilename {
		block, err := BlockFromFilename(path)
		if err != nil {
			return nil, err
		}
		data.SetColumn(trial.ColBlock, strconv.Itoa(block))
	}

	if spec.KeepAllColumns {
		if _, err := data.Trim(spec.Task, spec.Columns); err != nil {
			return nil, err
		}
		return data.Whole(), nil
	}
	return data.Trim(spec.Task, spec.Columns)
}

// SetColumn sets column to value on every row, adding the header if needed.
func (d *ExcelData) SetColumn(column, value string) {
	found := false
	for _, h := range d.Headers {
		if h == column {
			found = true
			break
		}
	}
	if !found {
		d.Headers = append(d.Headers, column)
	}
	for _, row := range d.Rows {
		row[column] = value
	}
}
