package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the combined table, one row per sample index.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.Headers))
	for i := range t.Rows() {
		record[0] = formatFloat(t.Times[i])
		for j, col := range t.Columns {
			record[j+1] = formatFloat(col[i])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSeriesCSV writes one series as two columns, Time and Temperature.
func WriteSeriesCSV(w io.Writer, s thermal.Series) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Time", "Temperature"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, smp := range s.Samples {
		if err := writer.Write([]string{formatFloat(smp.Time), formatFloat(smp.Temperature)}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// FileName maps a component id to its per node CSV file name. Every space
// becomes an underscore, so distinct ids keep distinct names.
func FileName(id string) string {
	return strings.ReplaceAll(id, " ", "_") + ".csv"
}

// WriteNodeCSVs writes one file per series into dir, concurrently, and
// waits for every file to be closed.
func WriteNodeCSVs(ctx context.Context, dir string, series []thermal.Series) error {
	if len(series) == 0 {
		return ErrNoSeries
	}
	seen := make(map[string]string, len(series))
	for _, s := range series {
		name := FileName(s.ID)
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q and %q -> %s", ErrDuplicateFile, other, s.ID, name)
		}
		seen[name] = s.ID
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range series {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeFile(filepath.Join(dir, FileName(s.ID)), func(w io.Writer) error {
				return WriteSeriesCSV(w, s)
			})
		})
	}
	return g.Wait()
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(file)
}

// CSVExporter writes a combined table, per node files, or both.
type CSVExporter struct {
	Dir          string
	Combined     bool
	CombinedName string // defaults to results.csv
	PerNode      bool
}

func (e CSVExporter) Export(ctx context.Context, series []thermal.Series) error {
	if e.Combined {
		t, err := NewTable(series)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(e.Dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		name := e.CombinedName
		if name == "" {
			name = "results.csv"
		}
		if err := writeFile(filepath.Join(e.Dir, name), func(w io.Writer) error {
			return WriteCSV(w, t)
		}); err != nil {
			return err
		}
	}
	if e.PerNode {
		return WriteNodeCSVs(ctx, e.Dir, series)
	}
	return nil
}
