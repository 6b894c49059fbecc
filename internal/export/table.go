// Package export projects component histories into tables and persists them.
// Every writer here returns only once the data is durably written.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

var (
	ErrNoSeries         = errors.New("no series to export")
	ErrMisalignedSeries = errors.New("series are not row aligned")
	ErrDuplicateFile    = errors.New("series map to the same file")
)

// Exporter persists the histories of a finished run.
type Exporter interface {
	Export(ctx context.Context, series []thermal.Series) error
}

// TimeHeader is the header of the time column.
const TimeHeader = "time_s"

// Table is a row aligned view over several series: one time column and
// one temperature column per series.
type Table struct {
	Headers []string
	Times   []float64
	Columns [][]float64
}

// NewTable checks that every series has the same number of samples with
// the same timestamps, row by row, and builds the table.
func NewTable(series []thermal.Series) (Table, error) {
	if len(series) == 0 {
		return Table{}, ErrNoSeries
	}

	ref := series[0]
	t := Table{
		Headers: []string{TimeHeader},
		Times:   make([]float64, len(ref.Samples)),
		Columns: make([][]float64, 0, len(series)),
	}
	for i, s := range ref.Samples {
		t.Times[i] = s.Time
	}

	for _, s := range series {
		if len(s.Samples) != len(ref.Samples) {
			return Table{}, fmt.Errorf("%w: %q has %d samples, %q has %d",
				ErrMisalignedSeries, s.ID, len(s.Samples), ref.ID, len(ref.Samples))
		}
		col := make([]float64, len(s.Samples))
		for i, smp := range s.Samples {
			if smp.Time != t.Times[i] {
				return Table{}, fmt.Errorf("%w: %q row %d at t=%g, %q at t=%g",
					ErrMisalignedSeries, s.ID, i, smp.Time, ref.ID, t.Times[i])
			}
			col[i] = smp.Temperature
		}
		t.Headers = append(t.Headers, ColumnHeader(s))
		t.Columns = append(t.Columns, col)
	}
	return t, nil
}

// Rows is the number of samples per column.
func (t Table) Rows() int {
	return len(t.Times)
}

// ColumnHeader names a temperature column after its component and units.
func ColumnHeader(s thermal.Series) string {
	return fmt.Sprintf("%s [%s]", s.ID, s.Units.Symbol())
}
