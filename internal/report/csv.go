package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/compression"
	"github.com/epiwave/epiwave/internal/models"
)

// DateLayout is the date format of the exported table
const DateLayout = "2006-01-02"

// SummaryHeader is the header row of the exported table
var SummaryHeader = []string{
	"date",
	"new_cases",
	"new_deaths",
	"cases_7d",
	"deaths_7d",
	"cases_7d_per_100k",
	"naive_cfr",
	"lagged_cfr_14",
}

// SummaryRow is one dated row of the exported table
type SummaryRow struct {
	Date           time.Time
	NewCases       analytics.NullFloat
	NewDeaths      analytics.NullFloat
	Cases7d        analytics.NullFloat
	Deaths7d       analytics.NullFloat
	Cases7dPer100k analytics.NullFloat
	NaiveCFR       analytics.NullFloat
	LaggedCFR14    analytics.NullFloat
}

func (r SummaryRow) values() []analytics.NullFloat {
	return []analytics.NullFloat{
		r.NewCases, r.NewDeaths, r.Cases7d, r.Deaths7d, r.Cases7dPer100k, r.NaiveCFR, r.LaggedCFR14,
	}
}

// SummaryRows returns the last n rows of the derived series
func SummaryRows(d *models.Derived, n int) []SummaryRow {
	tail := d.Tail(n)
	rows := make([]SummaryRow, tail.Len())
	for i := range rows {
		rows[i] = SummaryRow{
			Date:           tail.Dates[i],
			NewCases:       tail.NewCases[i],
			NewDeaths:      tail.NewDeaths[i],
			Cases7d:        tail.Cases7d[i],
			Deaths7d:       tail.Deaths7d[i],
			Cases7dPer100k: tail.Cases7dPer100k[i],
			NaiveCFR:       tail.NaiveCFR[i],
			LaggedCFR14:    tail.LaggedCFR14[i],
		}
	}
	return rows
}

// WriteSummary writes the header and rows as CSV. Undefined values are
// empty cells; floats use the shortest representation that parses back
// to the same value.
func WriteSummary(w io.Writer, rows []SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(SummaryHeader))
	for _, row := range rows {
		record[0] = row.Date.Format(DateLayout)
		for i, v := range row.values() {
			record[i+1] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", record[0], err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the last n rows of d to path, compressed when the
// extension asks for it
func WriteSummaryCSV(path string, d *models.Derived, n int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w, err := compression.NewWriter(compression.FromPath(path), f)
	if err != nil {
		return err
	}
	if err := WriteSummary(w, SummaryRows(d, n)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Close()
}

// ReadSummary parses a table written by WriteSummary
func ReadSummary(r io.Reader) ([]SummaryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(SummaryHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range SummaryHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %d: want %q, got %q", i, name, header[i])
		}
	}

	var rows []SummaryRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse(DateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[0], err)
		}

		values := make([]analytics.NullFloat, len(SummaryHeader)-1)
		for i := range values {
			if values[i], err = analytics.ParseNullFloat(record[i+1]); err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, SummaryHeader[i+1], err)
			}
		}

		rows = append(rows, SummaryRow{
			Date:           date,
			NewCases:       values[0],
			NewDeaths:      values[1],
			Cases7d:        values[2],
			Deaths7d:       values[3],
			Cases7dPer100k: values[4],
			NaiveCFR:       values[5],
			LaggedCFR14:    values[6],
		})
	}
	return rows, nil
}

// ReadSummaryCSV reads a table written by WriteSummaryCSV
func ReadSummaryCSV(path string) ([]SummaryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := compression.NewReader(compression.FromPath(path), f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ReadSummary(r)
}
