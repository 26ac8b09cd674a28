// Package ingest reads the case/death dataset and selects one country from it.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/compression"
	"github.com/epiwave/epiwave/internal/config"
	"github.com/epiwave/epiwave/internal/models"
)

// Column names read from the dataset
const (
	ColDate        = "date"
	ColLocation    = "location"
	ColNewCases    = "new_cases"
	ColNewDeaths   = "new_deaths"
	ColTotalCases  = "total_cases"
	ColTotalDeaths = "total_deaths"
	ColPopulation  = "population"
)

// RequiredColumns must all be present in the header row
var RequiredColumns = []string{
	ColDate, ColLocation, ColNewCases, ColNewDeaths, ColTotalCases, ColTotalDeaths, ColPopulation,
}

// Options holds options for dataset loading.
type Options struct {
	Encoding    string                // utf-8 (default) or latin1
	DateFormat  string                // Date layout (default: "2006-01-02")
	Delimiter   rune                  // Field delimiter (default: ',')
	Compression compression.Algorithm // Only used by LoadFromReader; Load picks it from the extension
}

// DefaultOptions returns default options for dataset loading.
func DefaultOptions() Options {
	return Options{
		Encoding:   "utf-8",
		DateFormat: "2006-01-02",
		Delimiter:  ',',
	}
}

// OptionsFromConfig maps the source section onto loader options
func OptionsFromConfig(cfg config.SourceConfig) Options {
	opts := DefaultOptions()
	if cfg.Encoding != "" {
		opts.Encoding = cfg.Encoding
	}
	if cfg.DateFormat != "" {
		opts.DateFormat = cfg.DateFormat
	}
	return opts
}

// Dataset is the full parsed table
type Dataset struct {
	Records []models.Record
	Columns []string
}

// Locations returns the distinct location names in first-seen order
func (d *Dataset) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if !seen[r.Location] {
			seen[r.Location] = true
			out = append(out, r.Location)
		}
	}
	return out
}

// Load reads a dataset file. Compression is chosen from the file extension.
func Load(path string, opts Options) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	opts.Compression = compression.FromPath(path)
	return LoadFromReader(file, opts)
}

// LoadFromReader reads a dataset from r.
func LoadFromReader(r io.Reader, opts Options) (*Dataset, error) {
	opts = withDefaults(opts)

	src, err := compression.NewReader(opts.Compression, r)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	text, err := decode(src, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(text)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewError(CodeMalformedRow, "dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	cx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		columns[i] = h
		if _, dup := cx[h]; !dup {
			cx[h] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, NewErrorWithDetails(CodeMissingColumn,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
			map[string]interface{}{"columns": missing})
	}

	var (
		dateIdx  = cx[ColDate]
		locIdx   = cx[ColLocation]
		numeric  = []string{ColNewCases, ColNewDeaths, ColTotalCases, ColTotalDeaths, ColPopulation}
		ds       = &Dataset{Columns: columns}
		line     = 1
		rowCells [5]analytics.NullFloat
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, malformed(line, err.Error())
		}

		date, err := time.Parse(opts.DateFormat, strings.TrimSpace(cell(row, dateIdx)))
		if err != nil {
			return nil, malformed(line, fmt.Sprintf("invalid date %q", cell(row, dateIdx)))
		}

		for i, col := range numeric {
			v, err := analytics.ParseNullFloat(cell(row, cx[col]))
			if err != nil {
				return nil, malformed(line, fmt.Sprintf("invalid %s %q", col, cell(row, cx[col])))
			}
			rowCells[i] = v
		}

		rec := models.Record{
			Date:        date,
			Location:    cell(row, locIdx),
			NewCases:    rowCells[0],
			NewDeaths:   rowCells[1],
			TotalCases:  rowCells[2],
			TotalDeaths: rowCells[3],
			Population:  rowCells[4],
		}
		if err := rec.Validate(); err != nil {
			return nil, malformed(line, err.Error())
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

func withDefaults(opts Options) Options {
	d := DefaultOptions()
	if opts.Encoding == "" {
		opts.Encoding = d.Encoding
	}
	if opts.DateFormat == "" {
		opts.DateFormat = d.DateFormat
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = d.Delimiter
	}
	return opts
}

// decode converts the byte stream to UTF-8 and drops a leading byte order mark
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
	case "latin1", "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}

	br := bufio.NewReader(r)
	bom := []byte{0xEF, 0xBB, 0xBF}
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	return br, nil
}

func cell(row []string, p int) string {
	if p < len(row) {
		return row[p]
	}
	return ""
}

func malformed(line int, reason string) *Error {
	return NewErrorWithDetails(CodeMalformedRow,
		fmt.Sprintf("line %d: %s", line, reason),
		map[string]interface{}{"line": line})
}
