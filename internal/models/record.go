package models

import (
	"fmt"
	"time"

	"github.com/epiwave/epiwave/internal/analytics"
)

// Record is one row of the source dataset: one location on one day.
type Record struct {
	Date        time.Time
	Location    string
	NewCases    analytics.NullFloat
	NewDeaths   analytics.NullFloat
	TotalCases  analytics.NullFloat
	TotalDeaths analytics.NullFloat
	Population  analytics.NullFloat
}

// Validate checks the fields every record must carry
func (r *Record) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if r.Location == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}

// CountrySeries is the per-country view of the dataset, ordered by date with
// the date acting as a unique key.
type CountrySeries struct {
	Location string
	Records  []Record

	index map[time.Time]int
}

// NewCountrySeries builds a series from records already sorted ascending by date.
func NewCountrySeries(location string, records []Record) *CountrySeries {
	s := &CountrySeries{
		Location: location,
		Records:  records,
		index:    make(map[time.Time]int, len(records)),
	}
	for i, r := range records {
		s.index[r.Date] = i
	}
	return s
}

// Len returns the number of days in the series
func (s *CountrySeries) Len() int {
	return len(s.Records)
}

// Dates returns the ordered date index
func (s *CountrySeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Records))
	for i, r := range s.Records {
		dates[i] = r.Date
	}
	return dates
}

// IndexOf returns the position of date in the series
func (s *CountrySeries) IndexOf(date time.Time) (int, bool) {
	i, ok := s.index[date]
	return i, ok
}

// Column extracts one numeric field across all records
func (s *CountrySeries) Column(field func(Record) analytics.NullFloat) []analytics.NullFloat {
	out := make([]analytics.NullFloat, len(s.Records))
	for i, r := range s.Records {
		out[i] = field(r)
	}
	return out
}

// First and Last return the date range covered by the series
func (s *CountrySeries) First() time.Time {
	if len(s.Records) == 0 {
		return time.Time{}
	}
	return s.Records[0].Date
}

func (s *CountrySeries) Last() time.Time {
	if len(s.Records) == 0 {
		return time.Time{}
	}
	return s.Records[len(s.Records)-1].Date
}
