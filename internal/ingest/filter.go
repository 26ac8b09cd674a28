package ingest

import (
	"sort"

	"github.com/epiwave/epiwave/internal/models"
)

// FilterCountry selects the rows of one location, ordered ascending by date.
// The location must match exactly. It fails with NO_COUNTRY_DATA when nothing
// matches and with DUPLICATE_DATE when two rows share a date.
func FilterCountry(records []models.Record, country string) (*models.CountrySeries, error) {
	var rows []models.Record
	for _, r := range records {
		if r.Location == country {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, noCountryData(country)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	for i := 1; i < len(rows); i++ {
		if rows[i].Date.Equal(rows[i-1].Date) {
			return nil, duplicateDate(country, rows[i].Date.Format("2006-01-02"))
		}
	}

	return models.NewCountrySeries(country, rows), nil
}
