package models

import (
	"time"

	"github.com/epiwave/epiwave/internal/analytics"
)

// Derived holds the metrics computed for a CountrySeries, one value per date.
// All slices share the length and order of Dates.
type Derived struct {
	Dates          []time.Time
	NewCases       []analytics.NullFloat
	NewDeaths      []analytics.NullFloat
	Population     []analytics.NullFloat
	Cases7d        []analytics.NullFloat
	Deaths7d       []analytics.NullFloat
	Cases7dPer100k []analytics.NullFloat
	GrowthRate     []analytics.NullFloat
	NaiveCFR       []analytics.NullFloat
	CasesLagSum    []analytics.NullFloat
	DeathsSum      []analytics.NullFloat
	LaggedCFR14    []analytics.NullFloat
}

// Len returns the number of dates
func (d *Derived) Len() int {
	return len(d.Dates)
}

// Tail returns a view of the last n dates. A window larger than the series
// returns the full series.
func (d *Derived) Tail(n int) *Derived {
	start := 0
	if n >= 0 && n < d.Len() {
		start = d.Len() - n
	}
	tail := func(v []analytics.NullFloat) []analytics.NullFloat {
		if len(v) < start {
			return nil
		}
		return v[start:]
	}
	return &Derived{
		Dates:          d.Dates[start:],
		NewCases:       tail(d.NewCases),
		NewDeaths:      tail(d.NewDeaths),
		Population:     tail(d.Population),
		Cases7d:        tail(d.Cases7d),
		Deaths7d:       tail(d.Deaths7d),
		Cases7dPer100k: tail(d.Cases7dPer100k),
		GrowthRate:     tail(d.GrowthRate),
		NaiveCFR:       tail(d.NaiveCFR),
		CasesLagSum:    tail(d.CasesLagSum),
		DeathsSum:      tail(d.DeathsSum),
		LaggedCFR14:    tail(d.LaggedCFR14),
	}
}

// Latest returns the last defined value of v, scanning backwards.
func Latest(v []analytics.NullFloat) (analytics.NullFloat, int) {
	for i := len(v) - 1; i >= 0; i-- {
		if v[i].Valid {
			return v[i], i
		}
	}
	return analytics.Null(), -1
}
