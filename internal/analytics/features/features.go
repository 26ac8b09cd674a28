// Package features derives the smoothed, per-capita, growth and fatality
// series for one country.
package features

import (
	"fmt"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/config"
	"github.com/epiwave/epiwave/internal/models"
)

// Options parameterizes Derive
type Options struct {
	RollingWindow      int
	MinPeriods         int
	DeathSumMinPeriods int
	CFRLag             int
	PerCapitaScale     float64
}

// DefaultOptions returns the standard 365-sample window settings
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Analysis)
}

// OptionsFromConfig maps the analysis section onto Options
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		RollingWindow:      cfg.RollingWindow,
		MinPeriods:         cfg.MinPeriods,
		DeathSumMinPeriods: cfg.DeathSumMinPeriods,
		CFRLag:             cfg.CFRLag,
		PerCapitaScale:     cfg.PerCapitaScale,
	}
}

// Validate checks the window parameters
func (o Options) Validate() error {
	if o.RollingWindow < 1 {
		return fmt.Errorf("rolling window must be at least 1, got %d", o.RollingWindow)
	}
	if o.MinPeriods < 0 || o.DeathSumMinPeriods < 0 {
		return fmt.Errorf("min periods must be non-negative")
	}
	if o.CFRLag < 0 {
		return fmt.Errorf("cfr lag must be non-negative, got %d", o.CFRLag)
	}
	return nil
}

// Derive computes every derived column for series. Raw records are not modified.
func Derive(series *models.CountrySeries, opts Options) (*models.Derived, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("derive: empty series")
	}

	newCases := FillNull(series.Column(func(r models.Record) analytics.NullFloat { return r.NewCases }), 0)
	newDeaths := FillNull(series.Column(func(r models.Record) analytics.NullFloat { return r.NewDeaths }), 0)
	population := ForwardFill(series.Column(func(r models.Record) analytics.NullFloat { return r.Population }))
	totalCases := series.Column(func(r models.Record) analytics.NullFloat { return r.TotalCases })
	totalDeaths := series.Column(func(r models.Record) analytics.NullFloat { return r.TotalDeaths })

	cases7d := RollingMean(newCases, opts.RollingWindow, opts.MinPeriods)
	deaths7d := RollingMean(newDeaths, opts.RollingWindow, opts.MinPeriods)

	perCapita := Ratio(cases7d, population)
	for i := range perCapita {
		perCapita[i] = perCapita[i].Scale(opts.PerCapitaScale)
	}

	casesLagSum := RollingSum(Shift(newCases, opts.CFRLag), opts.RollingWindow, opts.MinPeriods)
	deathsSum := RollingSum(newDeaths, opts.RollingWindow, opts.DeathSumMinPeriods)

	return &models.Derived{
		Dates:          series.Dates(),
		NewCases:       newCases,
		NewDeaths:      newDeaths,
		Population:     population,
		Cases7d:        cases7d,
		Deaths7d:       deaths7d,
		Cases7dPer100k: perCapita,
		GrowthRate:     GrowthRate(newCases),
		NaiveCFR:       Ratio(totalDeaths, totalCases),
		CasesLagSum:    casesLagSum,
		DeathsSum:      deathsSum,
		LaggedCFR14:    Ratio(deathsSum, casesLagSum),
	}, nil
}
