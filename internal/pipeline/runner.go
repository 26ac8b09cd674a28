// Package pipeline runs the analysis stages for one country in order:
// load, filter, derive, waves, anomalies, forecast, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/analytics/anomaly"
	"github.com/epiwave/epiwave/internal/analytics/features"
	"github.com/epiwave/epiwave/internal/analytics/forecast"
	"github.com/epiwave/epiwave/internal/analytics/waves"
	"github.com/epiwave/epiwave/internal/config"
	"github.com/epiwave/epiwave/internal/ingest"
	"github.com/epiwave/epiwave/internal/logging"
	"github.com/epiwave/epiwave/internal/models"
	"github.com/epiwave/epiwave/internal/report"
)

// Stage names used in logs and wrapped errors
const (
	StageLoad     = "load"
	StageFilter   = "filter"
	StageDerive   = "derive"
	StageWaves    = "waves"
	StageAnomaly  = "anomaly"
	StageForecast = "forecast"
	StageReport   = "report"
)

// Runner executes the pipeline with one configuration
type Runner struct {
	cfg    *config.Config
	logger *logging.Logger
	out    io.Writer
}

// Result holds every stage output of a run
type Result struct {
	RunID     string
	Series    *models.CountrySeries
	Derived   *models.Derived
	Peaks     []waves.Peak
	History   []forecast.DataPoint // Series the forecaster was fitted on
	Forecast  *forecast.ForecastResult
	Anomalies *anomaly.Report // nil when the scan is disabled
	CSVPath   string
	Charts    []string
	Summary   *report.Summary
}

// NewRunner creates a Runner. Console output (peak dates and the summary
// block) goes to out; logs go to logger.
func NewRunner(cfg *config.Config, logger *logging.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = logging.Global()
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{cfg: cfg, logger: logger, out: out}
}

// Run loads the configured dataset and runs every stage on it
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx = r.runContext(ctx)

	var ds *ingest.Dataset
	err := r.stage(ctx, StageLoad, func(ctx context.Context) error {
		var err error
		ds, err = ingest.Load(r.cfg.Source.Path, ingest.OptionsFromConfig(r.cfg.Source))
		if err != nil {
			return err
		}
		logging.InfoCtx(ctx, "Data loaded",
			"path", r.cfg.Source.Path,
			"rows", len(ds.Records),
			"columns", len(ds.Columns))
		fmt.Fprintf(r.out, "Rows: %d Columns: %d\n", len(ds.Records), len(ds.Columns))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.runDataset(ctx, ds)
}

// RunDataset runs every stage after loading on an already parsed dataset
func (r *Runner) RunDataset(ctx context.Context, ds *ingest.Dataset) (*Result, error) {
	return r.runDataset(r.runContext(ctx), ds)
}

// runContext attaches the logger, a run ID and the country unless the
// context already carries a run
func (r *Runner) runContext(ctx context.Context) context.Context {
	if logging.RunID(ctx) != "" {
		return ctx
	}
	ctx = logging.WithLogger(ctx, r.logger)
	ctx = logging.WithRunID(ctx, "")
	return logging.WithCountry(ctx, r.cfg.Analysis.Country)
}

func (r *Runner) runDataset(ctx context.Context, ds *ingest.Dataset) (*Result, error) {
	cfg := r.cfg
	res := &Result{RunID: logging.RunID(ctx)}

	err := r.stage(ctx, StageFilter, func(ctx context.Context) error {
		series, err := ingest.FilterCountry(ds.Records, cfg.Analysis.Country)
		if errors.Is(err, ingest.ErrNoCountryData) {
			fmt.Fprintf(r.out, "Available locations: %s\n", strings.Join(ds.Locations(), ", "))
		}
		if err != nil {
			return err
		}
		res.Series = series
		logging.InfoCtx(ctx, "Country selected",
			"rows", series.Len(),
			"first_date", series.First().Format(report.DateLayout),
			"last_date", series.Last().Format(report.DateLayout))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageDerive, func(ctx context.Context) error {
		derived, err := features.Derive(res.Series, features.OptionsFromConfig(cfg.Analysis))
		if err != nil {
			return err
		}
		res.Derived = derived
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageWaves, func(ctx context.Context) error {
		peaks, err := waves.Detect(res.Derived.Dates, res.Derived.Cases7d, waves.OptionsFromConfig(cfg.Waves))
		if err != nil {
			return err
		}
		res.Peaks = peaks
		logging.InfoCtx(ctx, "Waves detected", "peaks", len(peaks))
		return report.PrintPeaks(r.out, peaks)
	})
	if err != nil {
		return nil, err
	}

	if cfg.Anomaly.Enabled {
		err = r.stage(ctx, StageAnomaly, func(ctx context.Context) error {
			rep, err := anomaly.Scan(res.Derived.Dates, res.Series.Column(newCases), cfg.Anomaly.Method, anomaly.ConfigFromSettings(cfg.Anomaly))
			if err != nil {
				return err
			}
			res.Anomalies = rep
			logging.InfoCtx(ctx, "Reporting irregularities scanned",
				"method", rep.Method,
				"total", len(rep.Anomalies),
				"revisions", rep.Count(anomaly.AnomalyTypeRevision),
				"spikes", rep.Count(anomaly.AnomalyTypeSpike))
			for _, a := range rep.Anomalies {
				logging.DebugCtx(ctx, "Reporting irregularity",
					"date", a.Date.Format(report.DateLayout),
					"value", a.Value,
					"type", string(a.Type),
					"score", a.Score)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = r.stage(ctx, StageForecast, func(ctx context.Context) error {
		history, err := forecast.PrepareSeries(res.Derived.Dates, res.Derived.Cases7d)
		if err != nil {
			return err
		}
		res.History = history

		forecaster, err := forecast.NewForecaster(cfg.Forecast)
		if err != nil {
			return err
		}
		result, err := forecaster.Forecast(history, forecast.ConfigFromSettings(cfg.Forecast))
		if err != nil {
			return err
		}
		res.Forecast = result

		s := result.Summary
		logging.InfoCtx(ctx, "ARIMA model fitted",
			"order", fmt.Sprintf("(%d,%d,%d)", s.P, s.D, s.Q),
			"ar", s.AR,
			"ma", s.MA,
			"sigma2", s.Sigma2,
			"log_likelihood", s.LogLikelihood,
			"aic", s.AIC,
			"bic", s.BIC,
			"nobs", s.NObs,
			"ljung_box_p", s.LjungBoxP,
			"mape", result.ModelInfo.MAPE,
			"iterations", s.Iterations)
		if !s.Converged {
			logging.WarnCtx(ctx, "ARIMA optimizer stopped before converging",
				"iterations", s.Iterations,
				"max_iterations", cfg.Forecast.MaxIterations)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageReport, func(ctx context.Context) error {
		if err := cfg.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		res.CSVPath = cfg.CSVPath()
		if err := report.WriteSummaryCSV(res.CSVPath, res.Derived, cfg.Report.TailWindow); err != nil {
			return err
		}
		logging.InfoCtx(ctx, "Saved summary file", "path", res.CSVPath, "rows", min(cfg.Report.TailWindow, res.Derived.Len()))

		if cfg.Report.Charts {
			charts, err := report.RenderCharts(report.ChartOptionsFromConfig(cfg.Report), report.ChartInput{
				Country:  cfg.Analysis.Country,
				Derived:  res.Derived,
				Peaks:    res.Peaks,
				History:  res.History,
				Forecast: res.Forecast,
			})
			res.Charts = charts
			if err != nil {
				return err
			}
			logging.InfoCtx(ctx, "Charts rendered", "count", len(charts), "dir", cfg.Report.OutputDir)
		}

		res.Summary = report.NewSummary(cfg.Analysis.Country, res.Derived, res.Peaks, res.Forecast)
		res.Summary.Anomalies = res.Anomalies
		res.Summary.CSVPath = res.CSVPath
		res.Summary.Charts = res.Charts
		return report.PrintSummary(r.out, res.Summary)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// stage checks for cancellation, runs fn as a tracked stage and wraps its
// error with the stage name
func (r *Runner) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s stage: %w", name, err)
	}
	if err := logging.TrackStage(ctx, name, fn); err != nil {
		return fmt.Errorf("%s stage: %w", name, err)
	}
	return nil
}

func newCases(rec models.Record) analytics.NullFloat {
	return rec.NewCases
}
