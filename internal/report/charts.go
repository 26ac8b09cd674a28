package report

import (
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/epiwave/epiwave/internal/analytics"
	"github.com/epiwave/epiwave/internal/analytics/forecast"
	"github.com/epiwave/epiwave/internal/analytics/waves"
	"github.com/epiwave/epiwave/internal/config"
	"github.com/epiwave/epiwave/internal/downsampling"
	"github.com/epiwave/epiwave/internal/models"
)

// Chart file names inside the output directory
const (
	TrendChartFile    = "trend.png"
	CFRChartFile      = "cfr.png"
	WavesChartFile    = "waves.png"
	ForecastChartFile = "forecast.png"
)

var (
	casesColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	deathsColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	laggedColor   = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	peakColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	forecastColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	bandColor     = color.NRGBA{R: 255, G: 127, B: 14, A: 51}
)

// ChartOptions controls chart rendering
type ChartOptions struct {
	OutputDir     string
	MaxPoints     int // Lines longer than this are downsampled; 0 disables
	Downsample    downsampling.Mode
	RecentHistory int // Historical days drawn on the forecast chart
	Width         vg.Length
	Height        vg.Length
}

// ChartOptionsFromConfig maps the report section onto ChartOptions
func ChartOptionsFromConfig(cfg config.ReportConfig) ChartOptions {
	return ChartOptions{
		OutputDir:     cfg.OutputDir,
		MaxPoints:     cfg.MaxChartPoints,
		Downsample:    downsampling.Mode(cfg.Downsample),
		RecentHistory: cfg.RecentHistory,
		Width:         12 * vg.Inch,
		Height:        5 * vg.Inch,
	}
}

// ChartInput is everything the four charts draw from
type ChartInput struct {
	Country  string
	Derived  *models.Derived
	Peaks    []waves.Peak
	History  []forecast.DataPoint // Series the forecaster was fitted on
	Forecast *forecast.ForecastResult
}

// RenderCharts writes the trend, CFR, waves and forecast charts and returns
// their paths
func RenderCharts(opts ChartOptions, in ChartInput) ([]string, error) {
	charts := []struct {
		file  string
		build func(ChartOptions, ChartInput) (*plot.Plot, error)
	}{
		{TrendChartFile, trendChart},
		{CFRChartFile, cfrChart},
		{WavesChartFile, wavesChart},
		{ForecastChartFile, forecastChart},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p, err := c.build(opts, in)
		if err != nil {
			return paths, fmt.Errorf("%s: %w", c.file, err)
		}
		path := filepath.Join(opts.OutputDir, c.file)
		if err := p.Save(opts.Width, opts.Height, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newTimePlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func trendChart(opts ChartOptions, in ChartInput) (*plot.Plot, error) {
	d := in.Derived
	p := newTimePlot(fmt.Sprintf("%s: COVID-19 Trend (rolling averages)", in.Country), "Daily count")
	if err := addLine(p, opts, "Avg Cases", casesColor, d.Dates, d.Cases7d); err != nil {
		return nil, err
	}
	if err := addLine(p, opts, "Avg Deaths", deathsColor, d.Dates, d.Deaths7d); err != nil {
		return nil, err
	}
	return p, nil
}

func cfrChart(opts ChartOptions, in ChartInput) (*plot.Plot, error) {
	d := in.Derived
	p := newTimePlot(fmt.Sprintf("%s: Case Fatality Ratio (CFR)", in.Country), "Ratio")
	if err := addLine(p, opts, "Naive CFR", deathsColor, d.Dates, d.NaiveCFR); err != nil {
		return nil, err
	}
	if err := addLine(p, opts, "Lagged CFR", laggedColor, d.Dates, d.LaggedCFR14); err != nil {
		return nil, err
	}
	return p, nil
}

func wavesChart(opts ChartOptions, in ChartInput) (*plot.Plot, error) {
	d := in.Derived
	p := newTimePlot(fmt.Sprintf("%s: Detected COVID Waves", in.Country), "Daily count")
	if err := addLine(p, opts, "Avg Cases", casesColor, d.Dates, d.Cases7d); err != nil {
		return nil, err
	}
	if len(in.Peaks) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(in.Peaks))
	for i, pk := range in.Peaks {
		xys[i] = plotter.XY{X: timeX(pk.Date), Y: pk.Value}
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to create peak scatter: %w", err)
	}
	scatter.GlyphStyle.Color = peakColor
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)
	p.Legend.Add("Peaks", scatter)
	return p, nil
}

func forecastChart(opts ChartOptions, in ChartInput) (*plot.Plot, error) {
	horizon := 0
	if in.Forecast != nil {
		horizon = len(in.Forecast.Predictions)
	}
	p := newTimePlot(fmt.Sprintf("%s: %d-Day Forecast of COVID-19 Cases (ARIMA)", in.Country, horizon), "Daily count")

	history := in.History
	if opts.RecentHistory > 0 && len(history) > opts.RecentHistory {
		history = history[len(history)-opts.RecentHistory:]
	}
	if len(history) > 0 {
		line, err := newLine(toXYs(history), casesColor)
		if err != nil {
			return nil, err
		}
		p.Add(line)
		p.Legend.Add("Recent (rolling avg)", line)
	}
	if horizon == 0 {
		return p, nil
	}

	preds := in.Forecast.Predictions
	mean := make(plotter.XYs, len(preds))
	band := make(plotter.XYs, 0, 2*len(preds))
	for i, fp := range preds {
		x := timeX(fp.Time)
		mean[i] = plotter.XY{X: x, Y: fp.Value}
		band = append(band, plotter.XY{X: x, Y: fp.UpperBound})
	}
	for i := len(preds) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: timeX(preds[i].Time), Y: preds[i].LowerBound})
	}

	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, fmt.Errorf("failed to create confidence band: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0
	p.Add(poly)

	line, err := newLine(mean, forecastColor)
	if err != nil {
		return nil, err
	}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("Forecast (%dd)", horizon), line)
	p.Legend.Add("Confidence band", poly)
	return p, nil
}

// addLine draws one named series, broken at undefined values and
// downsampled per segment
func addLine(p *plot.Plot, opts ChartOptions, name string, c color.Color, dates []time.Time, values []analytics.NullFloat) error {
	for i, seg := range segments(dates, values) {
		if opts.MaxPoints > 0 && len(seg) > opts.MaxPoints {
			sampled, err := downsampling.Apply(seg, opts.Downsample, opts.MaxPoints)
			if err != nil {
				return fmt.Errorf("failed to downsample %s: %w", name, err)
			}
			seg = sampled
		}

		line, err := newLine(toXYs(seg), c)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		p.Add(line)
		if i == 0 {
			p.Legend.Add(name, line)
		}
	}
	return nil
}

func newLine(xys plotter.XYs, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	return line, nil
}

// segments splits a nullable series into runs of defined values
func segments(dates []time.Time, values []analytics.NullFloat) [][]analytics.TimeSeriesPoint {
	var out [][]analytics.TimeSeriesPoint
	var cur []analytics.TimeSeriesPoint
	for i := 0; i < min(len(dates), len(values)); i++ {
		if !values[i].Valid {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, analytics.TimeSeriesPoint{Time: dates[i], Value: values[i].Value})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func toXYs(points []analytics.TimeSeriesPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: timeX(pt.Time), Y: pt.Value}
	}
	return xys
}

func timeX(t time.Time) float64 {
	return float64(t.Unix())
}
