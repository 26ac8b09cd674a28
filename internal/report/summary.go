// Package report writes the run's artifacts: the tail-window CSV export,
// the charts and the console summary.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/epiwave/epiwave/internal/analytics/anomaly"
	"github.com/epiwave/epiwave/internal/analytics/forecast"
	"github.com/epiwave/epiwave/internal/analytics/waves"
	"github.com/epiwave/epiwave/internal/models"
)

// Summary is the end-of-run digest printed to the console
type Summary struct {
	Country   string
	Start     time.Time
	End       time.Time
	Peaks     []waves.Peak
	NaiveCFR  float64 // Latest value as a ratio; NaN when undefined
	LaggedCFR float64 // Last defined lagged CFR; NaN when never defined
	LaggedAt  time.Time
	Horizon   int
	Model     *forecast.ModelSummary
	Anomalies *anomaly.Report
	CSVPath   string
	Charts    []string
}

// NewSummary collects the digest from the stage outputs. The latest naive
// CFR is taken from the final date even when it is undefined there; the
// lagged CFR falls back to its last defined date.
func NewSummary(country string, d *models.Derived, peaks []waves.Peak, fc *forecast.ForecastResult) *Summary {
	s := &Summary{Country: country, Peaks: peaks}
	if n := d.Len(); n > 0 {
		s.Start = d.Dates[0]
		s.End = d.Dates[n-1]
		s.NaiveCFR = d.NaiveCFR[n-1].Float64()
	}
	s.LaggedCFR = math.NaN()
	if v, i := models.Latest(d.LaggedCFR14); i >= 0 {
		s.LaggedCFR = v.Float64()
		s.LaggedAt = d.Dates[i]
	}
	if fc != nil {
		s.Horizon = len(fc.Predictions)
		s.Model = fc.Summary
	}
	return s
}

// FormatPercent renders a ratio as a percentage with two decimals, or
// "n/a" when undefined
func FormatPercent(ratio float64) string {
	if math.IsNaN(ratio) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// PrintPeaks writes the detected peak dates on one line
func PrintPeaks(w io.Writer, peaks []waves.Peak) error {
	dates := make([]string, len(peaks))
	for i, p := range peaks {
		dates[i] = p.Date.Format(DateLayout)
	}
	_, err := fmt.Fprintf(w, "Detected Wave Peaks: [%s]\n", strings.Join(dates, ", "))
	return err
}

// PrintSummary writes the summary block
func PrintSummary(w io.Writer, s *Summary) error {
	var b strings.Builder

	b.WriteString("\nSUMMARY:\n")
	fmt.Fprintf(&b, "Country: %s\n", s.Country)
	fmt.Fprintf(&b, "Data Range: %s -> %s\n", s.Start.Format(DateLayout), s.End.Format(DateLayout))
	fmt.Fprintf(&b, "Detected %d major waves.\n", len(s.Peaks))
	fmt.Fprintf(&b, "Naive CFR (latest): %s\n", FormatPercent(s.NaiveCFR))
	if math.IsNaN(s.LaggedCFR) {
		b.WriteString("Lagged CFR (latest defined): n/a\n")
	} else {
		fmt.Fprintf(&b, "Lagged CFR (latest defined): %s (%s)\n", FormatPercent(s.LaggedCFR), s.LaggedAt.Format(DateLayout))
	}
	fmt.Fprintf(&b, "Forecast horizon: %d days\n", s.Horizon)

	if m := s.Model; m != nil {
		fmt.Fprintf(&b, "Model: ARIMA(%d,%d,%d) AIC=%.2f BIC=%.2f sigma2=%.4g", m.P, m.D, m.Q, m.AIC, m.BIC, m.Sigma2)
		if !m.Converged {
			b.WriteString(" (not converged)")
		}
		b.WriteString("\n")
	}

	if r := s.Anomalies; r != nil {
		fmt.Fprintf(&b, "Reporting irregularities (%s): %d total, %d revisions, %d spikes, %d drops\n",
			r.Method,
			len(r.Anomalies),
			r.Count(anomaly.AnomalyTypeRevision),
			r.Count(anomaly.AnomalyTypeSpike),
			r.Count(anomaly.AnomalyTypeDrop))
	}

	if s.CSVPath != "" {
		fmt.Fprintf(&b, "Saved summary file: %s\n", s.CSVPath)
	}
	for _, c := range s.Charts {
		fmt.Fprintf(&b, "Saved chart: %s\n", c)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
