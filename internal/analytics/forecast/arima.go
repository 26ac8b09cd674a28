package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// ljungBoxLags is the number of residual autocorrelation lags tested
const ljungBoxLags = 10

// ARIMAForecaster implements ARIMA (AutoRegressive Integrated Moving Average) forecasting
// ARIMA(p, d, q) where:
// - p: order of autoregressive (AR) part
// - d: degree of differencing (I) to make series stationary
// - q: order of moving average (MA) part
//
// Coefficients are estimated by conditional sum of squares. No constant term
// is fitted.
type ARIMAForecaster struct {
	P int // AR order
	D int // Differencing order
	Q int // MA order
}

// NewARIMAForecaster creates a new ARIMA forecaster with default parameters
func NewARIMAForecaster() *ARIMAForecaster {
	return &ARIMAForecaster{
		P: 2, // Default AR(2)
		D: 1, // Default first-order differencing
		Q: 2, // Default MA(2)
	}
}

// NewARIMAForecasterWithParams creates ARIMA forecaster with custom parameters
func NewARIMAForecasterWithParams(p, d, q int) *ARIMAForecaster {
	return &ARIMAForecaster{
		P: p,
		D: d,
		Q: q,
	}
}

func init() {
	RegisterForecaster("arima", NewARIMAForecaster())
}

// Name returns the algorithm name
func (f *ARIMAForecaster) Name() string {
	return "arima"
}

// WithOrder returns a copy fitted with order (p,d,q)
func (f *ARIMAForecaster) WithOrder(p, d, q int) Forecaster {
	return NewARIMAForecasterWithParams(p, d, q)
}

// ModelSummary describes a fitted ARIMA model
type ModelSummary struct {
	P, D, Q       int
	AR            []float64 // phi_1..phi_p
	MA            []float64 // theta_1..theta_q
	Sigma2        float64   // Residual variance
	LogLikelihood float64
	AIC           float64
	AICc          float64
	BIC           float64
	NObs          int     // Observations entering the likelihood
	LjungBoxQ     float64 // Residual autocorrelation statistic
	LjungBoxP     float64
	LjungBoxLags  int
	Converged     bool
	Iterations    int
}

// arimaModel holds the fitted state needed to forecast
type arimaModel struct {
	phi, theta []float64
	w          []float64 // differenced series
	resid      []float64 // one-step residuals on w
	levels     []float64 // last value of y differenced 0..d-1 times
	sigma2     float64
	css        float64
	nEff       int
	converged  bool
	iterations int
}

// Forecast generates predictions using ARIMA model
func (f *ARIMAForecaster) Forecast(data []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	if f.P < 0 || f.D < 0 || f.Q < 0 {
		return nil, fmt.Errorf("invalid order (%d,%d,%d)", f.P, f.D, f.Q)
	}
	if config.Horizon < 1 {
		return nil, fmt.Errorf("horizon must be at least 1, got %d", config.Horizon)
	}
	if config.Confidence <= 0 || config.Confidence >= 1 {
		return nil, fmt.Errorf("confidence must be in (0, 1), got %v", config.Confidence)
	}

	minPoints := max(config.MinDataPoints, f.P+f.D+f.Q+10)
	if len(data) < minPoints {
		return nil, fmt.Errorf("insufficient data points: need at least %d, got %d", minPoints, len(data))
	}

	values := make([]float64, len(data))
	for i, dp := range data {
		if math.IsNaN(dp.Value) || math.IsInf(dp.Value, 0) {
			return nil, fmt.Errorf("non-finite value at %s", dp.Time.Format("2006-01-02"))
		}
		values[i] = dp.Value
	}

	model, err := f.fit(values, config.MaxIterations)
	if err != nil {
		return nil, err
	}

	predictions := f.predict(model, data[len(data)-1], config)

	// In-sample one-step predictions on the original scale: y[t+d] - e[t]
	fitted := make([]float64, len(model.w))
	for t := range fitted {
		fitted[t] = values[t+f.D] - model.resid[t]
	}
	actual := values[f.D+f.P:]
	predicted := fitted[f.P:]

	summary := f.summarize(model)

	return &ForecastResult{
		Predictions: predictions,
		Fitted:      fitted,
		Residuals:   model.resid,
		ModelInfo: ModelInfo{
			Algorithm: "arima",
			Parameters: map[string]interface{}{
				"p":      f.P,
				"d":      f.D,
				"q":      f.Q,
				"ar":     model.phi,
				"ma":     model.theta,
				"sigma2": model.sigma2,
			},
			MAPE:       CalculateMAPE(actual, predicted),
			MAE:        CalculateMAE(actual, predicted),
			RMSE:       CalculateRMSE(actual, predicted),
			DataPoints: len(data),
		},
		Summary: summary,
	}, nil
}

// fit estimates phi and theta by minimizing the conditional sum of squares
// over a reparameterization that keeps the AR part stationary and the MA
// part invertible
func (f *ARIMAForecaster) fit(values []float64, maxIterations int) (*arimaModel, error) {
	w, levels := difference(values, f.D)
	if len(w) <= f.P {
		return nil, fmt.Errorf("insufficient data after differencing: need more than %d, got %d", f.P, len(w))
	}
	if stat.Variance(w, nil) == 0 {
		return nil, errors.New("series is constant after differencing: residual variance is zero")
	}

	nEff := len(w) - f.P
	resid := make([]float64, len(w))
	objective := func(x []float64) float64 {
		phi, theta := f.unpack(x)
		css := conditionalSumOfSquares(w, phi, theta, resid)
		if math.IsNaN(css) || math.IsInf(css, 0) {
			return math.MaxFloat64
		}
		return 0.5 * float64(nEff) * math.Log(math.Max(css, math.SmallestNonzeroFloat64)/float64(nEff))
	}

	model := &arimaModel{w: w, levels: levels, nEff: nEff, converged: true}

	x := f.startParams(w)
	if len(x) > 0 {
		if maxIterations <= 0 {
			maxIterations = 2000
		}
		settings := &optimize.Settings{
			MajorIterations: maxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-10,
				Relative:   1e-10,
				Iterations: 50,
			},
		}
		result, err := optimize.Minimize(optimize.Problem{Func: objective}, x, settings, &optimize.NelderMead{})
		if result == nil {
			return nil, fmt.Errorf("arima optimization failed: %w", err)
		}
		if math.IsNaN(result.F) || math.IsInf(result.F, 0) || result.F == math.MaxFloat64 {
			return nil, errors.New("arima optimization failed: objective is not finite")
		}
		if err != nil || result.Status == optimize.IterationLimit || result.Status == optimize.FunctionEvaluationLimit {
			model.converged = false
		}
		model.iterations = result.Stats.MajorIterations
		x = result.X
	}

	model.phi, model.theta = f.unpack(x)
	model.resid = make([]float64, len(w))
	model.css = conditionalSumOfSquares(w, model.phi, model.theta, model.resid)
	model.sigma2 = model.css / float64(nEff)
	if math.IsNaN(model.sigma2) || math.IsInf(model.sigma2, 0) || model.sigma2 <= 0 {
		return nil, fmt.Errorf("arima fit failed: residual variance %v", model.sigma2)
	}

	return model, nil
}

// unpack maps optimizer coordinates to AR and MA coefficients
func (f *ARIMAForecaster) unpack(x []float64) (phi, theta []float64) {
	phi = constrainStationary(x[:f.P])
	theta = negate(constrainStationary(x[f.P : f.P+f.Q]))
	return phi, theta
}

// startParams returns Yule-Walker AR estimates and zero MA terms in
// optimizer coordinates. AR falls back to zero when Yule-Walker leaves the
// stationary region.
func (f *ARIMAForecaster) startParams(w []float64) []float64 {
	x := make([]float64, f.P+f.Q)
	if f.P == 0 {
		return x
	}

	phi := levinsonDurbin(autocorrelation(w, f.P), f.P)
	if len(phi) != f.P || !isStationary(phi) {
		return x
	}
	start := unconstrainStationary(phi)
	for _, v := range start {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return x
		}
	}
	copy(x, start)
	return x
}

// conditionalSumOfSquares fills resid with the one-step errors
// e[t] = w[t] - sum phi_i w[t-i] - sum theta_j e[t-j], taking e[t] = 0 for
// t < p, and returns the sum of e[t]^2 over t >= p
func conditionalSumOfSquares(w, phi, theta, resid []float64) float64 {
	p := len(phi)
	for t := range resid {
		resid[t] = 0
	}
	css := 0.0
	for t := p; t < len(w); t++ {
		e := w[t]
		for i, c := range phi {
			e -= c * w[t-1-i]
		}
		for j, c := range theta {
			if t-1-j >= p {
				e -= c * resid[t-1-j]
			}
		}
		resid[t] = e
		css += e * e
	}
	return css
}

// predict projects the model forward one calendar day per step
func (f *ARIMAForecaster) predict(m *arimaModel, last DataPoint, config ForecastConfig) []ForecastPoint {
	n := len(m.w)
	h := config.Horizon

	wExt := make([]float64, n, n+h)
	copy(wExt, m.w)
	eExt := make([]float64, n, n+h)
	copy(eExt, m.resid)

	steps := make([]float64, h)
	for k := 0; k < h; k++ {
		t := n + k
		v := 0.0
		for i, c := range m.phi {
			if t-1-i >= 0 {
				v += c * wExt[t-1-i]
			}
		}
		for j, c := range m.theta {
			if t-1-j >= 0 {
				v += c * eExt[t-1-j]
			}
		}
		wExt = append(wExt, v)
		eExt = append(eExt, 0) // future shocks have zero expectation
		steps[k] = v
	}

	level := integrate(steps, m.levels)
	psi := psiWeights(m.phi, m.theta, f.D, h)

	predictions := make([]ForecastPoint, h)
	variance := 0.0
	for k := 0; k < h; k++ {
		variance += psi[k] * psi[k]
		lower, upper := calculatePredictionInterval(level[k], math.Sqrt(m.sigma2*variance), config.Confidence)
		predictions[k] = ForecastPoint{
			Time:       last.Time.AddDate(0, 0, k+1),
			Value:      level[k],
			LowerBound: lower,
			UpperBound: upper,
		}
	}
	return predictions
}

// summarize reports information criteria and residual diagnostics
func (f *ARIMAForecaster) summarize(m *arimaModel) *ModelSummary {
	n := float64(m.nEff)
	k := float64(f.P + f.Q + 1)
	loglik := -n / 2 * (math.Log(2*math.Pi*m.sigma2) + 1)
	aic := -2*loglik + 2*k

	aicc := math.NaN()
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	q, pValue := LjungBox(m.resid[f.P:], ljungBoxLags, f.P+f.Q)

	return &ModelSummary{
		P:             f.P,
		D:             f.D,
		Q:             f.Q,
		AR:            m.phi,
		MA:            m.theta,
		Sigma2:        m.sigma2,
		LogLikelihood: loglik,
		AIC:           aic,
		AICc:          aicc,
		BIC:           -2*loglik + k*math.Log(n),
		NObs:          m.nEff,
		LjungBoxQ:     q,
		LjungBoxP:     pValue,
		LjungBoxLags:  min(ljungBoxLags, len(m.resid)-f.P-1),
		Converged:     m.converged,
		Iterations:    m.iterations,
	}
}

// difference applies first differencing d times and returns the result with
// the last value of each intermediate level, outermost first
func difference(values []float64, d int) (w []float64, levels []float64) {
	w = make([]float64, len(values))
	copy(w, values)
	levels = make([]float64, 0, d)

	for i := 0; i < d && len(w) > 0; i++ {
		levels = append(levels, w[len(w)-1])
		diffed := make([]float64, len(w)-1)
		for j := 1; j < len(w); j++ {
			diffed[j-1] = w[j] - w[j-1]
		}
		w = diffed
	}
	return w, levels
}

// integrate reverses difference for values following the end of the series
func integrate(steps, levels []float64) []float64 {
	out := make([]float64, len(steps))
	copy(out, steps)
	for k := len(levels) - 1; k >= 0; k-- {
		running := levels[k]
		for i := range out {
			running += out[i]
			out[i] = running
		}
	}
	return out
}

// psiWeights returns the first h coefficients of the MA(infinity)
// representation of the integrated model, psi_0 = 1
func psiWeights(phi, theta []float64, d, h int) []float64 {
	// phi*(L) = phi(L) (1 - L)^d as coefficients of L^0..L^(p+d)
	poly := make([]float64, len(phi)+1)
	poly[0] = 1
	for i, c := range phi {
		poly[i+1] = -c
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		floats.Add(next[:len(poly)], poly)
		floats.AddScaled(next[1:], -1, poly)
		poly = next
	}

	psi := make([]float64, h)
	if h == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < h; j++ {
		v := 0.0
		if j <= len(theta) {
			v = theta[j-1]
		}
		for i := 1; i < len(poly) && i <= j; i++ {
			v -= poly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
