package report

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// BootstrapInterval holds a bootstrap-resampled confidence interval for
// some measured statistic.
type BootstrapInterval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Bootstrap resamples values with replacement sampleSize times, applying
// measure to each resample, and returns the empirical mean/stddev plus the
// confidence interval at the given confidence level (e.g. 0.95).
//
// Used by Summary to put error bars around per-slice merge latency, where
// the underlying distribution isn't known to be normal.
func Bootstrap(values []float64, measure func([]float64) float64, sampleSize int, confidence float64) BootstrapInterval {
	if len(values) == 0 || sampleSize <= 0 {
		return BootstrapInterval{}
	}

	data := make([]float64, 0, sampleSize)
	for i := 0; i < sampleSize; i++ {
		sample := make([]float64, len(values))
		for j := range sample {
			sample[j] = lo.Sample(values)
		}
		data = append(data, measure(sample))
	}

	tail := 1 - confidence
	sort.Float64s(data)
	mean, stdDev := stat.MeanStdDev(data, nil)
	upper := stat.Quantile(1-tail/2, stat.LinInterp, data, nil)
	lower := stat.Quantile(tail/2, stat.LinInterp, data, nil)

	return BootstrapInterval{Lower: lower, Upper: upper, StdDev: stdDev, Mean: mean}
}

// Mean is a thin wrapper kept for symmetry with the measure funcs passed to
// Bootstrap (e.g. report.Bootstrap(latencies, report.Mean, 1000, 0.95)).
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}
