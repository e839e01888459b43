package laeq

import "time"

// DefaultMaxPoints is the chart budget used when the caller passes none.
const DefaultMaxPoints = 100

// ChartSeries is a plottable series. Labels and Values are parallel.
type ChartSeries struct {
	Labels []time.Time `json:"labels"`
	Values []float64   `json:"values"`
}

// Len returns the number of points.
func (c ChartSeries) Len() int {
	if len(c.Labels) < len(c.Values) {
		return len(c.Labels)
	}
	return len(c.Values)
}

// ChartFromSamples lays samples out in time order for plotting. Non-finite levels are skipped.
func ChartFromSamples(samples []Sample) ChartSeries {
	sorted := Series(samples).Sorted()
	out := ChartSeries{
		Labels: make([]time.Time, 0, len(sorted)),
		Values: make([]float64, 0, len(sorted)),
	}
	for _, s := range sorted {
		if !finite(s.LevelDb) {
			continue
		}
		out.Labels = append(out.Labels, s.Time)
		out.Values = append(out.Values, s.LevelDb)
	}
	return out
}

// Downsample reduces series to at most maxPoints for display. Consecutive chunks of
// ceil(n/maxPoints) points become one point carrying the chunk's first label and the
// arithmetic mean of its values. The final input point always closes the output.
// The result is for plotting only and must not feed any reported statistic.
func Downsample(series ChartSeries, maxPoints int) ChartSeries {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	n := series.Len()
	if n <= maxPoints {
		return series
	}

	step := (n + maxPoints - 1) / maxPoints
	out := ChartSeries{
		Labels: make([]time.Time, 0, maxPoints),
		Values: make([]float64, 0, maxPoints),
	}
	for i := 0; i < n; i += step {
		end := i + step
		if end > n {
			end = n
		}
		var sum float64
		for _, v := range series.Values[i:end] {
			sum += v
		}
		out.Labels = append(out.Labels, series.Labels[i])
		out.Values = append(out.Values, sum/float64(end-i))
	}

	if lastChunk := ((n - 1) / step) * step; lastChunk != n-1 {
		if len(out.Values) < maxPoints {
			out.Labels = append(out.Labels, series.Labels[n-1])
			out.Values = append(out.Values, series.Values[n-1])
		} else {
			k := len(out.Values) - 1
			out.Labels[k] = series.Labels[n-1]
			out.Values[k] = series.Values[n-1]
		}
	}
	return out
}
