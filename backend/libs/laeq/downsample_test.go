package laeq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) ChartSeries {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := ChartSeries{}
	for i := 0; i < n; i++ {
		out.Labels = append(out.Labels, base.Add(time.Duration(i)*time.Minute))
		out.Values = append(out.Values, float64(i))
	}
	return out
}

func TestDownsample(t *testing.T) {
	t.Run("short series unchanged", func(t *testing.T) {
		in := ramp(40)
		out := Downsample(in, 100)
		assert.Equal(t, in, out)
	})

	t.Run("1000 to 100", func(t *testing.T) {
		in := ramp(1000)
		out := Downsample(in, 100)

		require.Equal(t, 100, out.Len())
		assert.InDelta(t, 4.5, out.Values[0], 1e-9)
		assert.Equal(t, in.Labels[0], out.Labels[0])
		assert.InDelta(t, 14.5, out.Values[1], 1e-9)
		assert.Equal(t, in.Labels[10], out.Labels[1])
		assert.Equal(t, in.Labels[999], out.Labels[99])
		assert.InDelta(t, 999.0, out.Values[99], 1e-9)
	})

	t.Run("last point appended when room remains", func(t *testing.T) {
		in := ramp(104)
		out := Downsample(in, 100)

		require.Equal(t, 53, out.Len())
		assert.InDelta(t, 102.5, out.Values[51], 1e-9)
		assert.Equal(t, in.Labels[103], out.Labels[52])
	})

	t.Run("single trailing chunk already holds last point", func(t *testing.T) {
		in := ramp(250)
		out := Downsample(in, 100)

		require.Equal(t, 84, out.Len())
		assert.Equal(t, in.Labels[249], out.Labels[83])
		assert.InDelta(t, 249.0, out.Values[83], 1e-9)
	})

	t.Run("default budget", func(t *testing.T) {
		out := Downsample(ramp(1000), 0)
		assert.Equal(t, DefaultMaxPoints, out.Len())
	})

	t.Run("deterministic", func(t *testing.T) {
		in := ramp(777)
		assert.Equal(t, Downsample(in, 50), Downsample(in, 50))
	})
}

func TestChartFromSamples(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	chart := ChartFromSamples([]Sample{
		{Time: base.Add(time.Minute), LevelDb: 61},
		{Time: base, LevelDb: 60},
	})
	assert.Equal(t, []float64{60, 61}, chart.Values)
	assert.Equal(t, base, chart.Labels[0])
}

func TestHourlyTrend(t *testing.T) {
	date := at(ict, 2024, 5, 1, 0, 0)
	s := Series{
		{Time: at(ict, 2024, 5, 1, 9, 10), LevelDb: 60},
		{Time: at(ict, 2024, 5, 1, 9, 40), LevelDb: 70},
		{Time: at(ict, 2024, 5, 1, 7, 5), LevelDb: 50},
		{Time: at(ict, 2024, 5, 2, 1, 0), LevelDb: 99},
	}

	trend, err := HourlyTrend(s, Query{Window: Daily24h, Date: date, Location: ict})
	require.NoError(t, err)
	require.Len(t, trend, 2)

	assert.Equal(t, 7, trend[0].Hour)
	assert.Equal(t, 1, trend[0].Count)
	assert.InDelta(t, 50.0, trend[0].LAeqDb, 1e-9)
	assert.Equal(t, 9, trend[1].Hour)
	assert.Equal(t, 2, trend[1].Count)

	leq, _ := Reduce([]float64{60, 70})
	assert.InDelta(t, leq, trend[1].LAeqDb, 1e-9)
}
