package laeq

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	t.Run("constant level", func(t *testing.T) {
		got, err := Reduce([]float64{60, 60, 60})
		require.NoError(t, err)
		assert.InDelta(t, 60.0, got, 1e-9)
	})

	t.Run("energy average", func(t *testing.T) {
		got, err := Reduce([]float64{60, 70})
		require.NoError(t, err)
		assert.InDelta(t, 10*math.Log10((1e6+1e7)/2), got, 1e-9)
		assert.Greater(t, got, 65.0)
	})

	t.Run("large levels stay finite", func(t *testing.T) {
		got, err := Reduce([]float64{4000, 4000})
		require.NoError(t, err)
		assert.InDelta(t, 4000.0, got, 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Reduce(nil)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("non-finite", func(t *testing.T) {
		_, err := Reduce([]float64{60, math.NaN()})
		assert.ErrorIs(t, err, ErrNonFinite)
		_, err = Reduce([]float64{math.Inf(1)})
		assert.ErrorIs(t, err, ErrNonFinite)
	})
}

func TestSummarize(t *testing.T) {
	res, err := Summarize([]float64{55, 72.5, 61, 48}, Daytime)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Count)
	assert.Equal(t, Daytime, res.Window)
	assert.InDelta(t, 48.0, res.MinDb, 1e-9)
	assert.InDelta(t, 72.5, res.MaxDb, 1e-9)
	assert.InDelta(t, 59.125, res.AvgDb, 1e-9)
	assert.LessOrEqual(t, res.MinDb, res.AvgDb)
	assert.LessOrEqual(t, res.AvgDb, res.MaxDb)
	assert.GreaterOrEqual(t, res.LAeqDb, res.AvgDb)
}

func TestRound1(t *testing.T) {
	cases := map[float64]float64{
		65.65:  65.7,
		-0.05:  -0.1,
		67.44:  67.4,
		60:     60,
		59.951: 60,
	}
	for in, want := range cases {
		assert.InDelta(t, want, Round1(in), 1e-12, "Round1(%v)", in)
	}
	assert.True(t, math.IsNaN(Round1(math.NaN())))
}

func TestComputeProperties(t *testing.T) {
	date := at(ict, 2024, 5, 1, 0, 0)
	q := Query{Window: Daily24h, Date: date, Location: ict}
	base := Series{
		{Time: at(ict, 2024, 5, 1, 1, 0), LevelDb: 42.3},
		{Time: at(ict, 2024, 5, 1, 7, 15), LevelDb: 68.9},
		{Time: at(ict, 2024, 5, 1, 9, 30), LevelDb: 71.2},
		{Time: at(ict, 2024, 5, 1, 13, 0), LevelDb: 55},
		{Time: at(ict, 2024, 5, 1, 19, 45), LevelDb: 63.4},
		{Time: at(ict, 2024, 5, 1, 23, 59), LevelDb: 47.8},
	}
	want, err := Compute(base, q)
	require.NoError(t, err)

	t.Run("order does not matter", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 10; i++ {
			shuffled := append(Series(nil), base...)
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			got, err := Compute(shuffled, q)
			require.NoError(t, err)
			assert.InDelta(t, want.LAeqDb, got.LAeqDb, 1e-9)
			assert.Equal(t, want.Count, got.Count)
		}
	})

	t.Run("duplicating every sample keeps the level", func(t *testing.T) {
		doubled := append(append(Series(nil), base...), base...)
		got, err := Compute(doubled, q)
		require.NoError(t, err)
		assert.InDelta(t, want.LAeqDb, got.LAeqDb, 1e-9)
		assert.Equal(t, 2*want.Count, got.Count)
	})

	t.Run("energy mean bounded by extremes and above the arithmetic mean", func(t *testing.T) {
		assert.LessOrEqual(t, want.MinDb, want.LAeqDb)
		assert.LessOrEqual(t, want.LAeqDb, want.MaxDb)
		assert.GreaterOrEqual(t, want.LAeqDb, want.AvgDb)
	})
}

func TestSummarizeScenarios(t *testing.T) {
	cases := []struct {
		name                     string
		levels                   []float64
		laeq, min, max, avg, rnd float64
	}{
		{
			name:   "one loud sample among quiet ones",
			levels: []float64{60, 60, 60, 70},
			laeq:   10 * math.Log10(3.25e6),
			min:    60,
			max:    70,
			avg:    62.5,
			rnd:    65.1,
		},
		{
			name:   "equal levels",
			levels: []float64{50, 50},
			laeq:   50,
			min:    50,
			max:    50,
			avg:    50,
			rnd:    50,
		},
		{
			name:   "single sample",
			levels: []float64{0},
			laeq:   0,
			min:    0,
			max:    0,
			avg:    0,
			rnd:    0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Summarize(tc.levels, Daily24h)
			require.NoError(t, err)
			assert.Equal(t, len(tc.levels), res.Count)
			assert.InDelta(t, tc.laeq, res.LAeqDb, 1e-9)
			assert.InDelta(t, tc.min, res.MinDb, 1e-9)
			assert.InDelta(t, tc.max, res.MaxDb, 1e-9)
			assert.InDelta(t, tc.avg, res.AvgDb, 1e-9)
			assert.InDelta(t, tc.rnd, Round1(res.LAeqDb), 1e-12)
		})
	}
}
