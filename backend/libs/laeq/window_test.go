package laeq

import (
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ict = time.FixedZone("ICT", 7*3600)

func at(loc *time.Location, y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, loc)
}

func series(levels map[time.Time]float64) Series {
	out := make(Series, 0, len(levels))
	for ts, l := range levels {
		out = append(out, Sample{Time: ts, LevelDb: l})
	}
	return out
}

func TestParseWindow(t *testing.T) {
	for name, want := range map[string]Window{
		"L1h": Hourly1h, "laeq1h": Hourly1h, "24h": Daily24h, "L24h": Daily24h,
		"day": Daytime, "Lday": Daytime, "evening": Evening, "Lnight": Night, " NIGHT ": Night,
	} {
		got, err := ParseWindow(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseWindow("Lweek")
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestQuerySpanValidation(t *testing.T) {
	date := at(ict, 2024, 5, 1, 0, 0)

	t.Run("missing location", func(t *testing.T) {
		_, err := Query{Window: Daily24h, Date: date}.Span()
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
	t.Run("missing date", func(t *testing.T) {
		_, err := Query{Window: Night, Location: ict}.Span()
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
	t.Run("missing now", func(t *testing.T) {
		_, err := Query{Window: Hourly1h, Date: date, Location: ict}.Span()
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
	t.Run("unknown window", func(t *testing.T) {
		_, err := Query{Window: "L8h", Date: date, Location: ict}.Span()
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestPartitionNightWraps(t *testing.T) {
	q := Query{Window: Night, Date: at(ict, 2024, 5, 1, 0, 0), Location: ict}
	in23 := at(ict, 2024, 5, 1, 23, 0)
	in05 := at(ict, 2024, 5, 2, 5, 59)
	out21 := at(ict, 2024, 5, 1, 21, 59)
	out06 := at(ict, 2024, 5, 2, 6, 0)

	got, rejected, err := Partition(series(map[time.Time]float64{
		in05: 50, out06: 80, in23: 40, out21: 90,
	}), q)
	require.NoError(t, err)
	assert.Zero(t, rejected)
	require.Len(t, got, 2)
	assert.True(t, got[0].Time.Equal(in23))
	assert.True(t, got[1].Time.Equal(in05))
}

func TestPartitionDaytimeAndEvening(t *testing.T) {
	date := at(ict, 2024, 5, 1, 0, 0)
	s := series(map[time.Time]float64{
		at(ict, 2024, 5, 1, 5, 59):  1,
		at(ict, 2024, 5, 1, 6, 0):   2,
		at(ict, 2024, 5, 1, 17, 59): 3,
		at(ict, 2024, 5, 1, 18, 0):  4,
		at(ict, 2024, 5, 1, 21, 59): 5,
		at(ict, 2024, 5, 1, 22, 0):  6,
	})

	day, _, err := Partition(s, Query{Window: Daytime, Date: date, Location: ict})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, Levels(day))

	eve, _, err := Partition(s, Query{Window: Evening, Date: date, Location: ict})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5}, Levels(eve))

	all, _, err := Partition(s, Query{Window: Daily24h, Date: date, Location: ict})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestPartitionTrailingHour(t *testing.T) {
	now := at(ict, 2024, 5, 1, 12, 0)
	s := series(map[time.Time]float64{
		now.Add(-time.Hour):        1,
		now.Add(-59 * time.Minute): 2,
		now:                        3,
		now.Add(time.Second):       4,
	})

	got, _, err := Partition(s, Query{Window: Hourly1h, Now: now, Location: ict})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, Levels(got))
}

func TestPartitionUsesQueryLocation(t *testing.T) {
	// 2024-05-01 20:00 UTC is 03:00 on May 2 in ICT.
	instant := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	s := Series{{Time: instant, LevelDb: 70}}

	inUTC, _, err := Partition(s, Query{Window: Evening, Date: instant, Location: time.UTC})
	require.NoError(t, err)
	assert.Len(t, inUTC, 1)

	inICT, _, err := Partition(s, Query{Window: Night, Date: at(ict, 2024, 5, 1, 0, 0), Location: ict})
	require.NoError(t, err)
	assert.Len(t, inICT, 1)

	eveICT, _, err := Partition(s, Query{Window: Evening, Date: at(ict, 2024, 5, 1, 0, 0), Location: ict})
	require.NoError(t, err)
	assert.Empty(t, eveICT)
}

func TestDaily24hAcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	span, err := Query{Window: Daily24h, Date: at(ny, 2024, 3, 10, 0, 0), Location: ny}.Span()
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour, span.End.Sub(span.Start))
	assert.True(t, span.Contains(at(ny, 2024, 3, 10, 23, 30)))
	assert.False(t, span.Contains(at(ny, 2024, 3, 11, 0, 0)))
}

func TestComputeRejectsNonFinite(t *testing.T) {
	date := at(ict, 2024, 5, 1, 0, 0)
	s := Series{
		{Time: at(ict, 2024, 5, 1, 8, 0), LevelDb: 60},
		{Time: at(ict, 2024, 5, 1, 9, 0), LevelDb: math.NaN()},
		{Time: at(ict, 2024, 5, 1, 10, 0), LevelDb: 60},
		{Time: at(ict, 2024, 5, 1, 10, 0), LevelDb: 60},
	}

	res, err := Compute(s, Query{Window: Daytime, Date: date, Location: ict})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 1, res.Rejected)
	assert.InDelta(t, 60.0, res.LAeqDb, 1e-9)

	t.Run("outside the window is not rejected", func(t *testing.T) {
		s := Series{
			{Time: at(ict, 2024, 5, 1, 8, 0), LevelDb: 60},
			{Time: at(ict, 2024, 5, 1, 23, 0), LevelDb: math.NaN()},
			{Time: at(ict, 2024, 5, 1, 5, 0), LevelDb: math.Inf(1)},
		}
		res, err := Compute(s, Query{Window: Daytime, Date: date, Location: ict})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Count)
		assert.Zero(t, res.Rejected)
	})
}

func TestComputeNoData(t *testing.T) {
	date := at(ict, 2024, 5, 1, 0, 0)
	s := Series{{Time: at(ict, 2024, 5, 1, 12, 0), LevelDb: 60}}

	_, err := Compute(s, Query{Window: Night, Date: date, Location: ict})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Compute(nil, Query{Window: Daily24h, Date: date, Location: ict})
	assert.ErrorIs(t, err, ErrNoData)
}
