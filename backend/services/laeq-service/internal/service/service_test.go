package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/cache"
	"noisemap/backend/services/laeq-service/internal/models"
)

var ict = time.FixedZone("ICT", 7*3600)

type fakeCells struct {
	cell models.Cell
	err  error
}

func (f fakeCells) ResolveCell(context.Context, float64, float64) (models.Cell, error) {
	return f.cell, f.err
}

type fakeSource struct {
	series   laeq.Series
	err      error
	calls    int
	from, to time.Time
}

func (f *fakeSource) Samples(_ context.Context, _ models.Cell, from, to time.Time) (laeq.Series, error) {
	f.calls++
	f.from, f.to = from, to
	return f.series, f.err
}

type fakeView struct{ v float64 }

func (f fakeView) UpstreamLAeq(context.Context, string) (float64, error) { return f.v, nil }

type fakePublisher struct {
	mu   sync.Mutex
	got  []*models.Report
	done chan struct{}
}

func (f *fakePublisher) Publish(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	f.got = append(f.got, r)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func daySeries() laeq.Series {
	var s laeq.Series
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m += 15 {
			s = append(s, laeq.Sample{Time: time.Date(2024, 5, 1, h, m, 0, 0, ict), LevelDb: 50 + float64(h)})
		}
	}
	return s
}

func newService(t *testing.T, src *fakeSource, extra func(*Deps)) *LAeqService {
	t.Helper()
	d := Deps{
		Cells:     fakeCells{cell: models.Cell{ID: "h1"}},
		Source:    src,
		Location:  ict,
		MaxPoints: 10,
		Clock:     func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, ict) },
		Logger:    zap.NewNop(),
	}
	if extra != nil {
		extra(&d)
	}
	svc, err := NewLAeqService(d)
	require.NoError(t, err)
	return svc
}

func TestComputeDaily(t *testing.T) {
	src := &fakeSource{series: daySeries()}
	svc := newService(t, src, func(d *Deps) { d.View = fakeView{v: 61.26} })

	report, err := svc.Compute(context.Background(), models.LAeqRequest{Lat: 13.7, Lng: 100.5, Window: "L24h", Date: "2024-05-01"})
	require.NoError(t, err)

	assert.Equal(t, laeq.Daily24h, report.Type)
	assert.Equal(t, 96, report.TotalRecords)
	assert.InDelta(t, 50.0, report.Min, 1e-9)
	assert.InDelta(t, 73.0, report.Max, 1e-9)
	assert.InDelta(t, 61.5, report.Avg, 1e-9)
	assert.GreaterOrEqual(t, report.LAeq, report.Avg)
	assert.Len(t, report.TrendData, 24)
	assert.Equal(t, 4, report.TrendData[5].Count)
	require.NotNil(t, report.Chart)
	assert.LessOrEqual(t, report.Chart.Len(), 10)
	require.NotNil(t, report.UpstreamLAeq)
	assert.InDelta(t, 61.3, *report.UpstreamLAeq, 1e-9)
	assert.True(t, src.from.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, ict)))
	assert.True(t, src.to.Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, ict)))
}

func TestComputeNight(t *testing.T) {
	src := &fakeSource{series: append(daySeries(), laeq.Sample{Time: time.Date(2024, 5, 2, 3, 0, 0, 0, ict), LevelDb: 45})}
	svc := newService(t, src, nil)

	report, err := svc.Compute(context.Background(), models.LAeqRequest{Lat: 13.7, Lng: 100.5, Window: "night", Date: "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, 9, report.TotalRecords)
	assert.InDelta(t, 45.0, report.Min, 1e-9)
	assert.Empty(t, report.TrendData)
}

func TestComputeErrors(t *testing.T) {
	t.Run("invalid window", func(t *testing.T) {
		svc := newService(t, &fakeSource{}, nil)
		_, err := svc.Compute(context.Background(), models.LAeqRequest{Window: "Lweek", Date: "2024-05-01"})
		assert.ErrorIs(t, err, laeq.ErrInvalidWindow)
	})

	t.Run("missing date", func(t *testing.T) {
		src := &fakeSource{}
		svc := newService(t, src, nil)
		_, err := svc.Compute(context.Background(), models.LAeqRequest{Window: "Lday"})
		assert.ErrorIs(t, err, laeq.ErrInvalidWindow)
		assert.Zero(t, src.calls)
	})

	t.Run("bad point", func(t *testing.T) {
		svc := newService(t, &fakeSource{}, nil)
		_, err := svc.Compute(context.Background(), models.LAeqRequest{Lat: 91, Window: "L1h"})
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	})

	t.Run("no data", func(t *testing.T) {
		svc := newService(t, &fakeSource{series: daySeries()}, nil)
		_, err := svc.Compute(context.Background(), models.LAeqRequest{Window: "Lday", Date: "2024-06-01"})
		assert.ErrorIs(t, err, laeq.ErrNoData)
	})

	t.Run("cell not found", func(t *testing.T) {
		svc := newService(t, &fakeSource{}, func(d *Deps) { d.Cells = fakeCells{err: models.ErrCellNotFound} })
		_, err := svc.Compute(context.Background(), models.LAeqRequest{Window: "L1h"})
		assert.ErrorIs(t, err, models.ErrCellNotFound)
	})

	t.Run("source failure is upstream", func(t *testing.T) {
		svc := newService(t, &fakeSource{err: errors.New("connection reset")}, nil)
		_, err := svc.Compute(context.Background(), models.LAeqRequest{Window: "L1h"})
		var upErr *models.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, "samples", upErr.Service)
	})
}

func TestComputeHourlyUsesTrailingHour(t *testing.T) {
	src := &fakeSource{series: daySeries()}
	svc := newService(t, src, nil)

	report, err := svc.Compute(context.Background(), models.LAeqRequest{Window: "1h"})
	require.NoError(t, err)
	// (11:00, 12:00] holds 11:15, 11:30, 11:45 and 12:00.
	assert.Equal(t, 4, report.TotalRecords)
	assert.Empty(t, report.Date)
}

func TestComputeCachesAndPublishes(t *testing.T) {
	src := &fakeSource{series: daySeries()}
	store := cache.NewMemoryStore(time.Minute, nil)
	pub := &fakePublisher{done: make(chan struct{}, 4)}
	svc := newService(t, src, func(d *Deps) {
		d.Cache = store
		d.Publisher = pub
	})

	req := models.LAeqRequest{Window: "Levening", Date: "2024-05-01"}
	first, err := svc.Compute(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Compute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first.LAeq, second.LAeq)

	select {
	case <-pub.done:
	case <-time.After(time.Second):
		t.Fatal("report was not published")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.got, 1)
}

func TestChart(t *testing.T) {
	svc := newService(t, &fakeSource{series: daySeries()}, nil)
	from := time.Date(2024, 5, 1, 6, 0, 0, 0, ict)

	chart, err := svc.Chart(context.Background(), ChartRequest{From: from, To: from.Add(6 * time.Hour), MaxPoints: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, chart.Len())
	assert.InDelta(t, 61.0, chart.Values[4], 1e-9)

	_, err = svc.Chart(context.Background(), ChartRequest{From: from, To: from})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	t.Run("budget ceiling", func(t *testing.T) {
		chart, err := svc.Chart(context.Background(), ChartRequest{From: from, To: from.Add(6 * time.Hour), MaxPoints: 100})
		require.NoError(t, err)
		assert.Equal(t, 24, chart.Len())

		_, err = svc.Chart(context.Background(), ChartRequest{From: from, To: from.Add(6 * time.Hour), MaxPoints: 101})
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	})
}

type fakeAI struct {
	got models.AskPayload
	err error
}

func (f *fakeAI) Ask(_ context.Context, p models.AskPayload) (json.RawMessage, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"output":"ok"}`), nil
}

func TestAsk(t *testing.T) {
	svc := newService(t, &fakeSource{series: daySeries()}, nil)

	t.Run("sends report", func(t *testing.T) {
		ai := &fakeAI{}
		resp, err := NewAskService(svc, ai, zap.NewNop()).Ask(context.Background(), models.AskRequest{
			LAeqRequest: models.LAeqRequest{Window: "Lday", Date: "2024-05-01"},
			Question:    "Is daytime noise above 55 dB?",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.SessionID)
		assert.Equal(t, resp.SessionID, ai.got.SessionID)
		require.NotNil(t, ai.got.Context)
		assert.Equal(t, 48, ai.got.Context.TotalRecords)
		assert.JSONEq(t, `{"output":"ok"}`, string(resp.Body))
	})

	t.Run("no data is forwarded with a note", func(t *testing.T) {
		ai := &fakeAI{}
		_, err := NewAskService(svc, ai, zap.NewNop()).Ask(context.Background(), models.AskRequest{
			LAeqRequest: models.LAeqRequest{Window: "Lday", Date: "2024-07-01"},
			Question:    "quiet?",
			SessionID:   "keep-me",
		})
		require.NoError(t, err)
		assert.Nil(t, ai.got.Context)
		assert.NotEmpty(t, ai.got.Note)
		assert.Equal(t, "keep-me", ai.got.SessionID)
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := NewAskService(svc, nil, zap.NewNop()).Ask(context.Background(), models.AskRequest{Question: "x"})
		assert.ErrorIs(t, err, models.ErrAIDisabled)
	})

	t.Run("empty question", func(t *testing.T) {
		_, err := NewAskService(svc, &fakeAI{}, zap.NewNop()).Ask(context.Background(), models.AskRequest{})
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	})
}

type staticLive laeq.Series

func (s staticLive) Series(string) laeq.Series { return laeq.Series(s) }

func TestLiveService(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, ict)
	live := NewLiveService(staticLive(daySeries()), ict, func() time.Time { return now })

	res, err := live.Current("h1")
	require.NoError(t, err)
	assert.Equal(t, laeq.Hourly1h, res.Window)
	assert.Equal(t, 4, res.Count)

	empty := NewLiveService(staticLive(nil), ict, func() time.Time { return now })
	_, err = empty.Current("h1")
	assert.ErrorIs(t, err, laeq.ErrNoData)
}
