package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/cache"
	"noisemap/backend/services/laeq-service/internal/models"
	"noisemap/backend/services/laeq-service/internal/observability"
)

// CellResolver finds the hex cell containing a point.
type CellResolver interface {
	ResolveCell(ctx context.Context, lat, lng float64) (models.Cell, error)
}

// SampleSource returns a cell's samples with from <= time <= to.
type SampleSource interface {
	Samples(ctx context.Context, cell models.Cell, from, to time.Time) (laeq.Series, error)
}

// UpstreamView returns the precomputed LAeq stored for a cell.
type UpstreamView interface {
	UpstreamLAeq(ctx context.Context, cellID string) (float64, error)
}

// ReportCache stores computed reports.
type ReportCache interface {
	Get(ctx context.Context, key string) (*models.Report, bool, error)
	Set(ctx context.Context, key string, report *models.Report) error
}

// ReportPublisher distributes computed reports.
type ReportPublisher interface {
	Publish(ctx context.Context, report *models.Report) error
}

// Deps wires LAeqService. Cells, Source and Location are required.
type Deps struct {
	Cells     CellResolver
	Source    SampleSource
	View      UpstreamView
	Cache     ReportCache
	Publisher ReportPublisher
	Metrics   *observability.Metrics
	Location  *time.Location
	MaxPoints int
	Clock     func() time.Time
	Logger    *zap.Logger
}

// LAeqService answers LAeq and chart queries for map locations.
type LAeqService struct {
	cells     CellResolver
	source    SampleSource
	view      UpstreamView
	cache     ReportCache
	publisher ReportPublisher
	metrics   *observability.Metrics
	loc       *time.Location
	maxPoints int
	clock     func() time.Time
	logger    *zap.Logger
}

// NewLAeqService returns service instance.
func NewLAeqService(d Deps) (*LAeqService, error) {
	if d.Cells == nil || d.Source == nil {
		return nil, errors.New("service: cell resolver and sample source are required")
	}
	if d.Location == nil {
		return nil, errors.New("service: location is required")
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxPoints <= 0 {
		d.MaxPoints = laeq.DefaultMaxPoints
	}
	return &LAeqService{
		cells:     d.Cells,
		source:    d.Source,
		view:      d.View,
		cache:     d.Cache,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		loc:       d.Location,
		maxPoints: d.MaxPoints,
		clock:     d.Clock,
		logger:    d.Logger,
	}, nil
}

// Location returns the reporting time zone.
func (s *LAeqService) Location() *time.Location {
	return s.loc
}

// Compute returns the report for req, from cache when possible.
func (s *LAeqService) Compute(ctx context.Context, req models.LAeqRequest) (*models.Report, error) {
	if err := validatePoint(req.Lat, req.Lng); err != nil {
		return nil, err
	}
	q, err := s.query(req.Window, req.Date)
	if err != nil {
		return nil, err
	}
	span, err := q.Span()
	if err != nil {
		return nil, err
	}

	cell, err := s.cells.ResolveCell(ctx, req.Lat, req.Lng)
	if err != nil {
		return nil, s.upstream("cells", err)
	}

	date := strings.TrimSpace(req.Date)
	if q.Window == laeq.Hourly1h {
		date = ""
	}
	key := cache.ReportKey(cell.ID, q.Window, date, q.Now)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warn("cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	series, err := s.source.Samples(ctx, cell, span.Start, span.End)
	if err != nil {
		return nil, s.upstream("samples", err)
	}

	inWindow, rejected, err := laeq.Partition(series, q)
	if err != nil {
		return nil, err
	}
	if len(inWindow) == 0 {
		s.metrics.Computed(q.Window, "no_data", laeq.Result{})
		return nil, laeq.ErrNoData
	}
	res, err := laeq.Summarize(laeq.Levels(inWindow), q.Window)
	if err != nil {
		s.metrics.Computed(q.Window, "error", laeq.Result{})
		return nil, err
	}
	res.Rejected = rejected
	s.metrics.Computed(q.Window, "ok", res)

	report := models.NewReport(res, cell, span)
	report.Date = date
	report.ComputedAt = s.clock().UTC()
	chart := laeq.Downsample(laeq.ChartFromSamples(inWindow), s.maxPoints)
	report.Chart = &chart

	if q.Window == laeq.Daily24h {
		buckets, err := laeq.HourlyTrend(series, q)
		if err != nil {
			return nil, err
		}
		report.TrendData = models.TrendFromBuckets(buckets)
	}

	if s.view != nil {
		if v, err := s.view.UpstreamLAeq(ctx, cell.ID); err == nil && !math.IsNaN(v) {
			rounded := laeq.Round1(v)
			report.UpstreamLAeq = &rounded
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			s.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	s.publish(ctx, report)

	s.logger.Debug("laeq computed",
		zap.String("cell", cell.ID),
		zap.String("window", string(q.Window)),
		zap.Int("count", res.Count),
		zap.Int("rejected", rejected),
	)
	return report, nil
}

// ChartRequest asks for the plot of a location's raw samples between two instants.
type ChartRequest struct {
	Lat       float64
	Lng       float64
	From      time.Time
	To        time.Time
	MaxPoints int
}

// Chart returns the downsampled samples of the cell at the request point.
func (s *LAeqService) Chart(ctx context.Context, req ChartRequest) (laeq.ChartSeries, error) {
	if err := validatePoint(req.Lat, req.Lng); err != nil {
		return laeq.ChartSeries{}, err
	}
	if req.From.IsZero() || req.To.IsZero() || !req.From.Before(req.To) {
		return laeq.ChartSeries{}, fmt.Errorf("%w: from must be before to", models.ErrInvalidRequest)
	}
	maxPoints := req.MaxPoints
	if maxPoints > s.maxPoints*10 {
		return laeq.ChartSeries{}, fmt.Errorf("%w: maxPoints above %d", models.ErrInvalidRequest, s.maxPoints*10)
	}
	if maxPoints <= 0 {
		maxPoints = s.maxPoints
	}

	cell, err := s.cells.ResolveCell(ctx, req.Lat, req.Lng)
	if err != nil {
		return laeq.ChartSeries{}, s.upstream("cells", err)
	}
	series, err := s.source.Samples(ctx, cell, req.From, req.To)
	if err != nil {
		return laeq.ChartSeries{}, s.upstream("samples", err)
	}

	inRange := make([]laeq.Sample, 0, len(series))
	for _, smp := range series {
		if !smp.Time.Before(req.From) && smp.Time.Before(req.To) {
			inRange = append(inRange, smp)
		}
	}
	chart := laeq.ChartFromSamples(inRange)
	if chart.Len() == 0 {
		return laeq.ChartSeries{}, laeq.ErrNoData
	}
	return laeq.Downsample(chart, maxPoints), nil
}

func (s *LAeqService) query(window, date string) (laeq.Query, error) {
	w, err := laeq.ParseWindow(window)
	if err != nil {
		return laeq.Query{}, err
	}
	q := laeq.Query{Window: w, Now: s.clock(), Location: s.loc}
	if w != laeq.Hourly1h {
		if strings.TrimSpace(date) == "" {
			return laeq.Query{}, fmt.Errorf("%w: %s needs a date", laeq.ErrInvalidWindow, w)
		}
		d, err := laeq.ParseDate(date, s.loc)
		if err != nil {
			return laeq.Query{}, err
		}
		q.Date = d
	}
	return q, nil
}

func (s *LAeqService) upstream(stage string, err error) error {
	if errors.Is(err, models.ErrCellNotFound) {
		return err
	}
	var upErr *models.UpstreamError
	if errors.As(err, &upErr) {
		s.metrics.UpstreamError(upErr.Service)
		return err
	}
	s.metrics.UpstreamError(stage)
	return &models.UpstreamError{Service: stage, Code: models.CodeConnection, Err: err}
}

func (s *LAeqService) publish(ctx context.Context, report *models.Report) {
	if s.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.publisher.Publish(ctx, report); err != nil {
			s.logger.Warn("report publish failed", zap.String("cell", report.Cell.ID), zap.Error(err))
		}
	}()
}

func validatePoint(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: lat/lng out of range", models.ErrInvalidRequest)
	}
	return nil
}
