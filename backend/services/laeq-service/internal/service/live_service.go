package service

import (
	"time"

	"noisemap/backend/libs/laeq"
)

// LiveSource holds recently received samples per cell.
type LiveSource interface {
	Series(cellID string) laeq.Series
}

// LiveService computes the trailing-hour LAeq from live samples.
type LiveService struct {
	source LiveSource
	loc    *time.Location
	clock  func() time.Time
}

// NewLiveService returns service.
func NewLiveService(source LiveSource, loc *time.Location, clock func() time.Time) *LiveService {
	if clock == nil {
		clock = time.Now
	}
	return &LiveService{source: source, loc: loc, clock: clock}
}

// Current returns the Hourly1h result for cellID as of now.
func (l *LiveService) Current(cellID string) (laeq.Result, error) {
	return laeq.Compute(l.source.Series(cellID), laeq.Query{
		Window:   laeq.Hourly1h,
		Now:      l.clock(),
		Location: l.loc,
	})
}
