package models

import (
	"time"

	"noisemap/backend/libs/laeq"
)

// Cell identifies the hex cell a query point falls in.
type Cell struct {
	ID      string       `json:"id"`
	Polygon [][2]float64 `json:"polygon,omitempty"`
}

// LAeqRequest is the body of POST /api/laeq.
type LAeqRequest struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Window string  `json:"type"`
	Date   string  `json:"date"`
}

// Report is the wire form of one LAeq computation. Decibel values are rounded to 0.1.
type Report struct {
	LAeq         float64           `json:"laeq"`
	TotalRecords int               `json:"totalRecords"`
	Min          float64           `json:"min"`
	Max          float64           `json:"max"`
	Avg          float64           `json:"avg"`
	Rejected     int               `json:"rejected,omitempty"`
	Type         laeq.Window       `json:"type"`
	Date         string            `json:"date,omitempty"`
	Cell         Cell              `json:"cell"`
	From         time.Time         `json:"from"`
	To           time.Time         `json:"to"`
	TrendData    []TrendPoint      `json:"trendData,omitempty"`
	Chart        *laeq.ChartSeries `json:"chart,omitempty"`
	UpstreamLAeq *float64          `json:"upstreamLaeq,omitempty"`
	ComputedAt   time.Time         `json:"computedAt"`
}

// TrendPoint is one hour of the 24h trend.
type TrendPoint struct {
	Hour  int     `json:"hour"`
	LAeq  float64 `json:"laeq"`
	Count int     `json:"count"`
}

// NewReport rounds res for presentation.
func NewReport(res laeq.Result, cell Cell, span laeq.Span) *Report {
	return &Report{
		LAeq:         laeq.Round1(res.LAeqDb),
		TotalRecords: res.Count,
		Min:          laeq.Round1(res.MinDb),
		Max:          laeq.Round1(res.MaxDb),
		Avg:          laeq.Round1(res.AvgDb),
		Rejected:     res.Rejected,
		Type:         res.Window,
		Cell:         cell,
		From:         span.Start,
		To:           span.End,
	}
}

// TrendFromBuckets rounds hourly buckets for presentation.
func TrendFromBuckets(buckets []laeq.HourBucket) []TrendPoint {
	out := make([]TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, TrendPoint{Hour: b.Hour, LAeq: laeq.Round1(b.LAeqDb), Count: b.Count})
	}
	return out
}
