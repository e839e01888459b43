package laeq

import (
	"math"
	"sort"
	"time"
)

// Sample is one instantaneous A-weighted sound level reading.
type Sample struct {
	Time    time.Time `json:"time"`
	LevelDb float64   `json:"noiseLevel"`
}

// Series holds the samples of one cell. Order is not guaranteed and duplicates are kept.
type Series []Sample

// Sorted returns a copy ordered by time. Equal timestamps keep their input order.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
