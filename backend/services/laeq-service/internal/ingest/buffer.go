package ingest

import (
	"sort"
	"sync"
	"time"

	"noisemap/backend/libs/laeq"
)

// Buffer keeps recent live samples per cell, up to horizon old.
type Buffer struct {
	mu      sync.RWMutex
	horizon time.Duration
	cells   map[string]laeq.Series
	now     func() time.Time
}

// NewBuffer returns an empty buffer.
func NewBuffer(horizon time.Duration) *Buffer {
	return &Buffer{horizon: horizon, cells: make(map[string]laeq.Series), now: time.Now}
}

// Add records s for cellID. Samples already older than the horizon are ignored.
func (b *Buffer) Add(cellID string, s laeq.Sample) bool {
	cutoff := b.now().Add(-b.horizon)
	if s.Time.Before(cutoff) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	series := append(b.cells[cellID], s)
	if n := len(series); n > 1 && series[n-1].Time.Before(series[n-2].Time) {
		sort.SliceStable(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	}
	b.cells[cellID] = dropBefore(series, cutoff)
	return true
}

// Series returns a copy of the samples held for cellID.
func (b *Buffer) Series(cellID string) laeq.Series {
	b.mu.RLock()
	defer b.mu.RUnlock()
	src := b.cells[cellID]
	out := make(laeq.Series, len(src))
	copy(out, src)
	return out
}

// Prune drops samples older than the horizon and forgets empty cells.
func (b *Buffer) Prune() {
	cutoff := b.now().Add(-b.horizon)
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, series := range b.cells {
		series = dropBefore(series, cutoff)
		if len(series) == 0 {
			delete(b.cells, id)
			continue
		}
		b.cells[id] = series
	}
}

// Len returns the number of cells with samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cells)
}

func dropBefore(series laeq.Series, cutoff time.Time) laeq.Series {
	i := sort.Search(len(series), func(i int) bool { return !series[i].Time.Before(cutoff) })
	if i == 0 {
		return series
	}
	return append(series[:0:0], series[i:]...)
}
