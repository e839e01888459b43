package laeq

// Partition returns the samples of series that fall in q's window, in time order. Non-finite
// levels inside the window are dropped and reported as rejected. An empty result is not an
// error here; Compute turns it into ErrNoData.
func Partition(series Series, q Query) ([]Sample, int, error) {
	span, err := q.Span()
	if err != nil {
		return nil, 0, err
	}

	var (
		out      []Sample
		rejected int
	)
	for _, s := range series.Sorted() {
		if !span.Contains(s.Time) {
			continue
		}
		if !finite(s.LevelDb) {
			rejected++
			continue
		}
		out = append(out, s)
	}
	return out, rejected, nil
}
