package laeq

// HourBucket is the LAeq of the samples sharing one local clock hour.
type HourBucket struct {
	Hour   int     `json:"hour"`
	LAeqDb float64 `json:"laeq"`
	Count  int     `json:"count"`
}

// HourlyTrend splits the window of q into local clock hours and reduces each one. Buckets
// appear in time order and hours without samples are left out.
func HourlyTrend(series Series, q Query) ([]HourBucket, error) {
	in, _, err := Partition(series, q)
	if err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, ErrNoData
	}

	var (
		order  []int
		byHour = make(map[int][]float64)
	)
	for _, s := range in {
		h := s.Time.In(q.Location).Hour()
		if _, seen := byHour[h]; !seen {
			order = append(order, h)
		}
		byHour[h] = append(byHour[h], s.LevelDb)
	}

	out := make([]HourBucket, 0, len(order))
	for _, h := range order {
		leq, err := Reduce(byHour[h])
		if err != nil {
			return nil, err
		}
		out = append(out, HourBucket{Hour: h, LAeqDb: leq, Count: len(byHour[h])})
	}
	return out, nil
}
