package laeq

// Result is the full-precision outcome of one window computation.
type Result struct {
	LAeqDb   float64 `json:"laeqDb"`
	Count    int     `json:"count"`
	MinDb    float64 `json:"minDb"`
	MaxDb    float64 `json:"maxDb"`
	AvgDb    float64 `json:"avgDb"`
	Window   Window  `json:"window"`
	Rejected int     `json:"rejected,omitempty"`
}

// Summarize reduces levels and attaches the descriptive statistics.
func Summarize(levels []float64, w Window) (Result, error) {
	leq, err := Reduce(levels)
	if err != nil {
		return Result{}, err
	}

	res := Result{LAeqDb: leq, Count: len(levels), MinDb: levels[0], MaxDb: levels[0], Window: w}
	var sum float64
	for _, l := range levels {
		sum += l
		if l < res.MinDb {
			res.MinDb = l
		}
		if l > res.MaxDb {
			res.MaxDb = l
		}
	}
	res.AvgDb = sum / float64(len(levels))
	return res, nil
}

// Compute partitions series by q and summarizes what falls inside the window.
func Compute(series Series, q Query) (Result, error) {
	in, rejected, err := Partition(series, q)
	if err != nil {
		return Result{}, err
	}
	if len(in) == 0 {
		return Result{}, ErrNoData
	}

	res, err := Summarize(Levels(in), q.Window)
	if err != nil {
		return Result{}, err
	}
	res.Rejected = rejected
	return res, nil
}

// Levels extracts the level of each sample.
func Levels(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.LevelDb
	}
	return out
}
