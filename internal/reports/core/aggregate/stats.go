package aggregate

import "math"

// Stats is the running summary of a numeric group. The mean is derived on
// demand and never stored.
type Stats struct {
	Sum   float64 `json:"sum"`
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func NewStats(values []float64) Stats {
	var s Stats
	for _, v := range values {
		s = s.Merge(Stats{Sum: v, Count: 1, Min: v, Max: v})
	}
	return s
}

func (s Stats) Merge(o Stats) Stats {
	if o.Count == 0 {
		return s
	}
	if s.Count == 0 {
		return o
	}
	return Stats{
		Sum:   s.Sum + o.Sum,
		Count: s.Count + o.Count,
		Min:   math.Min(s.Min, o.Min),
		Max:   math.Max(s.Max, o.Max),
	}
}

// Mean returns Sum/Count; ok is false for an empty group.
func (s Stats) Mean() (mean float64, ok bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / float64(s.Count), true
}

func StatsAlgebra() Algebra[float64, Stats] {
	return Algebra[float64, Stats]{
		Reduce:   NewStats,
		Rereduce: rereduceWith(func() Stats { return Stats{} }, Stats.Merge),
	}
}
