package aggregate

// StepCounts maps a step label to how many sessions reached it. A missing
// label counts as zero.
type StepCounts map[string]int64

// OneEach returns a StepCounts with 1 for every label.
func OneEach(labels []string) StepCounts {
	c := make(StepCounts, len(labels))
	for _, l := range labels {
		c[l] = 1
	}
	return c
}

func (c StepCounts) Merge(o StepCounts) StepCounts {
	out := make(StepCounts, max(len(c), len(o)))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range o {
		out[k] += v
	}
	return out
}

// Get returns the count for label, 0 if absent.
func (c StepCounts) Get(label string) int64 {
	return c[label]
}

// Accumulate sums a sequence of label→occurrence maps in a single pass.
func Accumulate(values []StepCounts) StepCounts {
	out := StepCounts{}
	for _, v := range values {
		for k, n := range v {
			out[k] += n
		}
	}
	return out
}

func StepCountsAlgebra() Algebra[StepCounts, StepCounts] {
	return Algebra[StepCounts, StepCounts]{
		Reduce:   Accumulate,
		Rereduce: Accumulate,
	}
}
