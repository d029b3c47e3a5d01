package aggregate

// StepFractions holds, for a group of Total sessions, the fraction of them
// that completed each step.
type StepFractions struct {
	Steps map[string]float64 `json:"steps"`
	Total int64              `json:"total"`
}

// ReduceFractions turns the completed-step lists of a group of sessions
// into per-step completion fractions.
func ReduceFractions(sessions [][]string) StepFractions {
	if len(sessions) == 0 {
		return StepFractions{Steps: map[string]float64{}}
	}
	counts := map[string]int64{}
	for _, steps := range sessions {
		for _, s := range steps {
			counts[s]++
		}
	}
	total := int64(len(sessions))
	out := StepFractions{Steps: make(map[string]float64, len(counts)), Total: total}
	for s, n := range counts {
		out.Steps[s] = float64(n) / float64(total)
	}
	return out
}

// Merge weights each side's fractions by its session total. A side with a
// zero total contributes nothing.
func (f StepFractions) Merge(o StepFractions) StepFractions {
	if o.Total == 0 {
		return f.clone()
	}
	if f.Total == 0 {
		return o.clone()
	}

	total := f.Total + o.Total
	out := StepFractions{Steps: make(map[string]float64, max(len(f.Steps), len(o.Steps))), Total: total}
	for s := range f.Steps {
		out.Steps[s] = 0
	}
	for s := range o.Steps {
		out.Steps[s] = 0
	}
	for s := range out.Steps {
		completed := f.Steps[s]*float64(f.Total) + o.Steps[s]*float64(o.Total)
		out.Steps[s] = completed / float64(total)
	}
	return out
}

// Fraction returns the completion fraction of step, 0 if absent.
func (f StepFractions) Fraction(step string) float64 {
	return f.Steps[step]
}

func (f StepFractions) clone() StepFractions {
	out := StepFractions{Steps: make(map[string]float64, len(f.Steps)), Total: f.Total}
	for s, v := range f.Steps {
		out.Steps[s] = v
	}
	return out
}

func FractionsAlgebra() Algebra[[]string, StepFractions] {
	return Algebra[[]string, StepFractions]{
		Reduce:   ReduceFractions,
		Rereduce: rereduceWith(func() StepFractions { return StepFractions{Steps: map[string]float64{}} }, StepFractions.Merge),
	}
}
