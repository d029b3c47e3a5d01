package aggregate

import "kpi-report-service/internal/sessions/core/domain"

// Outcomes counts observed sessions per funnel outcome.
type Outcomes struct {
	Assertion int64 `json:"assertion"`
	Bounce    int64 `json:"bounce"`
	Fail      int64 `json:"fail"`
	Fallback  int64 `json:"fallback"`
	IDP       int64 `json:"idp"`
}

// OneHot returns the vector with a single 1 at outcome. Unknown outcomes
// give the zero vector.
func OneHot(outcome string) Outcomes {
	switch outcome {
	case domain.OutcomeAssertion:
		return Outcomes{Assertion: 1}
	case domain.OutcomeBounce:
		return Outcomes{Bounce: 1}
	case domain.OutcomeFail:
		return Outcomes{Fail: 1}
	case domain.OutcomeFallback:
		return Outcomes{Fallback: 1}
	case domain.OutcomeIDP:
		return Outcomes{IDP: 1}
	default:
		return Outcomes{}
	}
}

func (o Outcomes) Merge(p Outcomes) Outcomes {
	return Outcomes{
		Assertion: o.Assertion + p.Assertion,
		Bounce:    o.Bounce + p.Bounce,
		Fail:      o.Fail + p.Fail,
		Fallback:  o.Fallback + p.Fallback,
		IDP:       o.IDP + p.IDP,
	}
}

// Total is the number of observed sessions.
func (o Outcomes) Total() int64 {
	return o.Assertion + o.Bounce + o.Fail + o.Fallback + o.IDP
}

func OutcomesAlgebra() Algebra[Outcomes, Outcomes] {
	merge := rereduceWith(func() Outcomes { return Outcomes{} }, Outcomes.Merge)
	return Algebra[Outcomes, Outcomes]{
		Reduce:   merge,
		Rereduce: merge,
	}
}
