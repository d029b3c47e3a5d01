// Package views defines the aggregation views over enriched sessions and the
// engine that evaluates them.
//
// A view is a map function emitting (key, value) pairs per session plus a
// reduce/rereduce pair from the aggregate package. Every base view also has
// one segmented variant per catalog segmentation, named
// "<view>_<segmentation>", whose key carries the session's category.
package views

import (
	"errors"
	"fmt"
	"slices"

	"kpi-report-service/internal/reports/core/aggregate"
	"kpi-report-service/internal/reports/core/ports"
	"kpi-report-service/internal/sessions/core/domain"
)

// Base view names.
const (
	Assertions      = "assertions"
	Sites           = "sites"
	NewUserSuccess  = "new_user_success"
	NewUser         = "new_user"
	PasswordReset   = "password_reset"
	GeneralProgress = "general_progress"
	NewUserTime     = "new_user_time"
	PasswordTime    = "password_reset_time"
	NewUserBounce   = "new_user_bounce"
)

var ErrUnknownView = errors.New("unknown view")

// View is one named aggregation. Implementations are immutable and safe for
// concurrent use.
type View interface {
	Name() string
	// Flow is the flow a session must take part in to emit anything, or
	// empty when every session may emit.
	Flow() string
	newAccumulator(batch int) accumulator
}

// emitFunc receives the date and value of one emitted row. The key category
// is filled in by the view.
type emitFunc[V any] func(date string, v V)

type view[V, P any] struct {
	name         string
	flow         string
	segmentation string
	mapFn        func(s domain.EnrichedSession, emit emitFunc[V])
	alg          aggregate.Algebra[V, P]
}

func (v *view[V, P]) Name() string { return v.name }
func (v *view[V, P]) Flow() string { return v.flow }

func (v *view[V, P]) key(s domain.EnrichedSession, date string) ports.Key {
	if v.segmentation == "" {
		return ports.Key{Date: date}
	}
	cat, ok := s.Segments[v.segmentation]
	if !ok || cat == "" {
		// sessions stored before the segmentation existed
		cat = domain.OtherCategory
	}
	return ports.Key{Date: date, Category: cat}
}

func (v *view[V, P]) newAccumulator(batch int) accumulator {
	return newGroupFold(v, batch)
}

// segmented returns a copy of v keyed by the named segmentation.
func (v *view[V, P]) segmented(seg string) *view[V, P] {
	c := *v
	c.name = v.name + "_" + seg
	c.segmentation = seg
	return &c
}

// Registry holds every view built from one catalog.
type Registry struct {
	views map[string]View
}

// NewRegistry builds the base views and their segmented variants.
func NewRegistry(c *domain.Catalog) (*Registry, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil catalog", domain.ErrInvalidCatalog)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{views: map[string]View{}}
	add := func(vs ...View) {
		for _, v := range vs {
			r.views[v.Name()] = v
		}
	}
	segs := c.SegmentationNames()

	// ---- counters ----
	add(withSegments(&view[int, aggregate.Count]{
		name: Assertions,
		mapFn: func(s domain.EnrichedSession, emit emitFunc[int]) {
			emit(s.Date, 1)
		},
		alg: aggregate.CountAlgebra[int](),
	}, segs)...)

	add(withSegments(&view[float64, aggregate.Stats]{
		name: Sites,
		mapFn: func(s domain.EnrichedSession, emit emitFunc[float64]) {
			emit(s.Date, float64(s.SitesLoggedIn))
		},
		alg: aggregate.StatsAlgebra(),
	}, segs)...)

	success := c.SuccessStep
	add(withSegments(&view[float64, aggregate.Stats]{
		name: NewUserSuccess,
		flow: domain.FlowNewUser,
		mapFn: func(s domain.EnrichedSession, emit emitFunc[float64]) {
			steps := s.FlowSteps(domain.FlowNewUser)
			if len(steps) == 0 {
				return
			}
			v := 0.0
			if steps[len(steps)-1] == success {
				v = 1
			}
			emit(s.Date, v)
		},
		alg: aggregate.StatsAlgebra(),
	}, segs)...)

	// ---- step funnels ----
	for _, flow := range []string{domain.FlowNewUser, domain.FlowPasswordReset, domain.FlowGeneralProgress} {
		if _, ok := c.Flow(flow); !ok {
			continue
		}
		add(withSegments(stepCountsView(flow, flow), segs)...)
	}
	if _, ok := c.Flow(domain.FlowNewUser); ok {
		add(withSegments(stepFractionsView(NewUserTime, domain.FlowNewUser), segs)...)
	}
	if _, ok := c.Flow(domain.FlowPasswordReset); ok {
		add(withSegments(stepFractionsView(PasswordTime, domain.FlowPasswordReset), segs)...)
	}

	// ---- outcomes ----
	add(withSegments(&view[aggregate.Outcomes, aggregate.Outcomes]{
		name: NewUserBounce,
		mapFn: func(s domain.EnrichedSession, emit emitFunc[aggregate.Outcomes]) {
			if s.Outcome == "" {
				return
			}
			emit(s.Date, aggregate.OneHot(s.Outcome))
		},
		alg: aggregate.OutcomesAlgebra(),
	}, segs)...)

	return r, nil
}

func stepCountsView(name, flow string) *view[aggregate.StepCounts, aggregate.StepCounts] {
	return &view[aggregate.StepCounts, aggregate.StepCounts]{
		name: name,
		flow: flow,
		mapFn: func(s domain.EnrichedSession, emit emitFunc[aggregate.StepCounts]) {
			if steps := s.FlowSteps(flow); len(steps) > 0 {
				emit(s.Date, aggregate.OneEach(steps))
			}
		},
		alg: aggregate.StepCountsAlgebra(),
	}
}

func stepFractionsView(name, flow string) *view[[]string, aggregate.StepFractions] {
	return &view[[]string, aggregate.StepFractions]{
		name: name,
		flow: flow,
		mapFn: func(s domain.EnrichedSession, emit emitFunc[[]string]) {
			if steps := s.FlowSteps(flow); len(steps) > 0 {
				emit(s.Date, steps)
			}
		},
		alg: aggregate.FractionsAlgebra(),
	}
}

func withSegments[V, P any](base *view[V, P], segs []string) []View {
	out := []View{base}
	for _, seg := range segs {
		out = append(out, base.segmented(seg))
	}
	return out
}

// View looks a view up by name.
func (r *Registry) View(name string) (View, error) {
	v, ok := r.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return v, nil
}

// Names lists the registered views in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.views))
	for n := range r.views {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
