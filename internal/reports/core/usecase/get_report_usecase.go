package usecase

import (
	"context"
	"errors"
	"fmt"

	"kpi-report-service/internal/reports/core/aggregate"
	"kpi-report-service/internal/reports/core/domain"
	"kpi-report-service/internal/reports/core/ports"
	"kpi-report-service/internal/reports/core/views"
	"kpi-report-service/internal/sessions/core/classify"
	sessiondomain "kpi-report-service/internal/sessions/core/domain"
)

var (
	ErrUnknownFamily           = errors.New("unknown report family")
	ErrUnknownSegmentation     = errors.New("unknown segmentation")
	ErrSegmentationUnsupported = errors.New("report family does not support segmentation")
	ErrInvalidTimeRange        = errors.New("invalid time range")
	ErrUnexpectedShape         = errors.New("unexpected view result shape")
)

// Report families.
const (
	FamilyAssertions          = "assertions"
	FamilySites               = "sites"
	FamilyNewUserSuccess      = "new_user_success"
	FamilyNewUser             = "new_user"
	FamilyNewUserPerDay       = "new_user_per_day"
	FamilyNewUserTime         = "new_user_time"
	FamilyPasswordReset       = "password_reset"
	FamilyGeneralProgressTime = "general_progress_time"
	FamilyBounceRate          = "bounce_rate"
	FamilyNewUserBounce       = "new_user_bounce"
)

// ReportInput selects a report. Start and End are seconds since epoch; nil
// leaves that side of the range open.
type ReportInput struct {
	Family       string
	Segmentation string
	Start        *int64
	End          *int64
}

type GetReportUseCase struct {
	views   ports.ViewQuerierPort
	catalog *sessiondomain.Catalog
}

func NewGetReportUseCase(querier ports.ViewQuerierPort, catalog *sessiondomain.Catalog) *GetReportUseCase {
	return &GetReportUseCase{views: querier, catalog: catalog}
}

// Families lists the supported report families.
func Families() []string {
	return []string{
		FamilyAssertions, FamilySites, FamilyNewUserSuccess, FamilyNewUser, FamilyNewUserPerDay,
		FamilyNewUserTime, FamilyPasswordReset, FamilyGeneralProgressTime, FamilyBounceRate, FamilyNewUserBounce,
	}
}

// Segmentations lists the catalog's segmentation names in catalog order.
func (uc *GetReportUseCase) Segmentations() []string {
	return uc.catalog.SegmentationNames()
}

func (uc *GetReportUseCase) Execute(ctx context.Context, in ReportInput) (*domain.Report, error) {
	fam, ok := uc.family(in.Family)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, in.Family)
	}

	if in.Segmentation != "" {
		if _, ok := uc.catalog.Segmentation(in.Segmentation); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSegmentation, in.Segmentation)
		}
		if !fam.segmentable {
			return nil, fmt.Errorf("%w: %s", ErrSegmentationUnsupported, in.Family)
		}
	}

	if in.Start != nil && in.End != nil && *in.Start > *in.End {
		return nil, ErrInvalidTimeRange
	}
	var r ports.KeyRange
	if in.Start != nil {
		r.StartDate = classify.DateString(*in.Start)
	}
	if in.End != nil {
		r.EndDate = classify.DateString(*in.End)
	}

	view := fam.view
	if in.Segmentation != "" {
		view += "_" + in.Segmentation
	}

	rep, err := fam.build(ctx, query{view: view, r: r, segmented: in.Segmentation != ""})
	if err != nil {
		return nil, err
	}
	rep.Family = in.Family
	rep.Segmentation = in.Segmentation
	return rep, nil
}

type query struct {
	view      string
	r         ports.KeyRange
	segmented bool
}

type family struct {
	view        string
	segmentable bool
	build       func(ctx context.Context, q query) (*domain.Report, error)
}

func (uc *GetReportUseCase) family(name string) (family, bool) {
	rules := uc.catalog.Outcomes
	switch name {
	case FamilyAssertions:
		return family{views.Assertions, true, uc.series(func(v any) (*float64, error) {
			c, ok := v.(aggregate.Count)
			if !ok {
				return nil, shapeError(v)
			}
			return domain.Value(float64(c)), nil
		})}, true
	case FamilySites:
		return family{views.Sites, true, uc.series(mean)}, true
	case FamilyNewUserSuccess:
		return family{views.NewUserSuccess, true, uc.series(mean)}, true
	case FamilyNewUser:
		return family{views.NewUser, true, uc.totals}, true
	case FamilyNewUserPerDay:
		return family{views.NewUserBounce, true, uc.series(func(v any) (*float64, error) {
			o, ok := v.(aggregate.Outcomes)
			if !ok {
				return nil, shapeError(v)
			}
			return domain.Value(float64(o.IDP + o.Fallback)), nil
		})}, true
	case FamilyNewUserTime:
		return family{views.NewUser, false, uc.funnel(sessiondomain.FlowNewUser, countsFunnel)}, true
	case FamilyPasswordReset:
		return family{views.PasswordTime, false, uc.funnel(sessiondomain.FlowPasswordReset, fractionsFunnel)}, true
	case FamilyGeneralProgressTime:
		return family{views.GeneralProgress, false, uc.funnel(sessiondomain.FlowGeneralProgress, countsFunnel)}, true
	case FamilyBounceRate:
		return family{views.GeneralProgress, true, uc.series(func(v any) (*float64, error) {
			c, ok := v.(aggregate.StepCounts)
			if !ok {
				return nil, shapeError(v)
			}
			shown := c.Get(rules.ShownStep)
			if shown == 0 {
				return nil, nil
			}
			return domain.Value(1 - float64(c.Get(rules.EngagedStep))/float64(shown)), nil
		})}, true
	case FamilyNewUserBounce:
		return family{views.NewUserBounce, true, uc.series(func(v any) (*float64, error) {
			o, ok := v.(aggregate.Outcomes)
			if !ok {
				return nil, shapeError(v)
			}
			seen := o.Bounce + o.IDP + o.Fallback + o.Fail
			if seen == 0 {
				return nil, nil
			}
			return domain.Value(float64(o.Bounce) / float64(seen)), nil
		})}, true
	}
	return family{}, false
}

func shapeError(v any) error {
	return fmt.Errorf("%w: %T", ErrUnexpectedShape, v)
}

func mean(v any) (*float64, error) {
	s, ok := v.(aggregate.Stats)
	if !ok {
		return nil, shapeError(v)
	}
	m, ok := s.Mean()
	if !ok {
		return nil, nil
	}
	return domain.Value(m), nil
}

// ---- series ----

// series builds one date-ordered series per category, or a single "Total"
// series when unsegmented.
func (uc *GetReportUseCase) series(value func(any) (*float64, error)) func(context.Context, query) (*domain.Report, error) {
	return func(ctx context.Context, q query) (*domain.Report, error) {
		rows, err := uc.views.QueryView(ctx, q.view, q.r, true)
		if err != nil {
			return nil, err
		}

		out := map[string][]domain.Point{}
		if !q.segmented {
			out[domain.TotalSeries] = []domain.Point{}
		}
		for _, row := range rows {
			v, err := value(row.Value)
			if err != nil {
				return nil, err
			}
			name := domain.TotalSeries
			if q.segmented {
				name = row.Key.Category
			}
			out[name] = append(out[name], domain.Point{Category: row.Key.Date, Value: v})
		}
		return &domain.Report{Kind: domain.KindSeries, Series: out}, nil
	}
}

// ---- totals ----

// totals sums step counts over the whole range, per segment when segmented.
func (uc *GetReportUseCase) totals(ctx context.Context, q query) (*domain.Report, error) {
	rows, err := uc.views.QueryView(ctx, q.view, q.r, q.segmented)
	if err != nil {
		return nil, err
	}
	if !q.segmented && len(rows) > 1 {
		return nil, fmt.Errorf("%w: %d rows for an ungrouped query", ErrUnexpectedShape, len(rows))
	}

	out := map[string]map[string]int64{}
	if !q.segmented {
		out[domain.TotalSeries] = map[string]int64{}
	}
	for _, row := range rows {
		c, ok := row.Value.(aggregate.StepCounts)
		if !ok {
			return nil, shapeError(row.Value)
		}
		name := domain.TotalSeries
		if q.segmented {
			name = row.Key.Category
		}
		if out[name] == nil {
			out[name] = map[string]int64{}
		}
		for step, n := range c {
			out[name][step] += n
		}
	}
	return &domain.Report{Kind: domain.KindTotals, Totals: out}, nil
}

// ---- funnels ----

// cellFunc computes the funnel value of every step for one date.
type cellFunc func(v any, steps []string) (map[string]*float64, error)

// countsFunnel divides each step count by the first step's count.
func countsFunnel(v any, steps []string) (map[string]*float64, error) {
	c, ok := v.(aggregate.StepCounts)
	if !ok {
		return nil, shapeError(v)
	}
	out := make(map[string]*float64, len(steps))
	total := c.Get(steps[0])
	for _, s := range steps {
		if total == 0 {
			out[s] = nil
			continue
		}
		out[s] = domain.Value(float64(c.Get(s)) / float64(total))
	}
	return out, nil
}

// fractionsFunnel reports the stored completion fractions.
func fractionsFunnel(v any, steps []string) (map[string]*float64, error) {
	f, ok := v.(aggregate.StepFractions)
	if !ok {
		return nil, shapeError(v)
	}
	out := make(map[string]*float64, len(steps))
	for _, s := range steps {
		if f.Total == 0 {
			out[s] = nil
			continue
		}
		out[s] = domain.Value(f.Fraction(s))
	}
	return out, nil
}

// funnel pivots per-date rows of a flow view into step -> date -> value.
func (uc *GetReportUseCase) funnel(flowName string, cells cellFunc) func(context.Context, query) (*domain.Report, error) {
	return func(ctx context.Context, q query) (*domain.Report, error) {
		flow, ok := uc.catalog.Flow(flowName)
		if !ok {
			return nil, fmt.Errorf("%w: catalog has no %s flow", ErrUnknownFamily, flowName)
		}
		steps := flow.StepLabels()

		rows, err := uc.views.QueryView(ctx, q.view, q.r, true)
		if err != nil {
			return nil, err
		}

		out := make(map[string]map[string]*float64, len(steps))
		for _, s := range steps {
			out[s] = map[string]*float64{}
		}
		for _, row := range rows {
			byStep, err := cells(row.Value, steps)
			if err != nil {
				return nil, err
			}
			for s, v := range byStep {
				out[s][row.Key.Date] = v
			}
		}
		return &domain.Report{Kind: domain.KindFunnel, Funnel: out}, nil
	}
}
