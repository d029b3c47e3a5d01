package views

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpi-report-service/internal/reports/core/aggregate"
	"kpi-report-service/internal/reports/core/ports"
	"kpi-report-service/internal/sessions/adapters/memory"
	"kpi-report-service/internal/sessions/core/domain"
)

var (
	newUserSteps  = []string{"1 - Password set", "2 - Email verified", "3 - Logged in"}
	progressSteps = []string{"1 - Dialog shown", "2 - User engaged", "3 - Logged in"}
	resetSteps    = []string{"1 - Reset requested", "2 - Password set"}
	dates         = []string{"2012-06-01", "2012-06-02", "2012-06-03", "2012-06-04"}
	browsers      = []string{"Firefox", "Chrome", domain.OtherCategory}
	outcomes      = []string{"", domain.OutcomeAssertion, domain.OutcomeBounce, domain.OutcomeFail, domain.OutcomeFallback, domain.OutcomeIDP}
)

func testCatalog() *domain.Catalog {
	steps := func(labels []string) []domain.Step {
		out := make([]domain.Step, len(labels))
		for i, l := range labels {
			out[i] = domain.Step{Label: l, Event: fmt.Sprintf("event.%d", i)}
		}
		return out
	}
	return &domain.Catalog{
		Flows: []domain.Flow{
			{Name: domain.FlowNewUser, Steps: steps(newUserSteps)},
			{Name: domain.FlowGeneralProgress, Steps: steps(progressSteps)},
			{Name: domain.FlowPasswordReset, Steps: steps(resetSteps)},
		},
		Segmentations: []domain.Segmentation{
			{Name: "Browser", Values: []string{"Firefox", "Chrome"}},
			{Name: "OS", Values: []string{"Linux"}},
		},
		SuccessStep: "3 - Logged in",
	}
}

func randomSessions(r *rand.Rand, n int) []domain.EnrichedSession {
	out := make([]domain.EnrichedSession, n)
	for i := range out {
		out[i] = domain.EnrichedSession{
			ID:   fmt.Sprintf("s%04d", i),
			Date: dates[r.IntN(len(dates))],
			Steps: map[string][]string{
				domain.FlowNewUser:         newUserSteps[:r.IntN(len(newUserSteps)+1)],
				domain.FlowGeneralProgress: progressSteps[:r.IntN(len(progressSteps)+1)],
				domain.FlowPasswordReset:   resetSteps[:r.IntN(len(resetSteps)+1)],
			},
			Segments:      map[string]string{"Browser": browsers[r.IntN(len(browsers))], "OS": "Linux"},
			SitesLoggedIn: int64(r.IntN(6)),
			Outcome:       outcomes[r.IntN(len(outcomes))],
		}
	}
	return out
}

func newTestEngine(t *testing.T, sessions []domain.EnrichedSession, opts ...EngineOption) *Engine {
	t.Helper()
	store := memory.NewStore()
	for _, s := range sessions {
		require.NoError(t, store.PutSession(context.Background(), s.ID, s))
	}
	reg, err := NewRegistry(testCatalog())
	require.NoError(t, err)
	return NewEngine(reg, store, opts...)
}

// assertSameRows compares rows exactly except for step fractions, whose
// weighted merges may round differently depending on merge order.
func assertSameRows(t *testing.T, want, got []ports.Row, msg string) {
	t.Helper()
	require.Len(t, got, len(want), msg)
	for i := range want {
		assert.Equal(t, want[i].Key, got[i].Key, msg)
		wf, ok := want[i].Value.(aggregate.StepFractions)
		if !ok {
			assert.Equal(t, want[i].Value, got[i].Value, msg)
			continue
		}
		gf := got[i].Value.(aggregate.StepFractions)
		assert.Equal(t, wf.Total, gf.Total, msg)
		require.Len(t, gf.Steps, len(wf.Steps), msg)
		for step, f := range wf.Steps {
			assert.InDelta(t, f, gf.Fraction(step), 1e-9, msg)
		}
	}
}

func TestEngine_ShardCountInvariant(t *testing.T) {
	sessions := randomSessions(rand.New(rand.NewPCG(11, 12)), 400)
	ctx := context.Background()

	reference := newTestEngine(t, sessions, WithShards(1), WithBatch(1))
	variants := []*Engine{
		newTestEngine(t, sessions, WithShards(3), WithBatch(2)),
		newTestEngine(t, sessions, WithShards(8), WithBatch(7)),
		newTestEngine(t, sessions, WithShards(5), WithBatch(1000)),
	}

	ranges := []ports.KeyRange{{}, {StartDate: "2012-06-02", EndDate: "2012-06-03"}}
	for _, name := range reference.registry.Names() {
		for _, r := range ranges {
			for _, group := range []bool{true, false} {
				msg := fmt.Sprintf("%s %v group=%v", name, r, group)

				want, err := reference.QueryView(ctx, name, r, group)
				require.NoError(t, err, msg)

				for _, e := range variants {
					got, err := e.QueryView(ctx, name, r, group)
					require.NoError(t, err, msg)
					assertSameRows(t, want, got, msg)
				}
			}
		}
	}
}

func TestEngine_Assertions(t *testing.T) {
	sessions := []domain.EnrichedSession{
		{ID: "a", Date: "2012-06-01", Segments: map[string]string{"Browser": "Firefox"}},
		{ID: "b", Date: "2012-06-01", Segments: map[string]string{"Browser": "Chrome"}},
		{ID: "c", Date: "2012-06-02", Segments: map[string]string{"Browser": "Firefox"}},
		{ID: "d", Date: "2012-06-05", Segments: map[string]string{"Browser": "Firefox"}},
	}
	e := newTestEngine(t, sessions, WithShards(2))
	ctx := context.Background()

	t.Run("grouped by date", func(t *testing.T) {
		rows, err := e.QueryView(ctx, Assertions, ports.KeyRange{EndDate: "2012-06-02"}, true)

		require.NoError(t, err)
		assert.Equal(t, []ports.Row{
			{Key: ports.Key{Date: "2012-06-01"}, Value: aggregate.Count(2)},
			{Key: ports.Key{Date: "2012-06-02"}, Value: aggregate.Count(1)},
		}, rows)
	})

	t.Run("segmented keys include the category and the end date", func(t *testing.T) {
		rows, err := e.QueryView(ctx, Assertions+"_Browser", ports.KeyRange{StartDate: "2012-06-01", EndDate: "2012-06-02"}, true)

		require.NoError(t, err)
		assert.Equal(t, []ports.Row{
			{Key: ports.Key{Date: "2012-06-01", Category: "Chrome"}, Value: aggregate.Count(1)},
			{Key: ports.Key{Date: "2012-06-01", Category: "Firefox"}, Value: aggregate.Count(1)},
			{Key: ports.Key{Date: "2012-06-02", Category: "Firefox"}, Value: aggregate.Count(1)},
		}, rows)
	})

	t.Run("ungrouped collapses to one row", func(t *testing.T) {
		rows, err := e.QueryView(ctx, Assertions, ports.KeyRange{}, false)

		require.NoError(t, err)
		assert.Equal(t, []ports.Row{{Value: aggregate.Count(4)}}, rows)
	})

	t.Run("empty range yields no rows", func(t *testing.T) {
		rows, err := e.QueryView(ctx, Assertions, ports.KeyRange{StartDate: "2013-01-01"}, false)

		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestEngine_SegmentMissingFromStoredSession(t *testing.T) {
	sessions := []domain.EnrichedSession{
		{ID: "a", Date: "2012-06-01", Segments: map[string]string{"Browser": "Firefox", "OS": "Linux"}},
		{ID: "b", Date: "2012-06-01", Segments: map[string]string{"Browser": "Firefox"}},
		{ID: "c", Date: "2012-06-01"},
	}
	e := newTestEngine(t, sessions, WithShards(2))

	rows, err := e.QueryView(context.Background(), Assertions+"_OS", ports.KeyRange{}, true)

	require.NoError(t, err)
	assert.Equal(t, []ports.Row{
		{Key: ports.Key{Date: "2012-06-01", Category: "Linux"}, Value: aggregate.Count(1)},
		{Key: ports.Key{Date: "2012-06-01", Category: domain.OtherCategory}, Value: aggregate.Count(2)},
	}, rows)
}

func TestEngine_FlowViews(t *testing.T) {
	sessions := []domain.EnrichedSession{
		{ID: "a", Date: "2012-06-01", Steps: map[string][]string{domain.FlowNewUser: newUserSteps}},
		{ID: "b", Date: "2012-06-01", Steps: map[string][]string{domain.FlowNewUser: newUserSteps[:1]}},
		{ID: "c", Date: "2012-06-01", Steps: map[string][]string{domain.FlowNewUser: {}}},
		{ID: "d", Date: "2012-06-01"},
	}
	e := newTestEngine(t, sessions)
	ctx := context.Background()

	rows, err := e.QueryView(ctx, NewUser, ports.KeyRange{}, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregate.StepCounts{"1 - Password set": 2, "2 - Email verified": 1, "3 - Logged in": 1}, rows[0].Value)

	rows, err = e.QueryView(ctx, NewUserTime, ports.KeyRange{}, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	fr := rows[0].Value.(aggregate.StepFractions)
	assert.Equal(t, int64(2), fr.Total)
	assert.InDelta(t, 1.0, fr.Fraction("1 - Password set"), 1e-12)
	assert.InDelta(t, 0.5, fr.Fraction("3 - Logged in"), 1e-12)

	rows, err = e.QueryView(ctx, NewUserSuccess, ports.KeyRange{}, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	mean, ok := rows[0].Value.(aggregate.Stats).Mean()
	require.True(t, ok)
	assert.InDelta(t, 0.5, mean, 1e-12)
}

func TestEngine_UnknownView(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.QueryView(context.Background(), "nope", ports.KeyRange{}, true)

	assert.ErrorIs(t, err, ErrUnknownView)
}

type failingScanner struct{ err error }

func (f failingScanner) ScanSessions(context.Context, domain.ScanFilter, func(domain.EnrichedSession) error) error {
	return f.err
}

func TestEngine_ScanError(t *testing.T) {
	reg, err := NewRegistry(testCatalog())
	require.NoError(t, err)
	boom := errors.New("boom")
	e := NewEngine(reg, failingScanner{err: boom}, WithShards(3))

	_, err = e.QueryView(context.Background(), Sites, ports.KeyRange{}, true)

	assert.ErrorIs(t, err, boom)
}

func TestRegistry_SegmentedVariants(t *testing.T) {
	reg, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	for _, base := range []string{Assertions, Sites, NewUserSuccess, NewUser, PasswordReset, GeneralProgress, NewUserTime, PasswordTime, NewUserBounce} {
		for _, name := range []string{base, base + "_Browser", base + "_OS"} {
			_, err := reg.View(name)
			assert.NoError(t, err, name)
		}
	}
	assert.Len(t, reg.Names(), 27)
}
