package classify

import (
	"slices"

	"kpi-report-service/internal/sessions/core/domain"
)

// Outcome classifies the terminal state of a session in the general
// progress flow. It returns "" for sessions where the dialog was never
// shown. Branches are checked in order and the first match wins.
func Outcome(steps map[string][]string, s domain.SessionData, rules domain.OutcomeRules) string {
	progress := steps[rules.ProgressFlow]
	if !slices.Contains(progress, rules.ShownStep) {
		return ""
	}
	if !slices.Contains(progress, rules.EngagedStep) {
		return domain.OutcomeBounce
	}

	events := s.EventNames()
	if _, ok := events[rules.AssertionEvent]; !ok {
		return domain.OutcomeFail
	}
	if len(steps[rules.FallbackFlow]) > 0 {
		return domain.OutcomeFallback
	}
	if _, ok := events[rules.ProvisioningEvent]; ok && s.NewAccount {
		return domain.OutcomeIDP
	}
	return domain.OutcomeAssertion
}
