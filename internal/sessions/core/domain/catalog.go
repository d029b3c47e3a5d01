package domain

import (
	"errors"
	"fmt"
	"slices"
)

// OtherCategory is the category of any segment value that is not recognized.
const OtherCategory = "Other"

// UnknownCategory is reported for segmentations whose source field is missing.
const UnknownCategory = "Unknown"

// Funnel outcomes of an observed session in the general progress flow.
const (
	OutcomeAssertion = "assertion"
	OutcomeBounce    = "bounce"
	OutcomeFail      = "fail"
	OutcomeFallback  = "fallback"
	OutcomeIDP       = "idp"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Step is one labelled stage of a flow, reached when Event fires.
type Step struct {
	Label string
	Event string
}

// Flow is a named, ordered funnel. A session belongs to the flow only when
// EntryEvent occurs in it; an empty EntryEvent admits every session.
type Flow struct {
	Name       string
	EntryEvent string
	Steps      []Step
}

func (f Flow) StepLabels() []string {
	labels := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		labels[i] = s.Label
	}
	return labels
}

// Segmentation is a categorical axis with recognized values and aliases.
type Segmentation struct {
	Name    string
	Values  []string
	Aliases map[string]string
}

func (s Segmentation) Recognizes(v string) bool {
	return slices.Contains(s.Values, v)
}

// OutcomeRules names the steps and events the funnel outcome decision tree
// looks at.
type OutcomeRules struct {
	ProgressFlow      string // flow holding the shown/engaged steps
	ShownStep         string
	EngagedStep       string
	AssertionEvent    string
	FallbackFlow      string // any completed step here means "fallback"
	ProvisioningEvent string
}

// Catalog is the immutable set of flows, segmentations and rules the
// classifier and the aggregation views are built from. It is loaded once at
// startup and shared read-only.
type Catalog struct {
	Flows         []Flow
	Segmentations []Segmentation
	Outcomes      OutcomeRules

	// SuccessStep is the new-user step that marks a successful sign-up.
	SuccessStep string
}

// Flow names the catalog uses for its built-in reports.
const (
	FlowNewUser         = "new_user"
	FlowPasswordReset   = "password_reset"
	FlowGeneralProgress = "general_progress"
)

func (c *Catalog) Flow(name string) (Flow, bool) {
	for _, f := range c.Flows {
		if f.Name == name {
			return f, true
		}
	}
	return Flow{}, false
}

func (c *Catalog) Segmentation(name string) (Segmentation, bool) {
	for _, s := range c.Segmentations {
		if s.Name == name {
			return s, true
		}
	}
	return Segmentation{}, false
}

func (c *Catalog) SegmentationNames() []string {
	names := make([]string, len(c.Segmentations))
	for i, s := range c.Segmentations {
		names[i] = s.Name
	}
	return names
}

// Validate checks the structural invariants the classifier relies on.
func (c *Catalog) Validate() error {
	seen := map[string]bool{}
	for _, f := range c.Flows {
		if f.Name == "" {
			return fmt.Errorf("%w: flow without a name", ErrInvalidCatalog)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate flow %q", ErrInvalidCatalog, f.Name)
		}
		seen[f.Name] = true
		if len(f.Steps) == 0 {
			return fmt.Errorf("%w: flow %q has no steps", ErrInvalidCatalog, f.Name)
		}
		labels := map[string]bool{}
		for _, s := range f.Steps {
			if s.Label == "" || s.Event == "" {
				return fmt.Errorf("%w: flow %q has an incomplete step", ErrInvalidCatalog, f.Name)
			}
			if labels[s.Label] {
				return fmt.Errorf("%w: flow %q repeats step %q", ErrInvalidCatalog, f.Name, s.Label)
			}
			labels[s.Label] = true
		}
	}

	segs := map[string]bool{}
	for _, s := range c.Segmentations {
		if s.Name == "" {
			return fmt.Errorf("%w: segmentation without a name", ErrInvalidCatalog)
		}
		if segs[s.Name] {
			return fmt.Errorf("%w: duplicate segmentation %q", ErrInvalidCatalog, s.Name)
		}
		segs[s.Name] = true
	}

	if c.Outcomes.ProgressFlow != "" {
		if _, ok := c.Flow(c.Outcomes.ProgressFlow); !ok {
			return fmt.Errorf("%w: outcome rules reference unknown flow %q", ErrInvalidCatalog, c.Outcomes.ProgressFlow)
		}
	}
	return nil
}
