package config

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"kpi-report-service/internal/sessions/core/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	SuccessStep   string                      `yaml:"success_step"`
	Flows         map[string]flowYAML         `yaml:"flows"`
	Segmentations map[string]segmentationYAML `yaml:"segmentations"`
	Aliases       map[string]string           `yaml:"aliases"`
	Outcomes      outcomesYAML                `yaml:"outcomes"`
}

type outcomesYAML struct {
	ProgressFlow      string `yaml:"progress_flow"`
	ShownStep         string `yaml:"shown_step"`
	EngagedStep       string `yaml:"engaged_step"`
	AssertionEvent    string `yaml:"assertion_event"`
	FallbackFlow      string `yaml:"fallback_flow"`
	ProvisioningEvent string `yaml:"provisioning_event"`
}

// flowYAML accepts either a bare list of steps or a mapping with
// entry_event and steps.
type flowYAML struct {
	EntryEvent string     `yaml:"entry_event"`
	Steps      []stepYAML `yaml:"steps"`
}

func (f *flowYAML) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		return n.Decode(&f.Steps)
	}
	type plain flowYAML
	return n.Decode((*plain)(f))
}

// stepYAML accepts [label, event] or {label: ..., event: ...}.
type stepYAML struct {
	Label string `yaml:"label"`
	Event string `yaml:"event"`
}

func (s *stepYAML) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var pair []string
		if err := n.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: step must be a [label, event] pair", n.Line)
		}
		s.Label, s.Event = pair[0], pair[1]
		return nil
	}
	type plain stepYAML
	return n.Decode((*plain)(s))
}

// segmentationYAML accepts a bare list of values or a mapping with values
// and segmentation-specific aliases.
type segmentationYAML struct {
	Values  []string          `yaml:"values"`
	Aliases map[string]string `yaml:"aliases"`
}

func (s *segmentationYAML) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		return n.Decode(&s.Values)
	}
	type plain segmentationYAML
	return n.Decode((*plain)(s))
}

// LoadCatalog reads the catalog at path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*domain.Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog. Flows and segmentations
// are ordered by name; global aliases apply to every segmentation and are
// overridden by segmentation-specific ones.
func ParseCatalog(data []byte) (*domain.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse catalog: %w", err)
	}

	c := &domain.Catalog{
		SuccessStep: f.SuccessStep,
		Outcomes: domain.OutcomeRules{
			ProgressFlow:      f.Outcomes.ProgressFlow,
			ShownStep:         f.Outcomes.ShownStep,
			EngagedStep:       f.Outcomes.EngagedStep,
			AssertionEvent:    f.Outcomes.AssertionEvent,
			FallbackFlow:      f.Outcomes.FallbackFlow,
			ProvisioningEvent: f.Outcomes.ProvisioningEvent,
		},
	}

	for _, name := range slices.Sorted(maps.Keys(f.Flows)) {
		fy := f.Flows[name]
		flow := domain.Flow{Name: name, EntryEvent: fy.EntryEvent, Steps: make([]domain.Step, len(fy.Steps))}
		for i, s := range fy.Steps {
			flow.Steps[i] = domain.Step{Label: s.Label, Event: s.Event}
		}
		c.Flows = append(c.Flows, flow)
	}

	for _, name := range slices.Sorted(maps.Keys(f.Segmentations)) {
		sy := f.Segmentations[name]
		aliases := make(map[string]string, len(f.Aliases)+len(sy.Aliases))
		maps.Copy(aliases, f.Aliases)
		maps.Copy(aliases, sy.Aliases)
		c.Segmentations = append(c.Segmentations, domain.Segmentation{
			Name:    name,
			Values:  sy.Values,
			Aliases: aliases,
		})
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
