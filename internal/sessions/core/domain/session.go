package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EventPair is one entry of a session's event stream: [name, payload].
type EventPair struct {
	Name    string
	Payload json.RawMessage
}

func (p *EventPair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("event pair: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("event pair: empty")
	}
	if err := json.Unmarshal(raw[0], &p.Name); err != nil {
		return fmt.Errorf("event pair name: %w", err)
	}
	if len(raw) > 1 {
		p.Payload = raw[1]
	}
	return nil
}

func (p EventPair) MarshalJSON() ([]byte, error) {
	payload := p.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return json.Marshal([]any{p.Name, payload})
}

type UserAgent struct {
	OS      string `json:"os,omitempty"`
	Browser string `json:"browser,omitempty"`
	Version string `json:"version,omitempty"`
}

type ScreenSize struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// SessionData is the body of a telemetry blob as the upstream source serves it.
type SessionData struct {
	Timestamp    *int64      `json:"timestamp,omitempty"` // milliseconds
	EventStream  []EventPair `json:"event_stream"`
	UserAgent    *UserAgent  `json:"user_agent,omitempty"`
	ScreenSize   *ScreenSize `json:"screen_size,omitempty"`
	NumberEmails *int        `json:"number_emails,omitempty"`
	Lang         string      `json:"lang,omitempty"`
	NewAccount   bool        `json:"new_account,omitempty"`

	// site counters, under every name the source has used over time
	NumberSitesLoggedIn *int64 `json:"number_sites_logged_in,omitempty"`
	SitesSignedIn       *int64 `json:"sites_signed_in,omitempty"`
	NumberSitesSignedIn *int64 `json:"number_sites_signed_in,omitempty"`
}

// RawSession is one record fetched from the telemetry source. Never mutated.
type RawSession struct {
	ID    string      `json:"id"`
	Value SessionData `json:"value"`

	// Malformed is set by the fetcher when the record is well-formed JSON
	// but does not have the expected shape. Value is then empty.
	Malformed error `json:"-"`
}

// EventNames returns the set of event names present in the stream.
func (s SessionData) EventNames() map[string]struct{} {
	names := make(map[string]struct{}, len(s.EventStream))
	for _, ev := range s.EventStream {
		names[ev.Name] = struct{}{}
	}
	return names
}

// EnrichedSession is a raw session plus the fields derived from it at
// ingestion time. This is the unit persisted and aggregated.
type EnrichedSession struct {
	ID   string      `json:"id"`
	Raw  SessionData `json:"raw"`
	Date string      `json:"date"` // YYYY-MM-DD, UTC

	Steps    map[string][]string `json:"steps"`    // flow name -> completed labels, flow order
	Segments map[string]string   `json:"segments"` // segmentation name -> category

	SitesLoggedIn int64  `json:"sites_logged_in"`
	Outcome       string `json:"outcome,omitempty"`
}

// FlowSteps returns the completed steps of the named flow (nil if none).
func (e EnrichedSession) FlowSteps(flow string) []string {
	return e.Steps[flow]
}

// Flows lists the names of the flows this session took part in.
func (e EnrichedSession) Flows() []string {
	out := make([]string, 0, len(e.Steps))
	for name, steps := range e.Steps {
		if len(steps) > 0 {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// ScanFilter selects stored sessions. Date bounds are inclusive and empty
// bounds are open. A non-empty Flow keeps only sessions that completed at
// least one step of that flow.
type ScanFilter struct {
	From string
	To   string
	Flow string
}

func (f ScanFilter) Matches(e EnrichedSession) bool {
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	if f.Flow != "" && len(e.Steps[f.Flow]) == 0 {
		return false
	}
	return true
}
