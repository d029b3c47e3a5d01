// Package classify derives date buckets, completed funnel steps, segment
// categories and funnel outcomes from raw telemetry sessions. Every function
// here is pure.
package classify

import (
	"errors"
	"time"

	"kpi-report-service/internal/sessions/core/domain"
)

const dateLayout = "2006-01-02"

var (
	ErrNoTimestamp   = errors.New("session has no timestamp")
	ErrNoEventStream = errors.New("session has an empty event stream")
)

// Seconds converts the source's millisecond timestamp to Unix seconds,
// flooring toward negative infinity.
func Seconds(ms int64) int64 {
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s
}

// DateString formats Unix seconds as a UTC date bucket.
func DateString(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(dateLayout)
}

// DateOf returns the YYYY-MM-DD bucket of a session.
func DateOf(s domain.SessionData) (string, error) {
	if s.Timestamp == nil {
		return "", ErrNoTimestamp
	}
	return DateString(Seconds(*s.Timestamp)), nil
}

// StepsCompleted lists the steps of flow reached in the session, in flow
// order. It is empty when the session never fired the flow's entry event.
func StepsCompleted(s domain.SessionData, flow domain.Flow) []string {
	events := s.EventNames()
	if flow.EntryEvent != "" {
		if _, ok := events[flow.EntryEvent]; !ok {
			return []string{}
		}
	}

	steps := []string{}
	for _, step := range flow.Steps {
		if _, ok := events[step.Event]; ok {
			steps = append(steps, step.Label)
		}
	}
	return steps
}

// SitesLoggedIn returns the first non-null site counter, checking the
// current field name before the legacy ones.
func SitesLoggedIn(s domain.SessionData) int64 {
	for _, v := range []*int64{s.NumberSitesLoggedIn, s.SitesSignedIn, s.NumberSitesSignedIn} {
		if v != nil {
			return *v
		}
	}
	return 0
}

// Enrich computes every derived field of an EnrichedSession.
func Enrich(raw domain.RawSession, catalog *domain.Catalog) (domain.EnrichedSession, error) {
	if len(raw.Value.EventStream) == 0 {
		return domain.EnrichedSession{}, ErrNoEventStream
	}
	date, err := DateOf(raw.Value)
	if err != nil {
		return domain.EnrichedSession{}, err
	}

	e := domain.EnrichedSession{
		ID:            raw.ID,
		Raw:           raw.Value,
		Date:          date,
		Steps:         make(map[string][]string, len(catalog.Flows)),
		Segments:      make(map[string]string, len(catalog.Segmentations)),
		SitesLoggedIn: SitesLoggedIn(raw.Value),
	}
	for _, f := range catalog.Flows {
		e.Steps[f.Name] = StepsCompleted(raw.Value, f)
	}
	for _, seg := range catalog.Segmentations {
		e.Segments[seg.Name] = KnownSegmentValue(raw.Value, seg)
	}
	e.Outcome = Outcome(e.Steps, raw.Value, catalog.Outcomes)
	return e, nil
}
