package classify

import (
	"strconv"

	"kpi-report-service/internal/sessions/core/domain"
)

// Segmentation names with a dedicated extraction rule.
const (
	SegmentOS      = "OS"
	SegmentBrowser = "Browser"
	SegmentScreen  = "Screen"
	SegmentEmails  = "Emails"
	SegmentLocale  = "Locale"
)

// SegmentValue extracts the raw category of a session along seg and applies
// the alias table. ok is false when the session carries no value for the
// axis.
func SegmentValue(s domain.SessionData, seg domain.Segmentation) (value string, ok bool) {
	value, ok = rawSegmentValue(s, seg.Name)
	if !ok {
		return "", false
	}
	if alias, found := seg.Aliases[value]; found {
		value = alias
	}
	return value, true
}

// KnownSegmentValue is SegmentValue restricted to the recognized values of
// seg; anything else is "Other".
func KnownSegmentValue(s domain.SessionData, seg domain.Segmentation) string {
	v, ok := SegmentValue(s, seg)
	if !ok || !seg.Recognizes(v) {
		return domain.OtherCategory
	}
	return v
}

func rawSegmentValue(s domain.SessionData, axis string) (string, bool) {
	switch axis {
	case SegmentOS:
		if s.UserAgent == nil {
			return "", false
		}
		return s.UserAgent.OS, true
	case SegmentBrowser:
		if s.UserAgent == nil {
			return "", false
		}
		return s.UserAgent.Browser, true
	case SegmentScreen:
		if s.ScreenSize == nil || s.ScreenSize.Width == nil || s.ScreenSize.Height == nil {
			return domain.UnknownCategory, true
		}
		return strconv.Itoa(*s.ScreenSize.Width) + "×" + strconv.Itoa(*s.ScreenSize.Height), true
	case SegmentEmails:
		if s.NumberEmails == nil {
			return domain.UnknownCategory, true
		}
		if n := *s.NumberEmails; n < 3 {
			return strconv.Itoa(n), true
		}
		return "3+", true
	case SegmentLocale:
		if s.Lang == "" {
			return "", false
		}
		return s.Lang, true
	default:
		return "", false
	}
}
