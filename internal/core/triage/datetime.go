package triage

import (
	"regexp"
	"strings"
	"time"
)

// CanonicalDateLayout is the only date shape the triage core emits.
const CanonicalDateLayout = "2006.01.02"

var (
	reDateAside      = regexp.MustCompile(`\([^)]*\)`)
	reDateDelimiters = regexp.MustCompile(`[\s.,/\-년월일시분]+`)
)

// dateLayouts are tried in order against the canonicalized token; first match wins.
// Time-of-day parts are accepted for matching and dropped from the result.
var dateLayouts = []string{
	"2006.1.2",
	"2006.1.2.15:04",
	"2006.1.2.15:04:05",
	"2006.1.2.15.4",
	"2006.1.2.15",
	"2006.1.2.PM.3",
	"2006.1.2.PM.3:04",
	"2006.1.2.PM.3.4",
	"2006.1.2.3:04.PM",
	"2006.1.2.3.PM",
	"20060102",
	"06.1.2",
}

var periodReplacer = strings.NewReplacer(
	"오전", ".AM.",
	"오후", ".PM.",
	"am", "AM",
	"pm", "PM",
	"a.m.", "AM",
	"p.m.", "PM",
)

// canonicalizeDate collapses whitespace, Korean unit suffixes and separators
// into single '.' delimiters and trims them from both ends.
func canonicalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	s = reDateAside.ReplaceAllString(s, " ")
	s = periodReplacer.Replace(s)
	s = reDateDelimiters.ReplaceAllString(s, ".")
	return strings.Trim(s, ".")
}

// ParseDate normalizes a free-form date token to YYYY.MM.DD.
// ok is false when no known layout matched; the returned string is then raw unchanged.
func ParseDate(raw string) (string, bool) {
	s := canonicalizeDate(raw)
	if s == "" {
		return raw, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), true
		}
	}
	return raw, false
}

// NormalizeDate is ParseDate without the match flag: unknown shapes pass through unchanged.
func NormalizeDate(raw string) string {
	out, _ := ParseDate(raw)
	return out
}
