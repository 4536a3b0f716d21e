package triage

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Qualifier vocabularies. Extend these tables rather than the pattern.
var (
	periodQualifiers = []string{"오전", "오후", "AM", "PM", "am", "pm"}

	dayQualifiers = []string{
		"매일", "평일", "주말", "공휴일",
		"월요일", "화요일", "수요일", "목요일", "금요일", "토요일", "일요일",
		"월", "화", "수", "목", "금", "토", "일",
		"Daily", "Everyday", "Weekdays", "Weekday", "Weekends", "Weekend",
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
		"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun",
	}

	// weekday abbreviations that may form a range such as 월~금 or Mon-Fri.
	rangeableDays = []string{
		"월", "화", "수", "목", "금", "토", "일",
		"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun",
	}
)

const (
	clockPattern = `(\d{1,2}:\d{2})`
	rangeDash    = `\s*[-~–—〜～]\s*`
)

var reOperatingHours = buildOperatingHoursPattern()

// OperatingHours is one matched opening interval.
type OperatingHours struct {
	Day            string
	OpenQualifier  string
	Open           string
	CloseQualifier string
	Close          string
}

// String renders "<day> <qualifier> H:MM - <qualifier> H:MM", omitting absent parts.
func (h OperatingHours) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{h.Day, h.OpenQualifier, h.Open, "-", h.CloseQualifier, h.Close} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func alternation(words []string) string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

func buildOperatingHoursPattern() *regexp.Regexp {
	days := alternation(dayQualifiers)
	rangeable := alternation(rangeableDays)
	day := `(?:(?:` + rangeable + `)\s*[-~]\s*(?:` + rangeable + `)|` + days + `)`
	qualifier := `(?:` + alternation(periodQualifiers) + `|` + days + `)`
	return regexp.MustCompile(
		`(?:(` + day + `)\s*)?` +
			`(?:(` + qualifier + `)\s*)?` + clockPattern +
			rangeDash +
			`(?:(` + qualifier + `)\s*)?` + clockPattern,
	)
}

// ParseOperatingHours returns every non-overlapping opening interval in text order.
func ParseOperatingHours(text string) []OperatingHours {
	matches := reOperatingHours.FindAllStringSubmatchIndex(text, -1)
	out := make([]OperatingHours, 0, len(matches))
	for _, m := range matches {
		if digitAt(text, m[6]-1) || digitAt(text, m[11]) {
			continue
		}
		h := OperatingHours{
			Day:            standaloneToken(text, m[2], m[3]),
			OpenQualifier:  standaloneToken(text, m[4], m[5]),
			Open:           text[m[6]:m[7]],
			CloseQualifier: group(text, m[8], m[9]),
			Close:          text[m[10]:m[11]],
		}
		out = append(out, h)
	}
	return out
}

// ExtractOperatingHours renders ParseOperatingHours as display lines.
func ExtractOperatingHours(text string) []string {
	hours := ParseOperatingHours(text)
	out := make([]string, 0, len(hours))
	for _, h := range hours {
		out = append(out, h.String())
	}
	return out
}

func group(text string, start, end int) string {
	if start < 0 {
		return ""
	}
	return strings.Join(strings.Fields(text[start:end]), "")
}

// standaloneToken drops a qualifier that is the tail of a longer word or a
// date unit (영업일, 15일, 3월 are not days).
func standaloneToken(text string, start, end int) string {
	if start < 0 {
		return ""
	}
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); unicode.IsLetter(r) || unicode.IsDigit(r) {
			return ""
		}
	}
	return group(text, start, end)
}

// digitAt reports whether the byte at i is an ASCII digit; clocks embedded in
// longer numbers (123:45) are not hours.
func digitAt(text string, i int) bool {
	return i >= 0 && i < len(text) && text[i] >= '0' && text[i] <= '9'
}
