package triage

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

const (
	fullDatePattern = `\d{2,4}\s*[./년-]\s*\d{1,2}\s*[./월-]\s*\d{1,2}\s*일?(?:\s*\([^)]{1,4}\))?`
	monthDayPattern = `\d{1,2}\s*[./월-]\s*\d{1,2}\s*일?(?:\s*\([^)]{1,4}\))?`
)

var reDateRange = regexp.MustCompile(
	`(` + fullDatePattern + `)\s*[~～〜\-–]\s*(?:(` + fullDatePattern + `)|(` + monthDayPattern + `))`,
)

var (
	reBareYear      = regexp.MustCompile(`^\d{4}\s*년?$`)
	reParenthetical = regexp.MustCompile(`\s*\([^)]*(?:\)|$)`)
)

// receptionMarkers flag a line as stating an application/reception window.
var receptionMarkers = []string{"접수기간", "접수 기간", "접수일정", "접수 일정", "신청기간", "신청 기간"}

// EventExtractor finds named dates and date ranges in screenshot text.
// The zero value passes unnormalizable DATE entities through unchanged.
type EventExtractor struct {
	// DropUnnormalizedDates discards DATE entities that match no known date layout
	// instead of emitting them verbatim.
	DropUnnormalizedDates bool
}

// ExtractEvents runs a zero-value EventExtractor.
func ExtractEvents(entities []entity.RecognizedEntity, text string) []entity.ExtractedEvent {
	return EventExtractor{}.Extract(entities, text)
}

// Extract scans explicit date ranges line by line, falling back to DATE entities
// only when no range was found. A reception-period range short-circuits the scan.
func (x EventExtractor) Extract(entities []entity.RecognizedEntity, text string) []entity.ExtractedEvent {
	lines := strings.Split(text, "\n")
	consumed := map[string]struct{}{}

	var events []entity.ExtractedEvent
	for _, line := range lines {
		ev, ok := parseRangeLine(line, consumed)
		if !ok {
			continue
		}
		if ev.Name == constants.ReceptionPeriodName {
			return []entity.ExtractedEvent{ev}
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		events = x.fallback(entities, lines, consumed)
	}
	return dedupeEvents(events)
}

// parseRangeLine matches the first "date~date" in line and records both endpoints as consumed.
func parseRangeLine(line string, consumed map[string]struct{}) (entity.ExtractedEvent, bool) {
	m := reDateRange.FindStringSubmatchIndex(line)
	if m == nil {
		return entity.ExtractedEvent{}, false
	}
	startRaw := line[m[2]:m[3]]
	start := NormalizeDate(startRaw)

	var end string
	if m[4] >= 0 {
		end = NormalizeDate(line[m[4]:m[5]])
	} else {
		end = inheritYear(start, line[m[6]:m[7]])
	}
	consumed[start] = struct{}{}
	consumed[end] = struct{}{}

	name := cleanLabel(line[:m[0]] + line[m[1]:])
	if hasReceptionMarker(line) {
		name = constants.ReceptionPeriodName
	}
	return entity.ExtractedEvent{Name: name, Date: start + "~" + end}, true
}

// inheritYear completes a month/day range end ("01.31") with the start date's year.
func inheritYear(start, monthDay string) string {
	if len(start) == len(CanonicalDateLayout) {
		if out, ok := ParseDate(start[:4] + "." + monthDay); ok {
			return out
		}
	}
	return NormalizeDate(monthDay)
}

func (x EventExtractor) fallback(entities []entity.RecognizedEntity, lines []string, consumed map[string]struct{}) []entity.ExtractedEvent {
	used := map[string]struct{}{}
	names := map[string]struct{}{}

	var out []entity.ExtractedEvent
	for _, ent := range entities {
		if ent.Type != constants.EntityDate {
			continue
		}
		raw := strings.TrimSpace(ent.Name)
		if raw == "" {
			continue
		}
		date, ok := ParseDate(raw)
		if !ok && x.DropUnnormalizedDates {
			continue
		}
		if _, seen := consumed[date]; seen {
			continue
		}
		if _, seen := used[date]; seen {
			continue
		}
		used[date] = struct{}{}

		line, found := lineContaining(lines, raw)
		if !found {
			continue
		}
		name := cleanLabel(strings.Replace(line, raw, "", 1))
		name = trimLabel(reParenthetical.ReplaceAllString(name, ""))
		if name == "" || isBareYear(name) {
			continue
		}
		if _, seen := names[name]; seen {
			continue
		}
		names[name] = struct{}{}
		out = append(out, entity.ExtractedEvent{Name: name, Date: date})
	}
	return out
}

// dedupeEvents keeps the first occurrence of each (name, date) and drops bare-year labels.
func dedupeEvents(events []entity.ExtractedEvent) []entity.ExtractedEvent {
	seen := make(map[entity.ExtractedEvent]struct{}, len(events))
	out := make([]entity.ExtractedEvent, 0, len(events))
	for _, ev := range events {
		if isBareYear(ev.Name) {
			continue
		}
		if _, dup := seen[ev]; dup {
			continue
		}
		seen[ev] = struct{}{}
		out = append(out, ev)
	}
	return out
}

func lineContaining(lines []string, needle string) (string, bool) {
	for _, l := range lines {
		if strings.Contains(l, needle) {
			return l, true
		}
	}
	return "", false
}

func hasReceptionMarker(line string) bool {
	for _, m := range receptionMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// cleanLabel truncates at the first colon and trims surrounding punctuation.
func cleanLabel(s string) string {
	if i := strings.IndexAny(s, ":："); i >= 0 {
		s = s[:i]
	}
	return trimLabel(s)
}

func trimLabel(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

func isBareYear(name string) bool {
	return reBareYear.MatchString(strings.TrimSpace(name))
}
