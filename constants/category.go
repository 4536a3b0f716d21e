package constants

import (
	"strconv"
	"strings"
)

// CategoryID is the semantic bucket a screenshot is triaged into.
type CategoryID int

const (
	CategoryPlace         CategoryID = 1
	CategoryEvent         CategoryID = 2
	CategoryMiscellaneous CategoryID = 3
)

// Fallback titles and messages used when a record has nothing better to show.
const (
	UnknownPlaceTitle   = "알 수 없는 장소"
	UnknownEventTitle   = "알 수 없는 이벤트"
	MiscellaneousTitle  = "기타"
	SummaryUnavailable  = "요약할 수 없습니다."
	ReceptionPeriodName = "접수기간"
)

var allCategories = []CategoryID{
	CategoryPlace,
	CategoryEvent,
	CategoryMiscellaneous,
}

func (c CategoryID) String() string {
	switch c {
	case CategoryPlace:
		return "place"
	case CategoryEvent:
		return "event"
	case CategoryMiscellaneous:
		return "miscellaneous"
	default:
		return "unknown"
	}
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = cat.String()
	}
	return result
}

// Canonicalize resolves either a numeric id ("1") or a label ("place") to a CategoryID.
func Canonicalize(input string) (CategoryID, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return CategoryMiscellaneous, false
	}
	if n, err := strconv.Atoi(normalized); err == nil {
		for _, cat := range allCategories {
			if int(cat) == n {
				return cat, true
			}
		}
		return CategoryMiscellaneous, false
	}

	synonyms := map[string]CategoryID{
		"venue": CategoryPlace,
		"store": CategoryPlace,
		"misc":  CategoryMiscellaneous,
		"note":  CategoryMiscellaneous,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}
	for _, cat := range allCategories {
		if normalized == cat.String() {
			return cat, true
		}
	}
	return CategoryMiscellaneous, false
}
