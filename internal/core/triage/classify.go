package triage

import (
	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// Classify applies the fixed precedence place > event > miscellaneous.
func Classify(addresses []string, events []entity.ExtractedEvent) constants.CategoryID {
	switch {
	case len(addresses) > 0:
		return constants.CategoryPlace
	case len(events) > 0:
		return constants.CategoryEvent
	default:
		return constants.CategoryMiscellaneous
	}
}
