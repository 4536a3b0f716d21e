package triage

import (
	"testing"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

func TestClassify(t *testing.T) {
	ev := []entity.ExtractedEvent{{Name: "x", Date: "2024.01.01"}}
	tests := []struct {
		name      string
		addresses []string
		events    []entity.ExtractedEvent
		want      constants.CategoryID
	}{
		{name: "address wins over events", addresses: []string{"Seoul"}, events: ev, want: constants.CategoryPlace},
		{name: "address only", addresses: []string{"Seoul"}, want: constants.CategoryPlace},
		{name: "events only", events: ev, want: constants.CategoryEvent},
		{name: "nothing", want: constants.CategoryMiscellaneous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.addresses, tt.events); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}
