package triage

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

func date(name string) entity.RecognizedEntity {
	return entity.RecognizedEntity{Name: name, Type: constants.EntityDate}
}

func TestExtractEvents(t *testing.T) {
	tests := []struct {
		name     string
		entities []entity.RecognizedEntity
		text     string
		want     []entity.ExtractedEvent
	}{
		{
			name: "reception period short-circuits",
			text: "서류접수기간 2024.01.01~2024.01.31\n면접 2024.02.10~2024.02.11",
			want: []entity.ExtractedEvent{{Name: "접수기간", Date: "2024.01.01~2024.01.31"}},
		},
		{
			name: "range name from line",
			text: "봄 축제: 2024.04.01 ~ 2024.04.05\n장소 시청",
			want: []entity.ExtractedEvent{{Name: "봄 축제", Date: "2024.04.01~2024.04.05"}},
		},
		{
			name: "month-day end inherits year",
			text: "전시 2024.03.01 - 03.31",
			want: []entity.ExtractedEvent{{Name: "전시", Date: "2024.03.01~2024.03.31"}},
		},
		{
			name: "ranges across lines in order",
			text: "1차 2024.05.01~2024.05.02\n2차 2024.06.01~2024.06.02",
			want: []entity.ExtractedEvent{
				{Name: "1차", Date: "2024.05.01~2024.05.02"},
				{Name: "2차", Date: "2024.06.01~2024.06.02"},
			},
		},
		{
			name: "duplicate ranges collapse",
			text: "세일 2024.05.01~2024.05.02\n세일 2024.05.01~2024.05.02",
			want: []entity.ExtractedEvent{{Name: "세일", Date: "2024.05.01~2024.05.02"}},
		},
		{
			name:     "fallback uses date entity line",
			entities: []entity.RecognizedEntity{date("2024년 5월 10일")},
			text:     "콘서트: 2024년 5월 10일 (금)\n장소 서울",
			want:     []entity.ExtractedEvent{{Name: "콘서트", Date: "2024.05.10"}},
		},
		{
			name:     "fallback strips parenthetical asides",
			entities: []entity.RecognizedEntity{date("2024.07.01")},
			text:     "오픈 (사전예약) 2024.07.01",
			want:     []entity.ExtractedEvent{{Name: "오픈", Date: "2024.07.01"}},
		},
		{
			name:     "fallback unique by name",
			entities: []entity.RecognizedEntity{date("2024.06.01"), date("2024.06.30")},
			text:     "마감 2024.06.01\n마감 2024.06.30",
			want:     []entity.ExtractedEvent{{Name: "마감", Date: "2024.06.01"}},
		},
		{
			name:     "fallback skips repeated date",
			entities: []entity.RecognizedEntity{date("2024.06.01"), date("2024-06-01")},
			text:     "발표 2024.06.01\n결과 2024-06-01",
			want:     []entity.ExtractedEvent{{Name: "발표", Date: "2024.06.01"}},
		},
		{
			name:     "bare year label dropped",
			entities: []entity.RecognizedEntity{date("5월 1일")},
			text:     "2024년 5월 1일",
			want:     []entity.ExtractedEvent{},
		},
		{
			name:     "unnormalized date passes through",
			entities: []entity.RecognizedEntity{date("2024년")},
			text:     "2024년 축제",
			want:     []entity.ExtractedEvent{{Name: "축제", Date: "2024년"}},
		},
		{
			name: "non date entities ignored",
			entities: []entity.RecognizedEntity{
				{Name: "서울", Type: constants.EntityAddress},
				{Name: "카페", Type: constants.EntityOrganization},
			},
			text: "서울 카페",
			want: []entity.ExtractedEvent{},
		},
		{
			name:     "date text absent from ocr",
			entities: []entity.RecognizedEntity{date("2024.08.15")},
			text:     "광복절",
			want:     []entity.ExtractedEvent{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEvents(tt.entities, tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractEvents mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEventExtractorDropUnnormalizedDates(t *testing.T) {
	x := EventExtractor{DropUnnormalizedDates: true}
	got := x.Extract([]entity.RecognizedEntity{date("2024년"), date("2024.09.01")}, "2024년 축제\n개막 2024.09.01")
	want := []entity.ExtractedEvent{{Name: "개막", Date: "2024.09.01"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractEventsDoesNotLeakStateAcrossCalls(t *testing.T) {
	text := "세일 2024.05.01~2024.05.02"
	first := ExtractEvents(nil, text)
	second := ExtractEvents(nil, text)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated extraction differs (-first +second):\n%s", diff)
	}
}
