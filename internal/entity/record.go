package entity

import "github.com/joseph-ayodele/screenwiper/constants"

// Record is the structured summary produced for one screenshot.
// The set of implementations is closed: PlaceRecord, EventRecord, MiscRecord.
type Record interface {
	Category() constants.CategoryID
	Photo() PhotoRef
	isRecord()
}

// PhotoRef identifies the image a record was produced from.
type PhotoRef struct {
	Name string `json:"photoName"`
	URL  string `json:"photoUrl"`
}

type PlaceRecord struct {
	CategoryID     constants.CategoryID `json:"categoryId"`
	Title          string               `json:"title"`
	Address        string               `json:"address"`
	OperatingHours []string             `json:"operatingHours"`
	Summary        string               `json:"summary"`
	PhotoRef
}

type EventRecord struct {
	CategoryID constants.CategoryID `json:"categoryId"`
	Title      string               `json:"title"`
	List       []ExtractedEvent     `json:"list"`
	PhotoRef
}

type MiscRecord struct {
	CategoryID constants.CategoryID `json:"categoryId"`
	Title      string               `json:"title"`
	Summary    string               `json:"summary"`
	PhotoRef
}

func (r *PlaceRecord) Category() constants.CategoryID { return constants.CategoryPlace }
func (r *EventRecord) Category() constants.CategoryID { return constants.CategoryEvent }
func (r *MiscRecord) Category() constants.CategoryID  { return constants.CategoryMiscellaneous }

func (r *PlaceRecord) Photo() PhotoRef { return r.PhotoRef }
func (r *EventRecord) Photo() PhotoRef { return r.PhotoRef }
func (r *MiscRecord) Photo() PhotoRef  { return r.PhotoRef }

func (*PlaceRecord) isRecord() {}
func (*EventRecord) isRecord() {}
func (*MiscRecord) isRecord()  {}
