package entity

// ExtractedEvent is a named date or date range found in screenshot text.
// Date is either a single normalized date or "start~end".
type ExtractedEvent struct {
	Name string `json:"name"`
	Date string `json:"date"`
}
