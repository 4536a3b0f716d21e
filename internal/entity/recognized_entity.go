package entity

import "github.com/joseph-ayodele/screenwiper/constants"

// RecognizedEntity is a typed text span returned by the entity-recognition collaborator.
// Provider responses are converted into this shape before they reach the triage core.
type RecognizedEntity struct {
	Name string               `json:"name"`
	Type constants.EntityType `json:"type"`
}
