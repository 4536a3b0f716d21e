package constants

import "strings"

// EntityType is the closed set of named-entity kinds the triage core understands.
type EntityType string

const (
	EntityAddress      EntityType = "ADDRESS"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityDate         EntityType = "DATE"
	EntityOther        EntityType = "OTHER"
)

// ParseEntityType maps a provider label onto EntityType. Anything the core does
// not branch on (PERSON, LOCATION, NUMBER, ...) collapses to EntityOther.
func ParseEntityType(label string) EntityType {
	switch EntityType(strings.ToUpper(strings.TrimSpace(label))) {
	case EntityAddress:
		return EntityAddress
	case EntityOrganization:
		return EntityOrganization
	case EntityDate:
		return EntityDate
	default:
		return EntityOther
	}
}

// EntityTypeLabels lists the labels accepted from NER providers.
func EntityTypeLabels() []string {
	return []string{string(EntityAddress), string(EntityOrganization), string(EntityDate), string(EntityOther)}
}
