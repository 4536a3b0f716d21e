package triage

import (
	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// Partitioned splits recognized entities by role.
type Partitioned struct {
	Addresses []string
	Others    []string
	// StoreName is the first ORGANIZATION entity; empty when there was none.
	StoreName string
	HasStore  bool
}

// Partition makes a single pass over entities, preserving input order in every output.
// Later ORGANIZATION entities land in Others and never replace the store name.
func Partition(entities []entity.RecognizedEntity) Partitioned {
	var p Partitioned
	for _, e := range entities {
		switch {
		case e.Type == constants.EntityAddress:
			p.Addresses = append(p.Addresses, e.Name)
		case e.Type == constants.EntityOrganization && !p.HasStore:
			p.StoreName = e.Name
			p.HasStore = true
		default:
			p.Others = append(p.Others, e.Name)
		}
	}
	return p
}
