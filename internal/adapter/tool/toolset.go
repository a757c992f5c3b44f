package tool

import (
	"log/slog"

	"binna-crm/internal/usecase/crm"
)

// CRMSet bundles the controllers the tool surface is built from.
type CRMSet struct {
	Establishments *crm.Establishments
	Contacts       *crm.Contacts
	Tasks          *crm.Tasks
	Opportunities  *crm.Opportunities
	Meetings       *crm.Meetings
	Notes          *crm.Notes
}

// NewCRMRegistry builds the registry with the full CRM tool surface in a
// fixed order. Registration failures are configuration errors and should
// abort startup.
func NewCRMRegistry(model, name, description, instructions string, set CRMSet, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(model, name, description, instructions, logger)

	groups := [][]FuncSpec{
		customerSpecs(set.Establishments),
		contactSpecs(set.Contacts),
		taskSpecs(set.Tasks),
		opportunitySpecs(set.Opportunities),
		meetingSpecs(set.Meetings),
		noteSpecs(set.Notes),
	}
	for _, specs := range groups {
		if err := r.RegisterAll(specs...); err != nil {
			return nil, err
		}
	}
	return r, nil
}
