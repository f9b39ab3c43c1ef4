package services

import (
	"github.com/mirelo/perfhub/backend/internal/models"
)

// Capabilities is the resolved permission set for an actor. It is computed
// once per request and passed around instead of re-reading the raw employee
// flags, so the account-owner special case lives in exactly one place.
type Capabilities struct {
	CanSetGlobalFrequency bool `json:"can_set_global_frequency"`
	CanViewOrgWide        bool `json:"can_view_org_wide"`
	CanManageSettings     bool `json:"can_manage_settings"`
	IsAccountOwner        bool `json:"is_account_owner"`
}

// ResolvePermissions derives the capability set for an employee. An account
// owner always has every capability regardless of stored flags. A nil
// employee resolves to no capabilities; absent data never errors.
func ResolvePermissions(emp *models.Employee) Capabilities {
	if emp == nil {
		return Capabilities{}
	}

	if emp.IsAccountOwner {
		return Capabilities{
			CanSetGlobalFrequency: true,
			CanViewOrgWide:        true,
			CanManageSettings:     true,
			IsAccountOwner:        true,
		}
	}

	return Capabilities{
		CanSetGlobalFrequency: emp.CanSetGlobalFrequency,
		CanViewOrgWide:        emp.CanViewOrgWide,
		CanManageSettings:     emp.CanManageSettings,
	}
}
