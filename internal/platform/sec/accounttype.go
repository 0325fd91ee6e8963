// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package sec

// # Account Types

// AccountType distinguishes the two upstream identity families the portal serves.
type AccountType string

const (
	// Individual talent with a professionals profile
	AccountProfessional AccountType = "professional"

	// Agency managing rosters of professionals
	AccountAgency AccountType = "agency"
)

// IsValid reports whether the account type is one the portal recognizes.
func (t AccountType) IsValid() bool {
	return t == AccountProfessional || t == AccountAgency
}
