package domain

import (
	"time"
)

// AccountType distinguishes brokerage-synced accounts from manual portfolios.
type AccountType string

const (
	AccountTypeSynced AccountType = "synced"
	AccountTypeManual AccountType = "manual"
)

// Valid reports whether the account type is a recognized value.
func (t AccountType) Valid() bool {
	return t == AccountTypeSynced || t == AccountTypeManual
}

// Account is a brokerage or manual portfolio container. It is immutable
// after creation except for LastSyncedAt.
type Account struct {
	ID           string
	OwnerID      string
	Name         string
	Type         AccountType
	BaseCurrency string
	LastSyncedAt *time.Time
	CreatedAt    time.Time
}
