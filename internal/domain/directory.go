package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var accountNumberPattern = regexp.MustCompile(`^ACC[0-9]{9}$`)

// DirectoryEntry maps an external account number to an internal account
type DirectoryEntry struct {
	AccountNumber string
	AccountID     uuid.UUID
	DisplayName   string
	CreatedAt     time.Time
}

// Validate ensures the entry can be registered
func (e *DirectoryEntry) Validate() error {
	if !ValidAccountNumber(e.AccountNumber) {
		return errors.New("account number must look like ACC followed by nine digits")
	}
	if e.AccountID == uuid.Nil {
		return errors.New("account id is required")
	}
	if e.DisplayName == "" {
		return errors.New("display name is required")
	}
	return nil
}

// ValidAccountNumber reports whether s has the external account number shape
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}
