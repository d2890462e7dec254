package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the coarse authorization role the upstream tier assigns a caller
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a wire value into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	}
	return "", NewError(KindUnauthorized, "", fmt.Sprintf("unknown role %q", s))
}

// Caller is the already authenticated identity behind a request
type Caller struct {
	AccountID uuid.UUID
	Role      Role
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanView reports whether the caller may read data owned by accountID
func (c Caller) CanView(accountID uuid.UUID) bool {
	return c.IsAdmin() || (c.AccountID != uuid.Nil && c.AccountID == accountID)
}

// AdminCapability proves the holder may adjust any balance.
// The zero value is not a valid capability.
type AdminCapability struct {
	caller Caller
}

// GrantAdmin issues an AdminCapability for an admin caller
func GrantAdmin(c Caller) (AdminCapability, error) {
	if !c.IsAdmin() {
		return AdminCapability{}, NewError(KindUnauthorized, "GrantAdmin", "admin role required")
	}
	return AdminCapability{caller: c}, nil
}

// Caller returns the admin the capability was issued to
func (a AdminCapability) Caller() Caller {
	return a.caller
}

// Valid reports whether the capability came from GrantAdmin
func (a AdminCapability) Valid() bool {
	return a.caller.IsAdmin()
}

// SelfCapability proves the holder acts on behalf of one account
type SelfCapability struct {
	accountID uuid.UUID
}

// GrantSelf issues a SelfCapability for the caller's own account
func GrantSelf(c Caller) (SelfCapability, error) {
	if c.AccountID == uuid.Nil {
		return SelfCapability{}, NewError(KindUnauthorized, "GrantSelf", "caller has no account")
	}
	return SelfCapability{accountID: c.AccountID}, nil
}

// AccountID returns the account the capability acts for
func (s SelfCapability) AccountID() uuid.UUID {
	return s.accountID
}

// Valid reports whether the capability came from GrantSelf
func (s SelfCapability) Valid() bool {
	return s.accountID != uuid.Nil
}
