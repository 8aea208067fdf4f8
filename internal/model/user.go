package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERADOR"
)

type User struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	CNPJ               string     `json:"cnpj"`
	PasswordHash       string     `json:"-"`
	Role               Role       `json:"role"`
	MustChangePassword bool       `json:"mustChangePassword"`
	Active             bool       `json:"active"`
	AdminID            *uuid.UUID `json:"adminId"`
	CreatedAt          time.Time  `json:"createdAt"`

	// AdminName is joined in on profile reads.
	AdminName *string `json:"adminName,omitempty"`
}

// Principal is the authenticated caller as resolved from the token.
type Principal struct {
	UserID  uuid.UUID
	Role    Role
	AdminID *uuid.UUID
}

// OwnerAdminID resolves the tenant scope: admins own themselves,
// operators act under their linked admin. The second return is false
// when the principal has no resolvable scope.
func (p Principal) OwnerAdminID() (uuid.UUID, bool) {
	switch {
	case p.Role == RoleAdmin:
		return p.UserID, true
	case p.Role == RoleOperator && p.AdminID != nil:
		return *p.AdminID, true
	default:
		return uuid.Nil, false
	}
}
