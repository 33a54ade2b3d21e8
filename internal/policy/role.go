package policy

import (
	"fmt"

	"github.com/harborstay/harborstay/internal/shared"
)

// Role is the closed set of roles a user may hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSubadmin Role = "subadmin"
	RoleUser     Role = "user"
)

// roleRank orders roles by priority. Lower rank wins.
var roleRank = map[Role]int{
	RoleAdmin:    0,
	RoleSubadmin: 1,
	RoleUser:     2,
}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", shared.ErrValidation, raw)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the priority rank of the role. Lower rank wins.
func (r Role) Rank() int {
	rank, ok := roleRank[r]
	if !ok {
		return len(roleRank)
	}
	return rank
}

// EffectiveRole reduces a set of assignments to the single governing role.
// An empty set yields RoleUser.
func EffectiveRole(assigned []Role) Role {
	effective := RoleUser
	for _, r := range assigned {
		if r.Valid() && r.Rank() < effective.Rank() {
			effective = r
		}
	}
	return effective
}
