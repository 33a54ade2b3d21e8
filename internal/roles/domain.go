package roles

import (
	"time"

	"github.com/harborstay/harborstay/internal/policy"
)

// Assignment links a user to a role. The (UserID, Role) pair is unique.
type Assignment struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Role      policy.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}
