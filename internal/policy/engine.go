// Package policy implements the central authorization decision point.
// Every data-access operation in the listings and bookings modules routes
// through the Engine; services never shortcut their own ownership checks.
package policy

import (
	"fmt"

	"github.com/harborstay/harborstay/internal/shared"
)

// Kind identifies the resource class a rule applies to.
type Kind string

const (
	KindListing        Kind = "listing"
	KindBooking        Kind = "booking"
	KindRoleAssignment Kind = "role_assignment"
)

// Action identifies the operation being authorized.
type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionDecide Action = "decide"
)

// ListingResource carries the listing fields policy predicates evaluate.
type ListingResource struct {
	OwnerID int64
	Active  bool
}

// BookingResource carries the booking fields policy predicates evaluate.
// ListingOwnerID is the owner of the listing the booking references.
type BookingResource struct {
	RequesterID    int64
	ListingOwnerID int64
}

type ruleKey struct {
	kind   Kind
	action Action
}

type predicate func(p Principal, res any) bool

// Engine evaluates per-row allow/deny decisions from a closed rules table.
// Pairs without a rule always deny.
type Engine struct {
	rules map[ruleKey]predicate
}

// NewEngine builds the Engine with the marketplace rules installed.
func NewEngine() *Engine {
	e := &Engine{rules: make(map[ruleKey]predicate)}

	e.rules[ruleKey{KindListing, ActionRead}] = func(p Principal, res any) bool {
		l, ok := res.(ListingResource)
		if !ok {
			return false
		}
		return l.Active || p.UserID == l.OwnerID || p.IsAdmin()
	}
	e.rules[ruleKey{KindListing, ActionCreate}] = func(p Principal, res any) bool {
		return p.Role == RoleAdmin || p.Role == RoleSubadmin
	}
	listingWrite := func(p Principal, res any) bool {
		l, ok := res.(ListingResource)
		if !ok {
			return false
		}
		return p.UserID == l.OwnerID || p.IsAdmin()
	}
	e.rules[ruleKey{KindListing, ActionUpdate}] = listingWrite
	e.rules[ruleKey{KindListing, ActionDelete}] = listingWrite
	// Listing a specific owner's inventory, active or not, follows the
	// write rule: the owner themselves or an admin.
	e.rules[ruleKey{KindListing, ActionList}] = listingWrite

	e.rules[ruleKey{KindBooking, ActionRead}] = func(p Principal, res any) bool {
		b, ok := res.(BookingResource)
		if !ok {
			return false
		}
		return p.UserID == b.RequesterID || p.UserID == b.ListingOwnerID || p.IsAdmin()
	}
	e.rules[ruleKey{KindBooking, ActionCreate}] = func(p Principal, res any) bool {
		b, ok := res.(BookingResource)
		if !ok {
			return false
		}
		return p.UserID == b.RequesterID
	}
	e.rules[ruleKey{KindBooking, ActionDecide}] = func(p Principal, res any) bool {
		b, ok := res.(BookingResource)
		if !ok {
			return false
		}
		return p.UserID == b.ListingOwnerID || p.IsAdmin()
	}
	// Listing the bookings that landed on an owner's listings. A zero
	// ListingOwnerID stands for every owner in the marketplace, which
	// only admins may sweep.
	e.rules[ruleKey{KindBooking, ActionList}] = func(p Principal, res any) bool {
		b, ok := res.(BookingResource)
		if !ok {
			return false
		}
		if p.IsAdmin() {
			return true
		}
		return b.ListingOwnerID != 0 && p.UserID == b.ListingOwnerID
	}

	adminOnly := func(p Principal, res any) bool {
		return p.IsAdmin()
	}
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		e.rules[ruleKey{KindRoleAssignment, action}] = adminOnly
	}

	return e
}

// Allow evaluates the rule for (kind, action) against the principal and resource.
func (e *Engine) Allow(p Principal, kind Kind, action Action, res any) bool {
	rule, ok := e.rules[ruleKey{kind, action}]
	if !ok {
		return false
	}
	return rule(p, res)
}

// Authorize returns ErrPermissionDenied when the rule denies the operation.
func (e *Engine) Authorize(p Principal, kind Kind, action Action, res any) error {
	if !e.Allow(p, kind, action, res) {
		return fmt.Errorf("%w: %s %s", shared.ErrPermissionDenied, action, kind)
	}
	return nil
}
