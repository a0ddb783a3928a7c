package statemachine

import (
	"fmt"
	"strings"

	"campus-eats-api/models"
)

// Transition defines a valid state change and the role that may perform it
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
	Role models.UserRole    `json:"role"`
}

// roleTransitions is the authoritative table for non-admin roles. Admin is
// derived from it in init.
var roleTransitions = []Transition{
	// Student may cancel until the kitchen starts
	{From: models.StatusPending, To: models.StatusCancelled, Role: models.RoleStudent},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Role: models.RoleStudent},

	{From: models.StatusPending, To: models.StatusConfirmed, Role: models.RoleVendor},
	{From: models.StatusPending, To: models.StatusCancelled, Role: models.RoleVendor},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Role: models.RoleVendor},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Role: models.RoleVendor},
	{From: models.StatusPreparing, To: models.StatusReady, Role: models.RoleVendor},

	{From: models.StatusReady, To: models.StatusOutForDelivery, Role: models.RoleRider},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Role: models.RoleRider},
}

type tableKey struct {
	Role models.UserRole
	From models.OrderStatus
}

var (
	allTransitions []Transition
	table          map[tableKey][]models.OrderStatus
)

func init() {
	allTransitions = append(allTransitions, roleTransitions...)
	seen := map[[2]models.OrderStatus]bool{}
	for _, t := range roleTransitions {
		k := [2]models.OrderStatus{t.From, t.To}
		if seen[k] {
			continue
		}
		seen[k] = true
		allTransitions = append(allTransitions, Transition{From: t.From, To: t.To, Role: models.RoleAdmin})
	}

	table = make(map[tableKey][]models.OrderStatus)
	for _, t := range allTransitions {
		k := tableKey{Role: t.Role, From: t.From}
		table[k] = append(table[k], t.To)
	}
}

// Allowed returns the statuses role may move an order to from the given status.
func Allowed(role models.UserRole, from models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), table[tableKey{Role: role, From: from}]...)
}

// ValidTransitionsFrom returns all valid next states from a given state, for any role
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	return Allowed(models.RoleAdmin, status)
}

// CanTransition checks if role can move an order from one state to another
func CanTransition(role models.UserRole, from, to models.OrderStatus) error {
	for _, next := range table[tableKey{Role: role, From: from}] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s for role %s; valid transitions from %s: %s",
		from, to, role, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Table returns the full state machine for documentation
func Table() []Transition {
	return append([]Transition(nil), allTransitions...)
}
