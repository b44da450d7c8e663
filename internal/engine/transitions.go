package engine

import (
	"github.com/umx-campus/accesogo/internal/models"
)

// Action is a guard-initiated movement on a leg.
type Action string

const (
	ActionGateEntry     Action = "gate-entry"
	ActionBuildingEntry Action = "building-entry"
	ActionBuildingExit  Action = "building-exit"
	ActionGateExit      Action = "gate-exit"
)

// Transition is one allowed edge of the per-visitor state machine. The same
// table drives commit-time validation and the advisory next-action helper;
// there is deliberately no second copy of this knowledge anywhere.
type Transition struct {
	Action Action
	Role   models.GuardRole   // role that performs this action at its checkpoint
	From   []models.LegStatus // empty means leg creation
	To     models.LegStatus
	// PickupTo replaces To when the visitor is handed to an external
	// vehicle pickup instead of leaving the building on foot.
	PickupTo models.LegStatus
	Event    models.EventKind
}

var transitions = []Transition{
	{
		Action: ActionGateEntry,
		Role:   models.RoleGateGuard,
		From:   nil, // creates the leg
		To:     models.LegAtGate,
		Event:  models.EventGateIn,
	},
	{
		Action: ActionBuildingEntry,
		Role:   models.RoleBuildingGuard,
		From:   []models.LegStatus{models.LegAtGate},
		To:     models.LegInBuilding,
		Event:  models.EventBuildingIn,
	},
	{
		Action:   ActionBuildingExit,
		Role:     models.RoleBuildingGuard,
		From:     []models.LegStatus{models.LegInBuilding},
		To:       models.LegExitedBuilding,
		PickupTo: models.LegAwaitingPickup,
		Event:    models.EventBuildingOut,
	},
	{
		Action: ActionGateExit,
		Role:   models.RoleGateGuard,
		From:   []models.LegStatus{models.LegExitedBuilding, models.LegAwaitingPickup},
		To:     models.LegCompleted,
		Event:  models.EventGateOut,
	},
}

// transitionFor returns the table row for an action.
func transitionFor(action Action) (Transition, bool) {
	for _, tr := range transitions {
		if tr.Action == action {
			return tr, true
		}
	}
	return Transition{}, false
}

// roleAllowed reports whether a guard role may perform the action.
// Supervisors and admins may act at either checkpoint.
func roleAllowed(role, required models.GuardRole) bool {
	if role == models.RoleSupervisor || role == models.RoleAdmin {
		return true
	}
	return role == required
}

// legalFrom reports whether a leg in the given status may take this edge.
func legalFrom(tr Transition, status models.LegStatus) bool {
	for _, s := range tr.From {
		if s == status {
			return true
		}
	}
	return false
}

// statusAfterEvent maps the last bitácora event kind onto the leg state it
// implies. Used only by the advisory helper; commit-time validation reads the
// denormalized status column instead.
func statusAfterEvent(kind models.EventKind) models.LegStatus {
	switch kind {
	case models.EventGateIn:
		return models.LegAtGate
	case models.EventBuildingIn:
		return models.LegInBuilding
	case models.EventBuildingOut:
		return models.LegExitedBuilding
	case models.EventGateOut:
		return models.LegCompleted
	}
	return ""
}

// NextActions infers the legal next action(s) for a leg from its last
// bitácora event. Gate and building guards get the single action their
// checkpoint allows; supervisors and admins see every action consistent with
// the state. Advisory only: the engine re-validates at commit time.
func NextActions(lastEvent *models.EventKind, role models.GuardRole) []Action {
	var implied models.LegStatus
	if lastEvent == nil {
		// Leg not created yet: only gate-entry applies, and only for
		// someone who can act at the gate.
		if roleAllowed(role, models.RoleGateGuard) {
			return []Action{ActionGateEntry}
		}
		return nil
	}
	implied = statusAfterEvent(*lastEvent)

	var out []Action
	for _, tr := range transitions {
		if tr.From == nil {
			continue
		}
		if legalFrom(tr, implied) && roleAllowed(role, tr.Role) {
			out = append(out, tr.Action)
		}
	}
	return out
}
