package engine

import (
	"testing"

	"github.com/umx-campus/accesogo/internal/models"
)

func TestTransitionTable(t *testing.T) {
	testCases := []struct {
		action Action
		from   models.LegStatus
		legal  bool
	}{
		{ActionBuildingEntry, models.LegAtGate, true},
		{ActionBuildingEntry, models.LegInBuilding, false},
		{ActionBuildingEntry, models.LegExitedBuilding, false},
		{ActionBuildingEntry, models.LegCompleted, false},
		{ActionBuildingExit, models.LegInBuilding, true},
		{ActionBuildingExit, models.LegAtGate, false},
		{ActionGateExit, models.LegExitedBuilding, true},
		{ActionGateExit, models.LegAwaitingPickup, true},
		{ActionGateExit, models.LegAtGate, false},
		{ActionGateExit, models.LegInBuilding, false},
		{ActionGateExit, models.LegCompleted, false},
	}

	for _, tc := range testCases {
		tr, ok := transitionFor(tc.action)
		if !ok {
			t.Fatalf("No table row for %s", tc.action)
		}
		if got := legalFrom(tr, tc.from); got != tc.legal {
			t.Errorf("%s from %s: legal=%v, want %v", tc.action, tc.from, got, tc.legal)
		}
	}
}

func TestBuildingExitPickupBranch(t *testing.T) {
	tr, ok := transitionFor(ActionBuildingExit)
	if !ok {
		t.Fatal("No table row for building-exit")
	}
	if tr.To != models.LegExitedBuilding {
		t.Errorf("To = %s, want %s", tr.To, models.LegExitedBuilding)
	}
	if tr.PickupTo != models.LegAwaitingPickup {
		t.Errorf("PickupTo = %s, want %s", tr.PickupTo, models.LegAwaitingPickup)
	}
}

func TestRoleAllowed(t *testing.T) {
	testCases := []struct {
		role     models.GuardRole
		required models.GuardRole
		want     bool
	}{
		{models.RoleGateGuard, models.RoleGateGuard, true},
		{models.RoleGateGuard, models.RoleBuildingGuard, false},
		{models.RoleBuildingGuard, models.RoleBuildingGuard, true},
		{models.RoleBuildingGuard, models.RoleGateGuard, false},
		{models.RoleSupervisor, models.RoleGateGuard, true},
		{models.RoleSupervisor, models.RoleBuildingGuard, true},
		{models.RoleAdmin, models.RoleGateGuard, true},
		{models.RoleAdmin, models.RoleBuildingGuard, true},
	}

	for _, tc := range testCases {
		if got := roleAllowed(tc.role, tc.required); got != tc.want {
			t.Errorf("roleAllowed(%s, %s) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}
}

func eventPtr(k models.EventKind) *models.EventKind { return &k }

func TestNextActions(t *testing.T) {
	testCases := []struct {
		name string
		last *models.EventKind
		role models.GuardRole
		want []Action
	}{
		{"new leg, gate guard", nil, models.RoleGateGuard, []Action{ActionGateEntry}},
		{"new leg, building guard", nil, models.RoleBuildingGuard, nil},
		{"at gate, building guard", eventPtr(models.EventGateIn), models.RoleBuildingGuard, []Action{ActionBuildingEntry}},
		{"at gate, gate guard", eventPtr(models.EventGateIn), models.RoleGateGuard, nil},
		{"in building, building guard", eventPtr(models.EventBuildingIn), models.RoleBuildingGuard, []Action{ActionBuildingExit}},
		{"exited building, gate guard", eventPtr(models.EventBuildingOut), models.RoleGateGuard, []Action{ActionGateExit}},
		{"exited building, building guard", eventPtr(models.EventBuildingOut), models.RoleBuildingGuard, nil},
		{"exited building, supervisor", eventPtr(models.EventBuildingOut), models.RoleSupervisor, []Action{ActionGateExit}},
		{"at gate, supervisor", eventPtr(models.EventGateIn), models.RoleSupervisor, []Action{ActionBuildingEntry}},
		{"completed, admin", eventPtr(models.EventGateOut), models.RoleAdmin, nil},
	}

	for _, tc := range testCases {
		got := NextActions(tc.last, tc.role)
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
				break
			}
		}
	}
}

// The advisory helper and the commit path must never disagree: every action
// the helper suggests has to be accepted by the table for the implied state.
func TestNextActionsConsistentWithTable(t *testing.T) {
	for _, kind := range []models.EventKind{
		models.EventGateIn, models.EventBuildingIn,
		models.EventBuildingOut, models.EventGateOut,
	} {
		for _, role := range []models.GuardRole{
			models.RoleGateGuard, models.RoleBuildingGuard,
			models.RoleSupervisor, models.RoleAdmin,
		} {
			k := kind
			for _, action := range NextActions(&k, role) {
				tr, ok := transitionFor(action)
				if !ok {
					t.Fatalf("Suggested action %s has no table row", action)
				}
				if !legalFrom(tr, statusAfterEvent(kind)) {
					t.Errorf("Suggested %s illegal from %s", action, statusAfterEvent(kind))
				}
				if !roleAllowed(role, tr.Role) {
					t.Errorf("Suggested %s not allowed for role %s", action, role)
				}
			}
		}
	}
}

func TestCodeMapping(t *testing.T) {
	testCases := []struct {
		err  error
		code string
	}{
		{ErrTokenConflict, "TARJETA_EN_USO"},
		{ErrCapacityExceeded, "CAPACIDAD_EXCEDIDA"},
		{ErrHeadcountMismatch, "PERSONAS_NO_COINCIDEN"},
		{validationf("x"), "VALIDACION"},
		{storagef("x", ErrStorage), "ALMACENAMIENTO"},
	}
	for _, tc := range testCases {
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %s, want %s", tc.err, got, tc.code)
		}
	}
}
