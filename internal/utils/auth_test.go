package utils

import (
	"testing"

	"github.com/umx-campus/accesogo/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("turno-nocturno-7")
	if err != nil {
		t.Fatalf("Failed to hash: %v", err)
	}

	if !CheckPasswordHash("turno-nocturno-7", hash) {
		t.Error("Correct password rejected")
	}
	if CheckPasswordHash("turno-nocturno-8", hash) {
		t.Error("Wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	guard := &models.GuardAuth{
		ID:    "a2e8b6a0-0000-0000-0000-000000000001",
		Email: "caseta1@umx.example",
		Role:  models.RoleGateGuard,
	}

	access, refresh, err := GenerateTokens(guard, secret)
	if err != nil {
		t.Fatalf("Failed to generate tokens: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("Empty token returned")
	}

	claims, err := ValidateToken(access, secret)
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}

	id, role, err := ClaimsToGuard(claims)
	if err != nil {
		t.Fatalf("Failed to resolve guard: %v", err)
	}
	if id != guard.ID {
		t.Errorf("ID mismatch: got %s, want %s", id, guard.ID)
	}
	if role != models.RoleGateGuard {
		t.Errorf("Role mismatch: got %s, want %s", role, models.RoleGateGuard)
	}

	if _, err := ValidateToken(access, "other-secret"); err == nil {
		t.Error("Token validated with wrong secret")
	}
}

func TestClaimsToGuardRejectsUnknownRole(t *testing.T) {
	secret := "test-secret"
	guard := &models.GuardAuth{ID: "x", Email: "x@umx.example", Role: "intendente"}

	access, _, err := GenerateTokens(guard, secret)
	if err != nil {
		t.Fatalf("Failed to generate tokens: %v", err)
	}
	claims, err := ValidateToken(access, secret)
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if _, _, err := ClaimsToGuard(claims); err == nil {
		t.Error("Unknown role should be rejected")
	}
}
