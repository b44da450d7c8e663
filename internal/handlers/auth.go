package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/umx-campus/accesogo/internal/models"
	"github.com/umx-campus/accesogo/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a guard registration request
type RegisterRequest struct {
	Username string           `json:"username"`
	Password string           `json:"password"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Role     models.GuardRole `json:"role"`
	Turno    string           `json:"turno"`
}

// login handles guard login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// 1. Find Guard
	var guard models.GuardAuth
	if err := r.db.Where("email = ?", loginReq.Email).First(&guard).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 2. Check Password
	if !utils.CheckPasswordHash(loginReq.Password, guard.Password) {
		r.db.Model(&guard).Update("failed_login_attempts", guard.FailedLoginAttempts+1)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !guard.IsActive {
		respondError(w, http.StatusUnauthorized, "Account disabled")
		return
	}

	// 3. Update Last Login
	now := time.Now()
	guard.LastLogin = &now
	r.db.Save(&guard)

	// 4. Generate Tokens
	accessToken, refreshToken, err := utils.GenerateTokens(&guard, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"guard": guard,
	})
}

// register handles guard registration
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var regReq RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&regReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if regReq.Role == "" {
		regReq.Role = models.RoleGateGuard
	}
	if !regReq.Role.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown guard role")
		return
	}

	// 1. Hash Password
	hashedPassword, err := utils.HashPassword(regReq.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	// 2. Create Guard
	guard := models.GuardAuth{
		Username: regReq.Username,
		Email:    regReq.Email,
		Password: hashedPassword,
		Name:     regReq.Name,
		Role:     regReq.Role,
		Turno:    regReq.Turno,
	}

	if err := r.db.Create(&guard).Error; err != nil {
		respondError(w, http.StatusBadRequest, "Failed to create guard (email or username might exist)")
		return
	}

	// 3. Generate Tokens for immediate login
	accessToken, refreshToken, err := utils.GenerateTokens(&guard, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Guard created but failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Guard registered successfully",
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"guard": guard,
	})
}

// logout handles guard logout
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	// Token invalidation is client-side; the short expiry bounds exposure
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
