package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/millwork-io/shoptrak/internal/middleware"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login verifies credentials and issues a session token.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.UserAuth
	if err := r.db.Where("username = ? AND is_active = true", body.Username).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPasswordHash(body.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Token generation failed")
		return
	}

	now := time.Now().UTC()
	r.db.Model(&user).Update("last_login", now)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]string{
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// actorFrom returns the username of an authenticated request, or "anonymous".
func actorFrom(req *http.Request) string {
	claims, ok := req.Context().Value(middleware.UserContextKey).(jwt.MapClaims)
	if !ok {
		return "anonymous"
	}
	if u, _ := claims["username"].(string); u != "" {
		return u
	}
	return "anonymous"
}
