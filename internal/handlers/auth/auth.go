package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/evn/appgate/internal/models"
	"github.com/evn/appgate/internal/pkg/response"
	"github.com/evn/appgate/internal/repositories"
	services "github.com/evn/appgate/internal/services/auth"
)

type Handler struct {
	users      *repositories.UserRepository
	jwtService *services.JWTService
}

func NewHandler(users *repositories.UserRepository, jwtService *services.JWTService) *Handler {
	return &Handler{
		users:      users,
		jwtService: jwtService,
	}
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var loginData models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginData); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	user, err := h.users.GetByUsername(loginData.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			response.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		} else {
			log.Printf("Login lookup failed for %s: %v", loginData.Username, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !services.CheckPasswordHash(loginData.Password, user.PasswordHash) {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, refreshToken, err := h.jwtService.GenerateTokens(r.Context(), user.ID, user.Username, user.Role)
	if err != nil {
		log.Printf("Failed to generate tokens for %s: %v", user.Username, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
	})
}

// RefreshHandler rotates the refresh token: the presented one is revoked
// and a fresh pair is issued.
func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var body models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if body.RefreshToken == "" {
		response.RespondWithError(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(r.Context(), body.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		} else {
			log.Printf("Refresh token lookup failed: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		response.RespondWithError(w, http.StatusUnauthorized, "User no longer exists")
		return
	}

	accessToken, refreshToken, err := h.jwtService.GenerateTokens(r.Context(), user.ID, user.Username, user.Role)
	if err != nil {
		log.Printf("Failed to generate tokens for %s: %v", user.Username, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
	})
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var body models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		if err := h.jwtService.RevokeRefreshToken(r.Context(), body.RefreshToken); err != nil {
			log.Printf("Failed to revoke refresh token on logout: %v", err)
		}
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}
