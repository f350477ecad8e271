package admin

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

// UserHandler manages operator accounts. Routes using it sit behind the
// superadmin middleware.
type UserHandler struct {
	users *repositories.UserRepository
}

func NewUserHandler(users *repositories.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		log.Printf("Failed to list users: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	response.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	if req.Username == "" || req.Password == "" {
		response.RespondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "operator"
	}
	if req.Role != "operator" && req.Role != "superadmin" {
		response.RespondWithError(w, http.StatusBadRequest, "Unknown role: "+req.Role)
		return
	}

	if _, err := h.users.GetByUsername(req.Username); err == nil {
		response.RespondWithError(w, http.StatusBadRequest, "Username already exists")
		return
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		log.Printf("Failed to check username %s: %v", req.Username, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	passwordHash, err := services.HashPassword(req.Password)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         req.Role,
	}
	if err := h.users.Create(user); err != nil {
		log.Printf("Failed to create user %s: %v", req.Username, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	response.RespondWithJSON(w, http.StatusCreated, user)
}
