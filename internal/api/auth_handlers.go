package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"receipt-server/internal/auth"
	"receipt-server/internal/database"
	"receipt-server/internal/models"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email       string `json:"email" example:"user@example.com"`
	Password    string `json:"password" example:"password123"`
	PhoneNumber string `json:"phone_number" example:"+15551234567"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"password123"`
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...."`
}

// @Summary      Registers a new user
// @Description  Creates a user account and returns the user plus a 7-day bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest   body      RegisterRequest  true  "Registration data"
// @Success      201               {object}  AuthResponse
// @Failure      400               {string}  string "Invalid request body"
// @Failure      409               {string}  string "Email already registered"
// @Failure      500               {string}  string "Internal Server Error"
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	phoneNumber := strings.TrimSpace(req.PhoneNumber)
	if phoneNumber == "" {
		http.Error(w, "Phone number is required", http.StatusBadRequest)
		return
	}
	if !auth.ValidPhoneNumber(phoneNumber) {
		http.Error(w, "Invalid phone number format. Use E.164 format (e.g., +15551234567)", http.StatusBadRequest)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		ID:           uuid.New(),
		Email:        req.Email,
		PhoneNumber:  phoneNumber,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		log.Printf("ERROR: Failed to create user: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(user, s.config.JWT.Secret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// @Summary      Logs a user in
// @Description  Authenticates by email and password and returns the user plus a 7-day bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      LoginRequest  true  "Login Credentials"
// @Success      200            {object}  AuthResponse
// @Failure      400            {string}  string "Invalid request body"
// @Failure      401            {string}  string "Invalid email or password"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user, s.config.JWT.Secret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

type CreateAPIKeyRequest struct {
	Name      string `json:"name" example:"My API Key"`
	ExpiresAt string `json:"expires_at,omitempty" example:"2025-12-31T23:59:59Z"`
}

type APIKeyResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Key       string     `json:"key" example:"ak_live_1234567890abcdef"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// @Summary      Creates an API key
// @Description  Generates a new API key for the authenticated user. The raw key is returned exactly once and only its hash is stored.
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        createAPIKeyRequest   body      CreateAPIKeyRequest  true  "Key name and optional RFC3339 expiry"
// @Success      201                   {object}  APIKeyResponse
// @Failure      400                   {string}  string "Invalid request body"
// @Failure      401                   {string}  string "Unauthorized"
// @Failure      500                   {string}  string "Internal Server Error"
// @Router       /auth/api-keys [post]
func (s *Server) CreateAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Key name cannot be empty", http.StatusBadRequest)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			http.Error(w, "Invalid expires_at, expected RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		expiresAt = &parsed
	}

	rawKey, keyHash, err := auth.GenerateAPIKey()
	if err != nil {
		log.Printf("ERROR: Failed to generate API key: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	key, err := s.store.CreateAPIKey(r.Context(), database.CreateAPIKeyParams{
		ID:        uuid.New(),
		UserID:    principal.ID,
		KeyHash:   keyHash,
		Name:      req.Name,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		log.Printf("ERROR: Failed to create API key for user %s: %v", principal.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, APIKeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		Key:       rawKey,
		CreatedAt: key.CreatedAt,
		ExpiresAt: key.ExpiresAt,
	})
}

// @Summary      Lists all users
// @Description  Returns all registered users ordered by creation time.
// @Tags         auth
// @Produce      json
// @Success      200 {array}   models.User
// @Failure      500 {string}  string "Internal Server Error"
// @Router       /users [get]
func (s *Server) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("ERROR: Failed to list users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
