package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"receipt-server/internal/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func uniqueEmail() string {
	return fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8])
}

func postJSON(handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAPI_Register_Success(t *testing.T) {
	// Arrange
	email := uniqueEmail()
	payload := RegisterRequest{Email: email, Password: "password123", PhoneNumber: "+15551230001"}

	// Act
	rr := postJSON(testServer.RegisterHandler, "/auth/register", payload)

	// Assert
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, email, resp.User.Email)
	require.NotEmpty(t, resp.Token)

	claims, err := auth.VerifyJWT(resp.Token, testServer.config.JWT.Secret)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, email, claims.Email)
}

func TestAPI_Register_ThenLogin(t *testing.T) {
	email := uniqueEmail()
	rr := postJSON(testServer.RegisterHandler, "/auth/register",
		RegisterRequest{Email: email, Password: "s3cret-pass", PhoneNumber: "+15551230002"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(testServer.LoginHandler, "/auth/login",
		LoginRequest{Email: email, Password: "s3cret-pass"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, email, resp.User.Email)
	require.NotEmpty(t, resp.Token)
}

func TestAPI_Register_DuplicateEmail(t *testing.T) {
	email := uniqueEmail()
	payload := RegisterRequest{Email: email, Password: "password123", PhoneNumber: "+15551230003"}

	rr := postJSON(testServer.RegisterHandler, "/auth/register", payload)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(testServer.RegisterHandler, "/auth/register", payload)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestAPI_Register_InvalidPhoneNumber(t *testing.T) {
	cases := []string{"", "15551234567", "+123", "+1555abc4567"}
	for _, phone := range cases {
		rr := postJSON(testServer.RegisterHandler, "/auth/register",
			RegisterRequest{Email: uniqueEmail(), Password: "password123", PhoneNumber: phone})
		require.Equal(t, http.StatusBadRequest, rr.Code, "phone %q should be rejected", phone)
	}
}

func TestAPI_Register_MissingCredentials(t *testing.T) {
	rr := postJSON(testServer.RegisterHandler, "/auth/register",
		RegisterRequest{Email: "", Password: "password123", PhoneNumber: "+15551230004"})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(testServer.RegisterHandler, "/auth/register",
		RegisterRequest{Email: uniqueEmail(), Password: "", PhoneNumber: "+15551230004"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Login_WrongPassword(t *testing.T) {
	rr := postJSON(testServer.LoginHandler, "/auth/login",
		LoginRequest{Email: testUser.Email, Password: "not-the-password"})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Invalid email or password", strings.TrimSpace(rr.Body.String()))
}

func TestAPI_Login_UnknownEmail(t *testing.T) {
	rr := postJSON(testServer.LoginHandler, "/auth/login",
		LoginRequest{Email: "nobody@example.com", Password: "password123"})

	// Same status and body as a wrong password, so the two are indistinguishable.
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Invalid email or password", strings.TrimSpace(rr.Body.String()))
}

func TestAPI_CreateAPIKey_Success(t *testing.T) {
	// Arrange
	body, _ := json.Marshal(CreateAPIKeyRequest{Name: "test-integration-key"})
	req := httptest.NewRequest("POST", "/api/v1/auth/api-keys", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testPrincipal()))
	rr := httptest.NewRecorder()

	// Act
	http.HandlerFunc(testServer.CreateAPIKeyHandler).ServeHTTP(rr, req)

	// Assert
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp APIKeyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "test-integration-key", resp.Name)
	require.True(t, strings.HasPrefix(resp.Key, "ak_live_"))
	require.Nil(t, resp.ExpiresAt)

	// The raw key from the response must authenticate through the middleware.
	handler, captured := protectedProbe()
	authReq := httptest.NewRequest("GET", "/api/v1/receipts", nil)
	authReq.Header.Set("Authorization", "ApiKey "+resp.Key)
	authRR := httptest.NewRecorder()
	handler.ServeHTTP(authRR, authReq)
	require.Equal(t, http.StatusOK, authRR.Code)
	require.Equal(t, testUser.ID, captured.ID)
}

func TestAPI_CreateAPIKey_EmptyName(t *testing.T) {
	body, _ := json.Marshal(CreateAPIKeyRequest{Name: "   "})
	req := httptest.NewRequest("POST", "/api/v1/auth/api-keys", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testPrincipal()))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.CreateAPIKeyHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_CreateAPIKey_MalformedExpiry(t *testing.T) {
	body, _ := json.Marshal(CreateAPIKeyRequest{Name: "bad-expiry", ExpiresAt: "tomorrow"})
	req := httptest.NewRequest("POST", "/api/v1/auth/api-keys", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testPrincipal()))
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.CreateAPIKeyHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_ListUsers(t *testing.T) {
	req := httptest.NewRequest("GET", "/users", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(testServer.ListUsersHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.NotEmpty(t, users)
	// Password hashes never leave the API.
	for _, u := range users {
		require.NotContains(t, u, "password_hash")
	}
}
