package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"receipt-server/internal/auth"
)

type contextKey string

const userContextKey = contextKey("user")

var errUnauthorized = errors.New("invalid or missing credentials")

// resolvePrincipal turns a raw Authorization header value into a Principal.
// Two short-circuit branches, tried in order: a Bearer token resolves from
// its own claims without touching storage; an ApiKey value is verified
// against every active key hash. Every failure collapses to errUnauthorized
// so callers cannot tell which check rejected them.
func (s *Server) resolvePrincipal(ctx context.Context, headerValue string) (*auth.Principal, error) {
	if token, ok := strings.CutPrefix(headerValue, "Bearer "); ok {
		claims, err := auth.VerifyJWT(token, s.config.JWT.Secret)
		if err != nil {
			return nil, errUnauthorized
		}
		return &auth.Principal{
			ID:          claims.UserID,
			Email:       claims.Email,
			PhoneNumber: claims.PhoneNumber,
		}, nil
	}

	if key, ok := strings.CutPrefix(headerValue, "ApiKey "); ok {
		return s.resolveAPIKey(ctx, key)
	}

	return nil, errUnauthorized
}

// resolveAPIKey scans all non-expired key hashes until one verifies. Only
// the matching key gets its last_used_at updated; failed attempts never
// mutate state. The linear scan is the price of storing keys exactly like
// passwords, with no lookupable key material.
func (s *Server) resolveAPIKey(ctx context.Context, key string) (*auth.Principal, error) {
	keys, err := s.store.ListActiveAPIKeys(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to list API keys: %v", err)
		return nil, errUnauthorized
	}

	for _, candidate := range keys {
		if !auth.CheckPasswordHash(key, candidate.KeyHash) {
			continue
		}

		if err := s.store.TouchAPIKeyLastUsed(ctx, candidate.ID); err != nil {
			log.Printf("ERROR: Failed to update last_used_at for API key %s: %v", candidate.ID, err)
			return nil, errUnauthorized
		}

		user, err := s.store.GetUserByID(ctx, candidate.UserID)
		if err != nil || user == nil {
			return nil, errUnauthorized
		}

		return &auth.Principal{
			ID:          user.ID,
			Email:       user.Email,
			PhoneNumber: user.PhoneNumber,
		}, nil
	}

	return nil, errUnauthorized
}

func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		principal, err := s.resolvePrincipal(r.Context(), authHeader)
		if err != nil {
			http.Error(w, "Invalid or expired credentials", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, principal)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserFromContext(ctx context.Context) *auth.Principal {
	if principal, ok := ctx.Value(userContextKey).(*auth.Principal); ok {
		return principal
	}
	return nil
}
