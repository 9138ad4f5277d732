package auth

import "github.com/google/uuid"

// Principal is the resolved identity attached to an authenticated request,
// whichever credential scheme produced it.
type Principal struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
}
