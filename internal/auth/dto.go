package auth

import (
	"github.com/google/uuid"

	"github.com/himalayan-naturals/storefront-backend/internal/referrals"
	"github.com/himalayan-naturals/storefront-backend/internal/users"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// SignupRequest carries the account fields plus an optional referral code.
type SignupRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6,max=128"`
	ReferralCode string `json:"referralCode" validate:"omitempty,max=32"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token paired with the (possibly expired)
// access token taken from the Authorization header.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair is returned by every endpoint that opens or rotates a session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is the login/signup/guest response body.
type SessionResponse struct {
	TokenPair
	User  *users.ProfileDTO `json:"user,omitempty"`
	Guest *GuestDTO         `json:"guest,omitempty"`
	// Referral is set when a referral code was applied during signup.
	Referral *referrals.Result `json:"referral,omitempty"`
	// ReferralError reports a rejected referral code. The account is still created.
	ReferralError string `json:"referralError,omitempty"`
}

// GuestDTO identifies a non-persisted guest session.
type GuestDTO struct {
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
	Role enums.Role `json:"role"`
}

// MeResponse describes the current session.
type MeResponse struct {
	Role  enums.Role        `json:"role"`
	User  *users.ProfileDTO `json:"user,omitempty"`
	Guest *GuestDTO         `json:"guest,omitempty"`
}

const guestDisplayName = "Guest User"

func guestDTO(id uuid.UUID) *GuestDTO {
	return &GuestDTO{ID: id, Name: guestDisplayName, Role: enums.RoleGuest}
}
