package queue

import "go.mongodb.org/mongo-driver/bson/primitive"

// Routing keys on the auth.events topic exchange. The notify worker binds
// user.# and picks a mail template by key.
const (
	KeyUserRegistered     = "user.registered"
	KeyVerificationResent = "user.verification_resent"
	KeyUserVerified       = "user.verified"
	KeyGuestCreated       = "user.guest_created"
	KeyGuestUpgraded      = "user.upgraded"
)

type UserRegistered struct {
	UserID            primitive.ObjectID `json:"user_id"`
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	VerificationToken string             `json:"verification_token"`
}

type UserVerified struct {
	UserID primitive.ObjectID `json:"user_id"`
	Email  string             `json:"email"`
	Name   string             `json:"name"`
}

type GuestCreated struct {
	UserID primitive.ObjectID `json:"user_id"`
	Email  string             `json:"email"`
	Name   string             `json:"name"`
	Role   string             `json:"role"`
}
