package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleApplicant     Role = "applicant"
	RoleRecruiter     Role = "recruiter"
	RoleCareerTrainer Role = "career_trainer"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleApplicant, RoleRecruiter, RoleCareerTrainer:
		return true
	}
	return false
}

// GuestMetadata is populated only for demo accounts. UpgradedAt stays nil
// until the one-way guest→full transition happens.
type GuestMetadata struct {
	CreatedAt       *time.Time `bson:"created_at,omitempty"    json:"createdAt,omitempty"`
	OriginalRole    Role       `bson:"original_role,omitempty" json:"originalRole,omitempty"`
	RoleSwitchCount int        `bson:"role_switch_count"       json:"roleSwitchCount"`
	UpgradedAt      *time.Time `bson:"upgraded_at,omitempty"   json:"upgradedAt,omitempty"`
}

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"                json:"id"`
	Email             string             `bson:"email"                        json:"email"`
	PasswordHash      string             `bson:"password_hash"                json:"-"`
	Name              string             `bson:"name,omitempty"               json:"name,omitempty"`
	Role              Role               `bson:"role"                         json:"role"`
	CompanyName       string             `bson:"company_name,omitempty"       json:"companyName,omitempty"`
	CompanyID         string             `bson:"company_id,omitempty"         json:"companyId,omitempty"`
	IsVerified        bool               `bson:"is_verified"                  json:"isVerified"`
	VerificationToken string             `bson:"verification_token,omitempty" json:"-"`
	IsGuest           bool               `bson:"is_guest"                     json:"isGuest"`
	GuestMetadata     *GuestMetadata     `bson:"guest_metadata,omitempty"     json:"guestMetadata,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"                   json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updated_at"                   json:"updatedAt"`
}
