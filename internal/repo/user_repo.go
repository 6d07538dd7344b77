package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/domain"
)

// ErrDuplicateEmail surfaces the unique-index violation so handlers can map
// it to an "already registered" response instead of a raw storage error.
var ErrDuplicateEmail = errors.New("email already registered")

// Users is the credential-store surface the handlers need. Lookups return
// (nil, nil) when no account matches.
type Users interface {
	Ping(ctx context.Context) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	SetVerificationToken(ctx context.Context, id primitive.ObjectID, token string) error
	ConsumeVerificationToken(ctx context.Context, token string) (*domain.User, error)
	SwitchGuestRole(ctx context.Context, id primitive.ObjectID, role domain.Role, companyName string) (*domain.User, error)
	UpgradeGuest(ctx context.Context, id primitive.ObjectID, email, passwordHash, verificationToken string) (*domain.User, error)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := s.users.InsertOne(ctx, u)
	if err != nil {
		if IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *Store) SetVerificationToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := s.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"verification_token": token,
		"is_verified":        false,
		"updated_at":         time.Now().UTC(),
	}})
	return err
}

// ConsumeVerificationToken marks the account verified and clears the token in
// a single FindOneAndUpdate, so a token can never be redeemed twice and no
// intermediate state is observable.
func (s *Store) ConsumeVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	res := s.users.FindOneAndUpdate(ctx,
		bson.M{"verification_token": token, "is_verified": false},
		bson.M{
			"$set":   bson.M{"is_verified": true, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"verification_token": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SwitchGuestRole updates the role and bumps the switch counter with $inc,
// filtered on is_guest so a concurrent upgrade cannot race it.
func (s *Store) SwitchGuestRole(ctx context.Context, id primitive.ObjectID, role domain.Role, companyName string) (*domain.User, error) {
	set := bson.M{"role": role, "updated_at": time.Now().UTC()}
	if companyName != "" {
		set["company_name"] = companyName
	}
	res := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_guest": true},
		bson.M{
			"$set": set,
			"$inc": bson.M{"guest_metadata.role_switch_count": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UpgradeGuest performs the one-way guest→full transition: new email and
// password hash, verification forced, upgrade timestamp recorded.
func (s *Store) UpgradeGuest(ctx context.Context, id primitive.ObjectID, email, passwordHash, verificationToken string) (*domain.User, error) {
	now := time.Now().UTC()
	res := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_guest": true},
		bson.M{"$set": bson.M{
			"email":                      strings.ToLower(email),
			"password_hash":              passwordHash,
			"is_guest":                   false,
			"is_verified":                false,
			"verification_token":         verificationToken,
			"guest_metadata.upgraded_at": now,
			"updated_at":                 now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}
