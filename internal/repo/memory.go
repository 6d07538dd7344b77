package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/domain"
)

// Memory is an in-process Users implementation used by handler tests. It
// mirrors the Mongo store's semantics: case-insensitive unique emails,
// atomic token consumption, guest-filtered updates.
type Memory struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[primitive.ObjectID]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.GuestMetadata != nil {
		gm := *u.GuestMetadata
		cp.GuestMetadata = &gm
	}
	return &cp
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.users[id]), nil
}

func (m *Memory) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = clone(u)
	return nil
}

func (m *Memory) SetVerificationToken(ctx context.Context, id primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.VerificationToken = token
		u.IsVerified = false
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *Memory) ConsumeVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	for _, u := range m.users {
		if u.VerificationToken == token && !u.IsVerified {
			u.IsVerified = true
			u.VerificationToken = ""
			u.UpdatedAt = time.Now().UTC()
			return clone(u), nil
		}
	}
	return nil, nil
}

func (m *Memory) SwitchGuestRole(ctx context.Context, id primitive.ObjectID, role domain.Role, companyName string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.IsGuest {
		return nil, nil
	}
	u.Role = role
	if companyName != "" {
		u.CompanyName = companyName
	}
	if u.GuestMetadata == nil {
		u.GuestMetadata = &domain.GuestMetadata{}
	}
	u.GuestMetadata.RoleSwitchCount++
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *Memory) UpgradeGuest(ctx context.Context, id primitive.ObjectID, email, passwordHash, verificationToken string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.IsGuest {
		return nil, nil
	}
	email = strings.ToLower(email)
	for oid, other := range m.users {
		if oid != id && other.Email == email {
			return nil, ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	u.Email = email
	u.PasswordHash = passwordHash
	u.IsGuest = false
	u.IsVerified = false
	u.VerificationToken = verificationToken
	if u.GuestMetadata == nil {
		u.GuestMetadata = &domain.GuestMetadata{}
	}
	u.GuestMetadata.UpgradedAt = &now
	u.UpdatedAt = now
	return clone(u), nil
}
