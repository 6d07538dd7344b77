package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/config"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/domain"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/metrics"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/queue"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/repo"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/security"
)

// Guest credentials are deliberately disposable and shown to the user in the
// response, so a fixed low-entropy password is intended here.
const (
	guestPassword    = "Guest2024!"
	guestEmailDomain = "demo.yaake.com"
	demoCompanyName  = "Demo Company"
)

type Handler struct {
	Store    repo.Users
	Cfg      config.Config
	Log      *zap.Logger
	Events   queue.Publisher
	TokenTTL time.Duration
}

func NewHandler(store repo.Users, cfg config.Config, logger *zap.Logger, pub queue.Publisher) *Handler {
	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handler{Store: store, Cfg: cfg, Log: logger, Events: pub, TokenTTL: ttl}
}

func (h *Handler) issueToken(c *gin.Context, u *domain.User) (string, bool) {
	tok, err := security.MakeAccess(h.Cfg.JWTSecret, u.ID.Hex(), h.TokenTTL)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error")
		return "", false
	}
	return tok, true
}

func (h *Handler) publish(c *gin.Context, key string, event any) bool {
	if err := h.Events.Publish(c.Request.Context(), h.Cfg.Exchange, key, event, c.GetString(requestIDKey)); err != nil {
		h.Log.Error("event publish failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

type registerReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	CompanyName     string `json:"companyName"`
}

// Register godoc
// @Summary Register a new account (pending email verification)
// @Tags auth
// @Accept json
// @Produce json
// @Success 201
// @Failure 400
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if errs := validateCredentials(email, in.Password, in.ConfirmPassword); len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	if existing, err := h.Store.FindByEmail(c.Request.Context(), email); err != nil {
		h.Log.Error("register lookup failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during registration")
		return
	} else if existing != nil {
		fail(c, http.StatusBadRequest, "User with this email already exists")
		return
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during registration")
		return
	}
	verifyToken, err := security.NewToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error during registration")
		return
	}

	u := &domain.User{
		Email:             email,
		PasswordHash:      hash,
		Name:              strings.TrimSpace(in.Name),
		Role:              roleOrDefault(in.Role),
		CompanyName:       strings.TrimSpace(in.CompanyName),
		IsVerified:        false,
		VerificationToken: verifyToken,
	}
	if err := h.Store.Create(c.Request.Context(), u); err != nil {
		if err == repo.ErrDuplicateEmail {
			fail(c, http.StatusBadRequest, "User with this email already exists")
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during registration")
		return
	}

	emailSent := h.publish(c, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: u.ID, Email: u.Email, Name: u.Name, VerificationToken: verifyToken,
	})

	tok, okTok := h.issueToken(c, u)
	if !okTok {
		return
	}
	ok(c, http.StatusCreated,
		"User registered successfully. Please check your email to verify your account.",
		gin.H{"user": u, "token": tok, "emailSent": emailSent})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Success 200
// @Failure 401
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var errs []FieldError
	if !validEmail(email) {
		errs = append(errs, FieldError{Field: "email", Message: "Please provide a valid email address"})
	}
	if in.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	u, err := h.Store.FindByEmail(c.Request.Context(), email)
	if err != nil {
		h.Log.Error("login lookup failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during login")
		return
	}
	// identical response for unknown email and wrong password: no
	// account-existence oracle
	if u == nil || !security.CheckPassword(u.PasswordHash, in.Password) {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	tok, okTok := h.issueToken(c, u)
	if !okTok {
		return
	}
	ok(c, http.StatusOK, "Login successful", gin.H{"user": u, "token": tok})
}

// VerifyEmail consumes a single-use verification token.
func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	u, err := h.Store.ConsumeVerificationToken(c.Request.Context(), token)
	if err != nil {
		h.Log.Error("verification consume failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during email verification")
		return
	}
	if u == nil {
		fail(c, http.StatusBadRequest, "Invalid or expired verification token")
		return
	}

	// welcome mail is best effort and must not delay the response; the
	// request context is gone once the handler returns, so detach
	go func(ev queue.UserVerified, reqID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := h.Events.Publish(ctx, h.Cfg.Exchange, queue.KeyUserVerified, ev, reqID); err != nil {
			h.Log.Warn("welcome event publish failed", zap.Error(err))
		}
	}(queue.UserVerified{UserID: u.ID, Email: u.Email, Name: u.Name}, c.GetString(requestIDKey))

	ok(c, http.StatusOK, "Email verified successfully", nil)
}

type resendReq struct {
	Email string `json:"email"`
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var in resendReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validEmail(email) {
		failValidation(c, []FieldError{{Field: "email", Message: "Please provide a valid email address"}})
		return
	}

	u, err := h.Store.FindByEmail(c.Request.Context(), email)
	if err != nil {
		h.Log.Error("resend lookup failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error while resending verification email")
		return
	}
	if u == nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	if u.IsVerified {
		fail(c, http.StatusBadRequest, "Email is already verified")
		return
	}

	verifyToken, err := security.NewToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error while resending verification email")
		return
	}
	if err := h.Store.SetVerificationToken(c.Request.Context(), u.ID, verifyToken); err != nil {
		h.Log.Error("verification token rotate failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error while resending verification email")
		return
	}

	emailSent := h.publish(c, queue.KeyVerificationResent, queue.UserRegistered{
		UserID: u.ID, Email: u.Email, Name: u.Name, VerificationToken: verifyToken,
	})
	ok(c, http.StatusOK, "Verification email sent successfully", gin.H{"emailSent": emailSent})
}

// Me godoc
// @Summary Current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	u := currentUser(c)
	ok(c, http.StatusOK, "", gin.H{"user": u})
}

// Logout is stateless: the session token lives client-side only.
func (h *Handler) Logout(c *gin.Context) {
	ok(c, http.StatusOK, "Logout successful. Please remove the token from client storage.", nil)
}

type guestRegisterReq struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// GuestRegister creates a pre-verified demo account with synthesized
// credentials, which are returned in the response body.
func (h *Handler) GuestRegister(c *gin.Context) {
	// an empty body is fine: everything about a guest has a default
	var in guestRegisterReq
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	name := strings.TrimSpace(in.Name)
	if name != "" && (len(name) < 2 || len(name) > 100) {
		failValidation(c, []FieldError{{Field: "name", Message: "Name must be between 2 and 100 characters"}})
		return
	}
	// an invalid role falls back to applicant instead of failing: guest
	// creation is meant to be friction-free
	role := roleOrDefault(in.Role)

	suffix, err := security.NewToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error during guest registration")
		return
	}
	guestEmail := fmt.Sprintf("guest-%d-%s@%s", time.Now().UnixMilli(), suffix[:8], guestEmailDomain)

	hash, err := security.HashPassword(guestPassword)
	if err != nil {
		h.Log.Error("guest password hash failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during guest registration")
		return
	}

	if name == "" {
		name = "Demo " + capitalize(string(role))
	}
	companyName := ""
	if role == domain.RoleRecruiter {
		companyName = demoCompanyName
	}

	now := time.Now().UTC()
	u := &domain.User{
		Email:        guestEmail,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CompanyName:  companyName,
		IsVerified:   true, // guests skip email verification
		IsGuest:      true,
		GuestMetadata: &domain.GuestMetadata{
			CreatedAt:       &now,
			OriginalRole:    role,
			RoleSwitchCount: 0,
		},
	}
	if err := h.Store.Create(c.Request.Context(), u); err != nil {
		h.Log.Error("guest create failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during guest registration")
		return
	}

	metrics.GuestAccountsCreated.Inc()
	h.Log.Info("guest account created",
		zap.String("guest_id", u.ID.Hex()), zap.String("role", string(role)), zap.String("name", name))
	h.publish(c, queue.KeyGuestCreated, queue.GuestCreated{
		UserID: u.ID, Email: u.Email, Name: u.Name, Role: string(role),
	})

	tok, okTok := h.issueToken(c, u)
	if !okTok {
		return
	}
	ok(c, http.StatusCreated, "Guest account created successfully! You're now in demo mode.", gin.H{
		"user":  u,
		"token": tok,
		"credentials": gin.H{
			"email":    guestEmail,
			"password": guestPassword,
		},
		"isGuest": true,
	})
}

type switchRoleReq struct {
	NewRole string `json:"newRole"`
}

// SwitchRole changes a guest's role and reissues the session token. Guarded
// by RequireGuest; the switch counter is bumped atomically in the store.
func (h *Handler) SwitchRole(c *gin.Context) {
	u := currentUser(c)

	var in switchRoleReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	newRole := domain.Role(in.NewRole)
	if !domain.ValidRole(newRole) {
		fail(c, http.StatusBadRequest, "Invalid role. Must be one of: applicant, recruiter, career_trainer")
		return
	}

	companyName := ""
	if newRole == domain.RoleRecruiter && u.CompanyName == "" {
		companyName = demoCompanyName
	}

	updated, err := h.Store.SwitchGuestRole(c.Request.Context(), u.ID, newRole, companyName)
	if err != nil {
		h.Log.Error("role switch failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during role switch")
		return
	}
	if updated == nil {
		// account was upgraded between Auth and here
		abortCode(c, http.StatusForbidden, "This feature is only available for guest accounts", "GUEST_ONLY")
		return
	}

	h.Log.Info("guest role switched",
		zap.String("guest_id", u.ID.Hex()),
		zap.String("old_role", string(u.Role)),
		zap.String("new_role", string(newRole)),
		zap.Int("switch_count", switchCount(updated)))

	tok, okTok := h.issueToken(c, updated)
	if !okTok {
		return
	}
	ok(c, http.StatusOK, fmt.Sprintf("Role switched to %s successfully", newRole),
		gin.H{"user": updated, "token": tok})
}

type upgradeGuestReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpgradeGuest converts a demo account into a full one. The account drops its
// verified status and must re-verify under the real email address; the guest
// flag never flips back.
func (h *Handler) UpgradeGuest(c *gin.Context) {
	u := currentUser(c)

	var in upgradeGuestReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if errs := validateCredentials(email, in.Password, in.ConfirmPassword); len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	if email != strings.ToLower(u.Email) {
		existing, err := h.Store.FindByEmail(c.Request.Context(), email)
		if err != nil {
			h.Log.Error("upgrade lookup failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Server error during account upgrade")
			return
		}
		if existing != nil {
			fail(c, http.StatusBadRequest, "Email already registered")
			return
		}
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		h.Log.Error("upgrade password hash failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during account upgrade")
		return
	}
	verifyToken, err := security.NewToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error during account upgrade")
		return
	}

	updated, err := h.Store.UpgradeGuest(c.Request.Context(), u.ID, email, hash, verifyToken)
	if err != nil {
		if err == repo.ErrDuplicateEmail {
			fail(c, http.StatusBadRequest, "Email already registered")
			return
		}
		h.Log.Error("guest upgrade failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error during account upgrade")
		return
	}
	if updated == nil {
		abortCode(c, http.StatusForbidden, "This feature is only available for guest accounts", "GUEST_ONLY")
		return
	}

	emailSent := h.publish(c, queue.KeyGuestUpgraded, queue.UserRegistered{
		UserID: updated.ID, Email: updated.Email, Name: updated.Name, VerificationToken: verifyToken,
	})

	h.Log.Info("guest account upgraded",
		zap.String("user_id", updated.ID.Hex()), zap.String("new_email", updated.Email))

	tok, okTok := h.issueToken(c, updated)
	if !okTok {
		return
	}
	ok(c, http.StatusOK, "Account upgraded successfully! Please check your email to verify your account.",
		gin.H{"user": updated, "token": tok, "emailSent": emailSent})
}

// OAuthStub answers the not-yet-available OAuth routes.
func (h *Handler) OAuthStub(provider string) gin.HandlerFunc {
	msg := fmt.Sprintf("%s integration is not yet implemented. This is a placeholder for future development.", provider)
	return func(c *gin.Context) {
		fail(c, http.StatusNotImplemented, msg)
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func roleOrDefault(r string) domain.Role {
	role := domain.Role(r)
	if !domain.ValidRole(role) {
		return domain.RoleApplicant
	}
	return role
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func switchCount(u *domain.User) int {
	if u.GuestMetadata == nil {
		return 0
	}
	return u.GuestMetadata.RoleSwitchCount
}
