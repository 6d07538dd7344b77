package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/domain"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/metrics"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/security"
)

const (
	authUserKey  = "auth_user"
	requestIDKey = "request_id"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Auth validates the bearer token and loads the account from the store. The
// token carries only the user id, so role and guest checks downstream always
// see the current record, not a claim frozen at issue time.
func (h *Handler) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		hdr := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			abortCode(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
			return
		}
		tok := strings.TrimSpace(hdr[len("Bearer "):])
		claims, err := security.ParseAccess(h.Cfg.JWTSecret, tok)
		if err != nil {
			abortCode(c, http.StatusUnauthorized, "Invalid or expired token", "AUTH_REQUIRED")
			return
		}
		oid, err := primitive.ObjectIDFromHex(claims.UID)
		if err != nil {
			abortCode(c, http.StatusUnauthorized, "Invalid or expired token", "AUTH_REQUIRED")
			return
		}
		u, err := h.Store.FindByID(c.Request.Context(), oid)
		if err != nil {
			h.Log.Error("auth lookup failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Server error")
			c.Abort()
			return
		}
		if u == nil {
			abortCode(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
			return
		}
		c.Set(authUserKey, u)
		c.Next()
	}
}

// RequireGuest gates the role-switch and upgrade endpoints. Must run after Auth.
func (h *Handler) RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			abortCode(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
			return
		}
		if !u.IsGuest {
			h.Log.Warn("non-guest attempted guest-only endpoint",
				zap.String("user_id", u.ID.Hex()), zap.String("path", c.FullPath()))
			abortCode(c, http.StatusForbidden, "This feature is only available for guest accounts", "GUEST_ONLY")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(authUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
