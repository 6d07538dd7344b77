package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/config"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/security"
)

// Double-submit-cookie CSRF protection. The SPA reads the XSRF-TOKEN cookie
// and echoes it in a custom header on state-changing requests; no server-side
// token storage is needed.
const (
	csrfCookie = "XSRF-TOKEN"
	csrfTTL    = 24 * time.Hour
)

// SetCSRFToken issues the anti-forgery cookie when the request has none.
// Not HttpOnly: client-side script must be able to read it.
func SetCSRFToken(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DisableCSRF {
			c.Next()
			return
		}
		if _, err := c.Cookie(csrfCookie); err != nil {
			tok, err := security.NewToken()
			if err == nil {
				c.SetSameSite(http.SameSiteStrictMode)
				c.SetCookie(csrfCookie, tok, int(csrfTTL/time.Second), "/", "", cfg.IsProduction(), false)
			}
		}
		c.Next()
	}
}

// ValidateCSRF enforces cookie/header agreement on unsafe methods.
func ValidateCSRF(cfg config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DisableCSRF {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookieTok, err := c.Cookie(csrfCookie)
		headerTok := c.GetHeader("X-XSRF-Token")
		if headerTok == "" {
			headerTok = c.GetHeader("X-CSRF-Token")
		}

		if err != nil || cookieTok == "" || headerTok == "" {
			logger.Warn("csrf token missing",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Bool("has_cookie", err == nil && cookieTok != ""),
				zap.Bool("has_header", headerTok != ""),
			)
			abortCode(c, http.StatusForbidden, "CSRF token missing", "CSRF_TOKEN_MISSING")
			return
		}

		if subtle.ConstantTimeCompare([]byte(cookieTok), []byte(headerTok)) != 1 {
			logger.Warn("csrf token mismatch",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			abortCode(c, http.StatusForbidden, "Invalid CSRF token", "CSRF_TOKEN_INVALID")
			return
		}

		c.Next()
	}
}
