package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, gl *GuestLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())
	r.Use(SetCSRFToken(h.Cfg))
	r.Use(ValidateCSRF(h.Cfg, h.Log))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/verify-email/:token", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.GET("/me", h.Auth(), h.Me)
		auth.POST("/logout", h.Auth(), h.Logout)

		// guest/demo accounts
		auth.POST("/guest-register", gl.Middleware(), h.GuestRegister)
		auth.POST("/switch-role", h.Auth(), h.RequireGuest(), h.SwitchRole)
		auth.POST("/upgrade-guest", h.Auth(), h.RequireGuest(), h.UpgradeGuest)

		// OAuth placeholders
		auth.GET("/google", h.OAuthStub("Google OAuth"))
		auth.GET("/google/callback", h.OAuthStub("Google OAuth callback"))
		auth.GET("/github", h.OAuthStub("GitHub OAuth"))
		auth.GET("/github/callback", h.OAuthStub("GitHub OAuth callback"))
	}

	return r
}
