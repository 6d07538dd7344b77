package http_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/config"
	api "github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/http"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/queue"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/repo"
)

type testEnv struct {
	T      *testing.T
	Users  *repo.Memory
	Router *gin.Engine
}

func testConfig() config.Config {
	return config.Config{
		Env:                "development",
		FrontendURL:        "http://localhost:3000",
		JWTSecret:          "0123456789abcdef0123456789abcdef",
		JWTTTLHours:        24,
		Exchange:           "auth.events",
		DisableCSRF:        true,
		GuestRateLimit:     1000,
		GuestRateWindowMin: 15,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimit(t, 1000)
}

func newTestEnvWithLimit(t *testing.T, guestLimit int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	users := repo.NewMemory()
	logger := zap.NewNop()

	h := api.NewHandler(users, cfg, logger, queue.NewNoop())
	gl := api.NewGuestLimiter(nil, guestLimit, 15*time.Minute, logger)

	return &testEnv{T: t, Users: users, Router: api.NewRouter(h, gl)}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Code string `json:"code"`
}

func (e *testEnv) decode(w *httptest.ResponseRecorder) envelope {
	e.T.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		e.T.Fatalf("decode response: %v; body=%s", err, w.Body.String())
	}
	return env
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
