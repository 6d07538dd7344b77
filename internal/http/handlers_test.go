package http_test

import (
	"context"
	"net/http"
	"testing"
)

func Test_Register_Login_Me(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/register",
		`{"email":"a@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register code=%d body=%s", w.Code, w.Body.String())
	}
	resp := env.decode(w)
	user, _ := resp.Data["user"].(map[string]any)
	if user["email"] != "a@b.com" {
		t.Fatalf("unexpected user email: %v", user["email"])
	}
	if _, found := user["password"]; found {
		t.Fatal("password leaked in register response")
	}
	if _, found := user["passwordHash"]; found {
		t.Fatal("password hash leaked in register response")
	}
	token, _ := resp.Data["token"].(string)
	if token == "" {
		t.Fatal("no session token in register response")
	}
	if verified, _ := user["isVerified"].(bool); verified {
		t.Fatal("freshly registered account must be unverified")
	}

	w = env.do("POST", "/api/auth/login", `{"email":"a@b.com","password":"Test@123456"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login code=%d body=%s", w.Code, w.Body.String())
	}
	resp = env.decode(w)
	token, _ = resp.Data["token"].(string)
	if token == "" {
		t.Fatal("no session token in login response")
	}

	w = env.do("GET", "/api/auth/me", "", bearer(token))
	if w.Code != http.StatusOK {
		t.Fatalf("me code=%d body=%s", w.Code, w.Body.String())
	}
	resp = env.decode(w)
	user, _ = resp.Data["user"].(map[string]any)
	if user["email"] != "a@b.com" {
		t.Fatalf("me returned wrong user: %v", user)
	}
}

func Test_Register_ValidationBeforePersistence(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/register",
		`{"email":"not-an-email","password":"weak","confirmPassword":"other"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := env.decode(w)
	if len(resp.Errors) < 3 {
		t.Fatalf("expected field errors for email, password and confirmPassword: %+v", resp.Errors)
	}

	if u, _ := env.Users.FindByEmail(context.Background(), "not-an-email"); u != nil {
		t.Fatal("invalid registration must not persist an account")
	}
}

func Test_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/register",
		`{"email":"dup@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("first register: %d %s", w.Code, w.Body.String())
	}

	// case-insensitive duplicate
	w = env.do("POST", "/api/auth/register",
		`{"email":"DUP@B.COM","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func Test_Login_NoAccountExistenceOracle(t *testing.T) {
	env := newTestEnv(t)

	_ = env.do("POST", "/api/auth/register",
		`{"email":"real@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)

	wrongPw := env.do("POST", "/api/auth/login", `{"email":"real@b.com","password":"Wrong@123456"}`, nil)
	unknown := env.do("POST", "/api/auth/login", `{"email":"ghost@b.com","password":"Wrong@123456"}`, nil)

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Fatalf("responses must be indistinguishable:\n%s\n%s", wrongPw.Body.String(), unknown.Body.String())
	}
}

func Test_VerifyEmail_SingleUse(t *testing.T) {
	env := newTestEnv(t)

	_ = env.do("POST", "/api/auth/register",
		`{"email":"ver@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)

	u, err := env.Users.FindByEmail(context.Background(), "ver@b.com")
	if err != nil || u == nil || u.VerificationToken == "" {
		t.Fatalf("expected stored verification token, got user=%+v err=%v", u, err)
	}
	token := u.VerificationToken

	w := env.do("GET", "/api/auth/verify-email/"+token, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}

	u, _ = env.Users.FindByEmail(context.Background(), "ver@b.com")
	if !u.IsVerified || u.VerificationToken != "" {
		t.Fatalf("verify must set verified and clear the token atomically: %+v", u)
	}

	w = env.do("GET", "/api/auth/verify-email/"+token, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("token reuse expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func Test_ResendVerification(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/resend-verification", `{"email":"nobody@b.com"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown email expected 404, got %d", w.Code)
	}

	_ = env.do("POST", "/api/auth/register",
		`{"email":"rv@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)
	before, _ := env.Users.FindByEmail(context.Background(), "rv@b.com")

	w = env.do("POST", "/api/auth/resend-verification", `{"email":"rv@b.com"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resend: %d %s", w.Code, w.Body.String())
	}
	after, _ := env.Users.FindByEmail(context.Background(), "rv@b.com")
	if after.VerificationToken == "" || after.VerificationToken == before.VerificationToken {
		t.Fatal("resend must rotate the verification token")
	}

	_ = env.do("GET", "/api/auth/verify-email/"+after.VerificationToken, "", nil)
	w = env.do("POST", "/api/auth/resend-verification", `{"email":"rv@b.com"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("already verified expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func Test_GuestRegister(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/guest-register", `{"role":"recruiter"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("guest register: %d %s", w.Code, w.Body.String())
	}
	resp := env.decode(w)
	user, _ := resp.Data["user"].(map[string]any)
	if guest, _ := user["isGuest"].(bool); !guest {
		t.Fatal("guest account must report isGuest=true")
	}
	if verified, _ := user["isVerified"].(bool); !verified {
		t.Fatal("guest account must be pre-verified")
	}
	if user["companyName"] != "Demo Company" {
		t.Fatalf("recruiter guest should get a placeholder company, got %v", user["companyName"])
	}
	creds, _ := resp.Data["credentials"].(map[string]any)
	email, _ := creds["email"].(string)
	password, _ := creds["password"].(string)
	if email == "" || password == "" {
		t.Fatalf("guest credentials missing: %+v", resp.Data)
	}

	// the synthesized credentials must work for a normal login
	w = env.do("POST", "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login with guest credentials: %d %s", w.Code, w.Body.String())
	}

	// an invalid role silently falls back to applicant
	w = env.do("POST", "/api/auth/guest-register", `{"role":"wizard"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("guest register with bad role: %d %s", w.Code, w.Body.String())
	}
	resp = env.decode(w)
	user, _ = resp.Data["user"].(map[string]any)
	if user["role"] != "applicant" {
		t.Fatalf("expected applicant fallback, got %v", user["role"])
	}
}

func Test_SwitchRole(t *testing.T) {
	env := newTestEnv(t)

	// full accounts may not switch roles
	w := env.do("POST", "/api/auth/register",
		`{"email":"full@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)
	fullToken, _ := env.decode(w).Data["token"].(string)
	w = env.do("POST", "/api/auth/switch-role", `{"newRole":"recruiter"}`, bearer(fullToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-guest switch expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if env.decode(w).Code != "GUEST_ONLY" {
		t.Fatalf("expected GUEST_ONLY code, body=%s", w.Body.String())
	}

	w = env.do("POST", "/api/auth/guest-register", `{}`, nil)
	guestToken, _ := env.decode(w).Data["token"].(string)

	w = env.do("POST", "/api/auth/switch-role", `{"newRole":"dragon"}`, bearer(guestToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid role expected 400, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do("POST", "/api/auth/switch-role", `{"newRole":"recruiter"}`, bearer(guestToken))
	if w.Code != http.StatusOK {
		t.Fatalf("switch: %d %s", w.Code, w.Body.String())
	}
	resp := env.decode(w)
	user, _ := resp.Data["user"].(map[string]any)
	if user["role"] != "recruiter" {
		t.Fatalf("role not switched: %v", user["role"])
	}
	meta, _ := user["guestMetadata"].(map[string]any)
	if count, _ := meta["roleSwitchCount"].(float64); count != 1 {
		t.Fatalf("expected roleSwitchCount=1, got %v", meta["roleSwitchCount"])
	}
	if tok, _ := resp.Data["token"].(string); tok == "" {
		t.Fatal("switch must reissue a session token")
	}

	w = env.do("POST", "/api/auth/switch-role", `{"newRole":"career_trainer"}`, bearer(guestToken))
	resp = env.decode(w)
	user, _ = resp.Data["user"].(map[string]any)
	meta, _ = user["guestMetadata"].(map[string]any)
	if count, _ := meta["roleSwitchCount"].(float64); count != 2 {
		t.Fatalf("expected roleSwitchCount=2, got %v", meta["roleSwitchCount"])
	}
}

func Test_UpgradeGuest(t *testing.T) {
	env := newTestEnv(t)

	// taken email to collide with
	_ = env.do("POST", "/api/auth/register",
		`{"email":"taken@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, nil)

	w := env.do("POST", "/api/auth/guest-register", `{}`, nil)
	guestToken, _ := env.decode(w).Data["token"].(string)

	w = env.do("POST", "/api/auth/upgrade-guest",
		`{"email":"real@b.com","password":"weak","confirmPassword":"weak"}`, bearer(guestToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("weak password expected 400, got %d", w.Code)
	}

	w = env.do("POST", "/api/auth/upgrade-guest",
		`{"email":"taken@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, bearer(guestToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("taken email expected 400, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do("POST", "/api/auth/upgrade-guest",
		`{"email":"real@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, bearer(guestToken))
	if w.Code != http.StatusOK {
		t.Fatalf("upgrade: %d %s", w.Code, w.Body.String())
	}
	resp := env.decode(w)
	user, _ := resp.Data["user"].(map[string]any)
	if guest, _ := user["isGuest"].(bool); guest {
		t.Fatal("upgraded account must not be a guest")
	}
	if verified, _ := user["isVerified"].(bool); verified {
		t.Fatal("upgraded account must re-verify its email")
	}

	// upgraded account can complete verification under the new address
	u, _ := env.Users.FindByEmail(context.Background(), "real@b.com")
	if u == nil || u.VerificationToken == "" {
		t.Fatalf("expected fresh verification token after upgrade: %+v", u)
	}
	if u.GuestMetadata == nil || u.GuestMetadata.UpgradedAt == nil {
		t.Fatal("upgrade must record upgradedAt")
	}
	w = env.do("GET", "/api/auth/verify-email/"+u.VerificationToken, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify after upgrade: %d %s", w.Code, w.Body.String())
	}

	// the one-way transition: a second upgrade attempt is forbidden
	newToken, _ := resp.Data["token"].(string)
	w = env.do("POST", "/api/auth/upgrade-guest",
		`{"email":"again@b.com","password":"Test@123456","confirmPassword":"Test@123456"}`, bearer(newToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("re-upgrade expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func Test_OAuthPlaceholders(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/auth/google", "/api/auth/google/callback",
		"/api/auth/github", "/api/auth/github/callback",
	} {
		w := env.do("GET", path, "", nil)
		if w.Code != http.StatusNotImplemented {
			t.Fatalf("%s expected 501, got %d", path, w.Code)
		}
	}
}

func Test_Me_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = env.do("GET", "/api/auth/me", "", bearer("garbage.token.here"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}
}

func Test_GuestRegister_RateLimited(t *testing.T) {
	env := newTestEnvWithLimit(t, 10)

	for i := 0; i < 10; i++ {
		w := env.do("POST", "/api/auth/guest-register", `{}`, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: %d %s", i+1, w.Code, w.Body.String())
		}
	}
	w := env.do("POST", "/api/auth/guest-register", `{}`, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("11th request expected 429, got %d: %s", w.Code, w.Body.String())
	}
	if env.decode(w).Code != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED code, body=%s", w.Body.String())
	}
}
