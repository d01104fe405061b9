package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/virtuline/accounthub/internal/accounts"
	"github.com/virtuline/accounthub/internal/auth"
	"github.com/virtuline/accounthub/internal/config"
	httpx "github.com/virtuline/accounthub/internal/http"
	"github.com/virtuline/accounthub/internal/repo/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// captureMailer keeps every token so the test can walk the email flows.

type captureMailer struct {
	validationTokens []string
	resetTokens      []string
}

func (c *captureMailer) SendValidationEmail(ctx context.Context, email, name, token string) error {
	c.validationTokens = append(c.validationTokens, token)
	return nil
}

func (c *captureMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return nil
}

func (c *captureMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	c.resetTokens = append(c.resetTokens, token)
	return nil
}

func (c *captureMailer) SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error {
	return nil
}

func newTestServer(t *testing.T) (*gin.Engine, *captureMailer) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewAccountsRepo()
	mail := &captureMailer{}
	sessions := auth.NewManager("integration-secret", time.Hour, nil)
	svc := accounts.NewService(store, mail, sessions, log)

	cfg := config.Config{
		Env:            "dev",
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	r := httpx.NewRouter(cfg, httpx.RouterDeps{
		Log:      log,
		Accounts: svc,
		Sessions: sessions,
	})

	return r, mail
}

func post(t *testing.T, r *gin.Engine, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)

	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupValidateLoginLogout(t *testing.T) {
	r, mail := newTestServer(t)

	w := post(t, r, "/accounts", "", gin.H{
		"email":    "ada@example.com",
		"password": "Str0ng!Pass",
		"fullName": "Ada Lovelace",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}

	if len(mail.validationTokens) != 1 {
		t.Fatalf("validation emails = %d, want 1", len(mail.validationTokens))
	}

	// login must be refused while the account is pending
	w = post(t, r, "/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "Str0ng!Pass",
	})

	if w.Code != http.StatusForbidden {
		t.Fatalf("login while pending: status = %d", w.Code)
	}

	w = post(t, r, "/accounts/validate-email", "", gin.H{
		"token": mail.validationTokens[0],
	})

	if w.Code != http.StatusNoContent {
		t.Fatalf("validate: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = post(t, r, "/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "Str0ng!Pass",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", w.Code, w.Body.String())
	}

	var loginOut map[string]string

	if err := json.Unmarshal(w.Body.Bytes(), &loginOut); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	token := loginOut["sessionToken"]

	if token == "" {
		t.Fatal("no session token in the login response")
	}

	w = post(t, r, "/auth/logout", token, gin.H{})

	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: status = %d, body = %s", w.Code, w.Body.String())
	}

	// logout without a token is refused at the middleware
	w = post(t, r, "/auth/logout", "", gin.H{})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("logout without token: status = %d", w.Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	r, mail := newTestServer(t)

	w := post(t, r, "/accounts", "", gin.H{
		"email":    "ada@example.com",
		"password": "Str0ng!Pass",
		"fullName": "Ada Lovelace",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", w.Code)
	}

	w = post(t, r, "/accounts/validate-email", "", gin.H{
		"token": mail.validationTokens[0],
	})

	if w.Code != http.StatusNoContent {
		t.Fatalf("validate: status = %d", w.Code)
	}

	// unknown email gets the same accepted response
	w = post(t, r, "/auth/password-reset/request", "", gin.H{
		"email": "ghost@example.com",
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("request for unknown email: status = %d", w.Code)
	}

	if len(mail.resetTokens) != 0 {
		t.Fatal("a reset email went out for an unknown address")
	}

	w = post(t, r, "/auth/password-reset/request", "", gin.H{
		"email": "ada@example.com",
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("request: status = %d", w.Code)
	}

	if len(mail.resetTokens) != 1 {
		t.Fatalf("reset emails = %d, want 1", len(mail.resetTokens))
	}

	w = post(t, r, "/auth/password-reset/confirm", "", gin.H{
		"token":       mail.resetTokens[0],
		"newPassword": "An0ther!Pass",
	})

	if w.Code != http.StatusNoContent {
		t.Fatalf("confirm: status = %d, body = %s", w.Code, w.Body.String())
	}

	// the old password is dead, the new one works
	w = post(t, r, "/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "Str0ng!Pass",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old password: status = %d", w.Code)
	}

	w = post(t, r, "/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "An0ther!Pass",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("new password: status = %d, body = %s", w.Code, w.Body.String())
	}
}
