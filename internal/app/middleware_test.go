package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetgrid/fleetgrid/internal/app"
	"github.com/fleetgrid/fleetgrid/internal/auth"
	"github.com/fleetgrid/fleetgrid/internal/shared"
	_ "github.com/fleetgrid/fleetgrid/testing"
)

type stubAuthRepo struct {
	account *auth.Account
}

func (s *stubAuthRepo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	if s.account == nil || s.account.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubAuthRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubAuthRepo) DeleteSession(ctx context.Context, id string) error { return nil }

func (s *stubAuthRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

// newStackServer builds a server behind the full production middleware
// chain, with the auth routes and one mutating endpoint mounted.
func newStackServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := bcrypt.GenerateFromPassword([]byte("fleetgrid-dev"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := &stubAuthRepo{account: &auth.Account{
		ID:           7,
		TenantID:     1,
		Email:        "admin@borealis.local",
		PasswordHash: string(hash),
		IsActive:     true,
	}}
	authHandler := auth.NewHandler(logger, auth.NewService(repo), sessionManager, csrfManager)

	router := chi.NewRouter()
	for _, mw := range app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
	}) {
		router.Use(mw)
	}
	router.Route("/auth", authHandler.MountRoutes)
	router.Post("/widgets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginReachableWithoutCSRFToken(t *testing.T) {
	srv := newStackServer(t)

	body := `{"email":"admin@borealis.local","password":"fleetgrid-dev"}`
	resp, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login through middleware stack: got status %d, want 200", resp.StatusCode)
	}
	var session struct {
		UserID    int64  `json:"user_id"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if session.UserID != 7 {
		t.Fatalf("user id = %d, want 7", session.UserID)
	}
	if session.CSRFToken == "" {
		t.Fatal("login response carries no csrf token")
	}
	if len(resp.Cookies()) == 0 {
		t.Fatal("login set no session cookie")
	}
}

func TestMutationsStillRequireCSRFToken(t *testing.T) {
	srv := newStackServer(t)

	resp, err := http.Post(srv.URL+"/widgets", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("widgets request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("tokenless mutation: got status %d, want 403", resp.StatusCode)
	}
}

func TestLoginIssuedTokenAuthorizesMutations(t *testing.T) {
	srv := newStackServer(t)

	body := `{"email":"admin@borealis.local","password":"fleetgrid-dev"}`
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login: got status %d, want 200", loginResp.StatusCode)
	}
	var session struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&session); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/widgets", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for _, c := range loginResp.Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set(shared.CSRFHeader, session.CSRFToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("widgets request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("token-bearing mutation: got status %d, want 204", resp.StatusCode)
	}
}
