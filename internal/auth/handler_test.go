package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetgrid/fleetgrid/internal/auth"
	"github.com/fleetgrid/fleetgrid/internal/shared"
	_ "github.com/fleetgrid/fleetgrid/testing"
)

type stubRepo struct {
	account  *auth.Account
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	if s.account == nil || s.account.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type commitWriter struct {
	http.ResponseWriter
	ctx       context.Context
	req       *http.Request
	sess      *shared.Session
	manager   *shared.SessionManager
	committed bool
}

func (w *commitWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		_ = w.manager.Commit(w.ctx, w.ResponseWriter, w.req, w.sess)
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func newAuthServer(t *testing.T, repo auth.Repository) (*httptest.Server, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, csrfManager)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			if err != nil {
				t.Errorf("load session: %v", err)
				http.Error(w, "session", http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithSession(req.Context(), sess)
			req = req.WithContext(ctx)
			// Session must be committed before the first body byte.
			next.ServeHTTP(&commitWriter{ResponseWriter: w, ctx: ctx, req: req, sess: sess, manager: sessionManager}, req)
		})
	})
	r.Route("/auth", handler.MountRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sessionManager
}

func TestLoginSuccess(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{account: &auth.Account{ID: 7, TenantID: 3, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}
	srv, _ := newAuthServer(t, repo)

	res, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(`{"email":"user@test.local","password":"correctpass"}`))
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var body struct {
		UserID    int64  `json:"user_id"`
		TenantID  int64  `json:"tenant_id"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != 7 || body.TenantID != 3 {
		t.Fatalf("unexpected identity in response: %+v", body)
	}
	if body.CSRFToken == "" {
		t.Fatal("expected csrf token in response")
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected one registered session, got %d", len(repo.sessions))
	}
	foundCookie := false
	for _, c := range res.Cookies() {
		if c.Name == "test_session" && c.Value != "" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Fatal("expected session cookie to be set")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{account: &auth.Account{ID: 7, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}
	srv, _ := newAuthServer(t, repo)

	res, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(`{"email":"user@test.local","password":"wrongpass1"}`))
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("no session may be registered on failed login")
	}
}

func TestLoginValidation(t *testing.T) {
	srv, _ := newAuthServer(t, &stubRepo{})

	res, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	repo := &stubRepo{account: &auth.Account{ID: 7, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}
	srv, _ := newAuthServer(t, repo)

	res, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(`{"email":"user@test.local","password":"correctpass"}`))
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	res.Body.Close()
	var sessionCookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "test_session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("missing session cookie after login")
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/logout", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(sessionCookie)
	out, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post logout: %v", err)
	}
	defer out.Body.Close()

	if out.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", out.StatusCode)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("expected session record to be removed")
	}
}
