package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/wallhub/wallhub/internal/auth"
	"github.com/wallhub/wallhub/internal/profiles"
	"github.com/wallhub/wallhub/internal/shared"
	_ "github.com/wallhub/wallhub/testing"
)

type stubRepo struct {
	cred     *auth.Credential
	sessions map[string]string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	if s.cred == nil || s.cred.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.cred, nil
}

func (s *stubRepo) CreateCredential(ctx context.Context, cred auth.Credential) error {
	if s.cred != nil && s.cred.Email == cred.Email {
		return auth.ErrEmailTaken
	}
	s.cred = &cred
	return nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]string)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteSessionsForUser(ctx context.Context, userID string) error { return nil }

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) { return 0, nil }

type stubProfiles struct {
	byID    map[string]*profiles.Profile
	touched []string
}

func (s *stubProfiles) Fetch(ctx context.Context, id string) (*profiles.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubProfiles) Create(ctx context.Context, p profiles.Profile) (*profiles.Profile, error) {
	if s.byID == nil {
		s.byID = make(map[string]*profiles.Profile)
	}
	s.byID[p.ID] = &p
	return &p, nil
}

func (s *stubProfiles) TouchLastLogin(ctx context.Context, userID string) error {
	s.touched = append(s.touched, userID)
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository, profilePort auth.ProfilePort) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo, profilePort, bcrypt.MinCost), sessionManager, csrfManager)
	return handler, sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func activeUserFixture(t *testing.T) (*stubRepo, *stubProfiles) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{cred: &auth.Credential{UserID: "u1", Email: "user@test.local", PasswordHash: string(hashed)}}
	profilePort := &stubProfiles{byID: map[string]*profiles.Profile{
		"u1": {ID: "u1", Email: "user@test.local", RoleName: "user", Status: profiles.StatusActive},
	}}
	return repo, profilePort
}

func TestLoginSuccess(t *testing.T) {
	repo, profilePort := activeUserFixture(t)
	handler, sessionManager := newAuthHandler(t, repo, profilePort)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"user@test.local","password":"correctpass"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if sess.User() != "u1" {
		t.Fatalf("session user = %q, want u1", sess.User())
	}
	if _, ok := repo.sessions[sess.ID]; !ok {
		t.Fatal("session row not registered")
	}
	if len(profilePort.touched) != 1 || profilePort.touched[0] != "u1" {
		t.Fatal("last login not stamped")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo, profilePort := activeUserFixture(t)
	handler, sessionManager := newAuthHandler(t, repo, profilePort)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"user@test.local","password":"wrongpass1"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if sess.User() != "" {
		t.Fatal("session must not carry a user after a failed login")
	}
}

func TestLoginUnknownEmailSameAsWrongPassword(t *testing.T) {
	repo, profilePort := activeUserFixture(t)
	handler, sessionManager := newAuthHandler(t, repo, profilePort)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ghost@test.local","password":"correctpass"}`))
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLoginSuspendedAccountBlocked(t *testing.T) {
	repo, profilePort := activeUserFixture(t)
	profilePort.byID["u1"].Status = profiles.StatusSuspended
	handler, sessionManager := newAuthHandler(t, repo, profilePort)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"user@test.local","password":"correctpass"}`))
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestSignupCreatesPendingProfile(t *testing.T) {
	repo := &stubRepo{}
	profilePort := &stubProfiles{}
	handler, sessionManager := newAuthHandler(t, repo, profilePort)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"New@Test.Local","password":"longenough","full_name":"New User"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.SignupForTest(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if repo.cred == nil {
		t.Fatal("credential not created")
	}
	if repo.cred.Email != "new@test.local" {
		t.Fatalf("email not normalized: %q", repo.cred.Email)
	}
	created := profilePort.byID[repo.cred.UserID]
	if created == nil {
		t.Fatal("profile not created")
	}
	if created.Status != profiles.StatusPending {
		t.Fatalf("new accounts start pending, got %q", created.Status)
	}
	if created.RoleName != "user" {
		t.Fatalf("new accounts get the user role, got %q", created.RoleName)
	}
	if !created.Preferences.EmailNotifications || created.Preferences.Theme != "light" {
		t.Fatal("default preferences not applied")
	}
	if sess.User() != created.ID {
		t.Fatal("signup must sign the session in")
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo, profilePort := activeUserFixture(t)
	handler, sessionManager := newAuthHandler(t, repo, profilePort)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"user@test.local","password":"longenough","full_name":"Dup"}`))
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.SignupForTest(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}
