package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecosan/sanitrack/internal/config"
	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/service/user"
)

type fakeDirectory struct {
	users map[string]*domain.User
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := d.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(h)
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:           true,
		CookieName:        "sanitrack_session",
		SessionTTLMinutes: 60,
		MaxLoginAttempts:  3,
		LockoutMinutes:    15,
	}
}

func newTestManager(t *testing.T, rdb *redis.Client) *Manager {
	t.Helper()
	dir := &fakeDirectory{users: map[string]*domain.User{
		"maria@example.com": {
			ID:           "u-1",
			Email:        "maria@example.com",
			Name:         "Maria Gomez",
			Role:         domain.RoleAdmin,
			PasswordHash: hash(t, "correct-horse"),
			Active:       true,
		},
		"old@example.com": {
			ID:           "u-2",
			Email:        "old@example.com",
			Name:         "Former Staff",
			Role:         domain.RoleUser,
			PasswordHash: hash(t, "correct-horse"),
			Active:       false,
		},
	}}
	return NewManager(testConfig(), dir, rdb)
}

func TestLoginSuccess(t *testing.T) {
	m := newTestManager(t, nil)

	sess, err := m.Login(context.Background(), "Maria@Example.com ", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, "u-1", sess.UserID)
	assert.Equal(t, "admin", sess.Role)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, sess.ExpiresAt.After(sess.CreatedAt))

	got, ok := m.SessionByID(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess.UserID, got.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.Login(context.Background(), "maria@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownAndInactiveFailAlike(t *testing.T) {
	m := newTestManager(t, nil)

	_, errUnknown := m.Login(context.Background(), "nobody@example.com", "correct-horse")
	_, errInactive := m.Login(context.Background(), "old@example.com", "correct-horse")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errInactive, ErrInvalidCredentials)
}

func TestLoginRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := newTestManager(t, rdb)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := m.Login(ctx, "maria@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password is refused while locked out.
	_, err := m.Login(ctx, "maria@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	mr.FastForward(m.cfg.Lockout())
	_, err = m.Login(ctx, "maria@example.com", "correct-horse")
	assert.NoError(t, err)
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := newTestManager(t, rdb)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = m.Login(ctx, "maria@example.com", "wrong")
	}
	_, err := m.Login(ctx, "maria@example.com", "correct-horse")
	require.NoError(t, err)

	assert.False(t, mr.Exists("login_attempts:maria@example.com"))
}

func TestLogout(t *testing.T) {
	m := newTestManager(t, nil)

	sess, err := m.Login(context.Background(), "maria@example.com", "correct-horse")
	require.NoError(t, err)

	m.Logout(sess.ID)
	_, ok := m.SessionByID(sess.ID)
	assert.False(t, ok)
}

func TestHandleLoginSetsCookie(t *testing.T) {
	m := newTestManager(t, nil)

	body := strings.NewReader(`{"email":"maria@example.com","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()

	m.HandleLogin(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sanitrack_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var got Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "maria@example.com", got.Email)
}

func TestHandleLoginBadCredentials(t *testing.T) {
	m := newTestManager(t, nil)

	body := strings.NewReader(`{"email":"maria@example.com","password":"nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()

	m.HandleLogin(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestMiddleware(t *testing.T) {
	m := newTestManager(t, nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := m.Middleware(next)

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sess, err := m.Login(context.Background(), "maria@example.com", "correct-horse")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.AddCookie(&http.Cookie{Name: "sanitrack_session", Value: sess.ID})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleUserInfo(t *testing.T) {
	m := newTestManager(t, nil)

	sess, err := m.Login(context.Background(), "maria@example.com", "correct-horse")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.AddCookie(&http.Cookie{Name: "sanitrack_session", Value: sess.ID})
	rec := httptest.NewRecorder()
	m.HandleUserInfo(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Maria Gomez", got.Name)
}
