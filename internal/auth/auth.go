// Package auth implements credential sign-in and cookie-based sessions for
// the dashboard. Sessions live in an in-memory map; login attempts are rate
// limited through Redis when available.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecosan/sanitrack/internal/config"
	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/pkg/logger"
)

// Sentinel errors for the auth layer.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")
)

// UserDirectory resolves accounts for credential verification. The user
// service satisfies this.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Session represents an authenticated user session.
type Session struct {
	ID        string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager handles credential verification and session lifecycle.
type Manager struct {
	cfg      config.AuthConfig
	users    UserDirectory
	rdb      *redis.Client // nil disables rate limiting
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates an authentication manager. rdb may be nil; login rate
// limiting is then skipped.
func NewManager(cfg config.AuthConfig, users UserDirectory, rdb *redis.Client) *Manager {
	return &Manager{
		cfg:      cfg,
		users:    users,
		rdb:      rdb,
		sessions: make(map[string]*Session),
	}
}

// generateSessionID creates a random session ID
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Login verifies the credential pair and creates a session on success.
// Inactive accounts and unknown emails fail identically to a bad password.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := m.checkAttempts(ctx, email); err != nil {
		return nil, err
	}

	u, err := m.users.GetByEmail(ctx, email)
	if err != nil || !u.Active {
		m.recordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		m.recordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	m.clearFailures(ctx, email)

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := time.Now()
	sess := &Session{
		ID:        id,
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.SessionTTL()),
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	logger.Info("user signed in", "email", u.Email)
	return sess, nil
}

// Logout destroys the session with the given id. Unknown ids are a no-op.
func (m *Manager) Logout(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// SessionByID returns a live session. Expired sessions are dropped on access.
func (m *Manager) SessionByID(id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(sess.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, false
	}
	return sess, true
}

// SessionFromRequest resolves the session referenced by the request cookie.
func (m *Manager) SessionFromRequest(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil, false
	}
	return m.SessionByID(cookie.Value)
}

// IsAuthenticated reports whether the request carries a live session.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	_, ok := m.SessionFromRequest(r)
	return ok
}

// ---------------------------------------------------------------------------
// Login rate limiting (Redis)
// ---------------------------------------------------------------------------

func (m *Manager) attemptsKey(email string) string {
	return "login_attempts:" + email
}

func (m *Manager) checkAttempts(ctx context.Context, email string) error {
	if m.rdb == nil {
		return nil
	}
	n, err := m.rdb.Get(ctx, m.attemptsKey(email)).Int()
	if err != nil && err != redis.Nil {
		// Redis being down must not lock admins out.
		logger.Warn("login rate limit check failed", "error", err)
		return nil
	}
	if n >= m.cfg.MaxLoginAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

func (m *Manager) recordFailure(ctx context.Context, email string) {
	if m.rdb == nil {
		return
	}
	key := m.attemptsKey(email)
	pipe := m.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, m.cfg.Lockout())
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("login rate limit update failed", "error", err)
	}
}

func (m *Manager) clearFailures(ctx context.Context, email string) {
	if m.rdb == nil {
		return
	}
	if err := m.rdb.Del(ctx, m.attemptsKey(email)).Err(); err != nil {
		logger.Warn("login rate limit reset failed", "error", err)
	}
}

// ---------------------------------------------------------------------------
// HTTP handlers
// ---------------------------------------------------------------------------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin processes a credential sign-in.
//
//	POST /auth/login
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := m.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, ErrTooManyAttempts) {
			status = http.StatusTooManyRequests
		}
		writeAuthError(w, status, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

// HandleLogout destroys the current session and clears the cookie.
//
//	POST /auth/logout
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
		m.Logout(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleUserInfo returns the identity behind the current session.
//
//	GET /auth/user
func (m *Manager) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	sess, ok := m.SessionFromRequest(r)
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

// Middleware rejects requests without a live session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsAuthenticated(r) {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
