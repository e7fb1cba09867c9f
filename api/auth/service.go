package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/serviceiface"
	"BillTrackerSaas/internal/session"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials or user not found")
	ErrMaxUsers           = errors.New("maximum concurrent users reached")
	ErrSessionNotFound    = errors.New("session not found")
)

type UserSession struct {
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	LastLoginTime string `json:"last_login_time"`
	ClientIP      string `json:"client_ip"`
	IsLoggedIn    bool   `json:"is_logged_in"`
}

// UserRecord is a row of billtracker.users.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

// UserStore looks users up by login email.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
}

// PgUserStore reads billtracker.users.
type PgUserStore struct {
	pool *pgxpool.Pool
}

func NewPgUserStore(pool *pgxpool.Pool) *PgUserStore { return &PgUserStore{pool: pool} }

func (s *PgUserStore) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	var u UserRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, employee_name, email, password_hash, role, status
		FROM billtracker.users
		WHERE lower(email) = lower($1)`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

type AuthService struct {
	users          UserStore
	maxUsers       int
	sessionTimeout time.Duration
	cleanerPeriod  time.Duration
	sessions       *session.Manager
	active         map[string]*UserSession
	userPointers   map[string]*UserSession
	mu             sync.Mutex
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// NewAuthService builds the in-memory session registry. A zero maxUsers means
// no cap; a zero timeout means sessions last until logout.
func NewAuthService(users UserStore, maxUsers int, sessionTimeout, cleanerPeriod time.Duration) *AuthService {
	if cleanerPeriod <= 0 {
		cleanerPeriod = 10 * time.Minute
	}
	return &AuthService{
		users:          users,
		maxUsers:       maxUsers,
		sessionTimeout: sessionTimeout,
		cleanerPeriod:  cleanerPeriod,
		sessions:       session.NewManager(),
		active:         make(map[string]*UserSession),
		userPointers:   make(map[string]*UserSession),
		stopCh:         make(chan struct{}),
	}
}

var _ serviceiface.Service = (*AuthService)(nil)

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	go a.sessionCleaner()
	return nil
}

func (a *AuthService) Stop() error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	return nil
}

func (a *AuthService) Login(ctx context.Context, username, password, clientIP string) (*UserSession, error) {
	username = strings.TrimSpace(username)

	a.mu.Lock()
	if existing, ok := a.userPointers[a.userIDByEmailLocked(username)]; ok && existing.IsLoggedIn {
		if _, live := a.sessions.GetSession(existing.SessionID); live {
			existing.LastLoginTime = time.Now().Format(time.RFC3339)
			existing.ClientIP = clientIP
			a.sessions.Touch(existing.SessionID, a.sessionTimeout)
			a.mu.Unlock()
			logger.Audit("User %s re-logged in, returning existing session", username)
			return existing, nil
		}
	}
	if a.maxUsers > 0 && len(a.active) >= a.maxUsers {
		a.mu.Unlock()
		return nil, ErrMaxUsers
	}
	a.mu.Unlock()

	if a.users == nil {
		return nil, ErrInvalidCredentials
	}
	user, err := a.users.FindByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("login %s: %w", username, err)
	}
	if user.Status != "" && !strings.EqualFold(user.Status, "active") {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	s := a.sessions.CreateSession(user.ID, a.sessionTimeout)
	us := &UserSession{
		SessionID:     s.ID,
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		LastLoginTime: time.Now().Format(time.RFC3339),
		ClientIP:      clientIP,
		IsLoggedIn:    true,
	}

	a.mu.Lock()
	if prev, ok := a.userPointers[user.ID]; ok {
		delete(a.active, prev.SessionID)
		a.sessions.DeleteSession(prev.SessionID)
	}
	a.active[s.ID] = us
	a.userPointers[user.ID] = us
	a.mu.Unlock()

	logger.Audit("User logged in: %s", username)
	return us, nil
}

func (a *AuthService) userIDByEmailLocked(email string) string {
	for id, s := range a.userPointers {
		if strings.EqualFold(s.Email, email) {
			return id
		}
	}
	return ""
}

func (a *AuthService) Logout(sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	us, exists := a.active[sessionID]
	if !exists {
		return ErrSessionNotFound
	}
	delete(a.active, sessionID)
	delete(a.userPointers, us.UserID)
	a.sessions.DeleteSession(sessionID)

	logger.Audit("User logged out: %s", us.UserID)
	return nil
}

var globalAuthService *AuthService

// SetGlobalAuthService sets the global AuthService instance
func SetGlobalAuthService(svc *AuthService) {
	globalAuthService = svc
}

// GetActiveSessions returns active sessions from the global AuthService
func GetActiveSessions() []*UserSession {
	if globalAuthService == nil {
		return nil
	}
	return globalAuthService.GetActiveSessions()
}

// SessionForUser returns the live session of userID from the global AuthService.
func SessionForUser(userID string) (*UserSession, bool) {
	if globalAuthService == nil {
		return nil, false
	}
	return globalAuthService.SessionForUser(userID)
}

func (a *AuthService) GetActiveSessions() []*UserSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	sessions := make([]*UserSession, 0, len(a.active))
	for id, s := range a.active {
		if _, live := a.sessions.GetSession(id); live {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

func (a *AuthService) SessionForUser(userID string) (*UserSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	us, ok := a.userPointers[userID]
	if !ok {
		return nil, false
	}
	if _, live := a.sessions.GetSession(us.SessionID); !live {
		return nil, false
	}
	return us, true
}

func (a *AuthService) sessionCleaner() {
	ticker := time.NewTicker(a.cleanerPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.expireSessions()
		}
	}
}

func (a *AuthService) expireSessions() int {
	removed := a.sessions.CleanupExpiredSessions()
	if len(removed) == 0 {
		return 0
	}
	a.mu.Lock()
	for _, id := range removed {
		if us, ok := a.active[id]; ok {
			delete(a.active, id)
			if a.userPointers[us.UserID] == us {
				delete(a.userPointers, us.UserID)
			}
		}
	}
	a.mu.Unlock()
	logger.Audit("Expired %d session(s)", len(removed))
	return len(removed)
}

// HashPassword returns the bcrypt hash stored in billtracker.users.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
