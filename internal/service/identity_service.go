package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

const minPasswordLength = 4

// AdminAccount is the single privileged identity. It is seeded from configuration,
// matched on its normalized username or any alias, and can never be registered.
type AdminAccount struct {
	Username string
	Aliases  []string
	Password string
}

func (a AdminAccount) Matches(username string) bool {
	normalized := normalizeUsername(username)
	if normalized == "" {
		return false
	}
	if normalized == normalizeUsername(a.Username) {
		return true
	}
	for _, alias := range a.Aliases {
		if normalized == normalizeUsername(alias) {
			return true
		}
	}
	return false
}

func (a AdminAccount) user() *models.User {
	return &models.User{
		Username:     normalizeUsername(a.Username),
		Role:         models.RoleAdmin,
		Transactions: []models.Transaction{},
	}
}

type IdentityService struct {
	log      *slog.Logger
	store    repository.Store
	sessions *SessionManager
	admin    AdminAccount
	notifier Notifier
	now      func() time.Time
}

func NewIdentityService(log *slog.Logger, store repository.Store, sessions *SessionManager, admin AdminAccount, notifier Notifier) *IdentityService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &IdentityService{
		log:      log,
		store:    store,
		sessions: sessions,
		admin:    admin,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates a regular user keyed by the username exactly as typed and logs it in.
func (s *IdentityService) Register(ctx context.Context, username, password string) (*Session, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidUsername
	}

	user := &models.User{
		Username:     username,
		Password:     password,
		Role:         models.RoleUser,
		CreatedAt:    s.now().UTC(),
		Transactions: []models.Transaction{},
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		existing, err := tx.GetUser(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateUsername
		}
		if s.admin.Matches(username) {
			return ErrReservedIdentity
		}
		if len(password) < minPasswordLength {
			return ErrWeakPassword
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateUsername
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "username", username)
	return s.sessions.Create(user), nil
}

// Login authenticates either the reserved admin identity or a stored user. A username
// that normalizes to the admin identity is never looked up in the store.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*Session, error) {
	cleanPassword := strings.TrimSpace(password)

	if s.admin.Matches(username) {
		if subtle.ConstantTimeCompare([]byte(cleanPassword), []byte(s.admin.Password)) != 1 {
			s.log.Warn("admin login denied", "username", username)
			s.notifier.SecurityEvent(ctx, fmt.Sprintf("Failed admin login attempt for %q", username))
			return nil, ErrAdminAuthDenied
		}
		s.log.Info("admin logged in")
		return s.sessions.Create(s.admin.user()), nil
	}

	var user *models.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		found, err := tx.GetUser(ctx, username)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrUserNotFound
		}
		if found.Password != cleanPassword {
			return ErrWrongPassword
		}
		history, err := tx.ListTransactions(ctx, repository.TransactionFilter{Username: username, NewestFirst: true})
		if err != nil {
			return err
		}
		found.Transactions = nonNil(history)
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.sessions.Create(user), nil
}

// Logout ends the session together with any pending purchase reveal.
func (s *IdentityService) Logout(token string) {
	s.sessions.Delete(token)
}

func (s *IdentityService) Session(token string) (*Session, error) {
	session, ok := s.sessions.Get(token)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Profile reloads the session's user from the store with its derived history and
// refreshes the session cache. Admin sessions are returned as synthesized.
func (s *IdentityService) Profile(ctx context.Context, session *Session) (*models.User, error) {
	if session == nil {
		return nil, ErrAuthRequired
	}
	if session.IsAdmin() {
		return s.admin.user(), nil
	}
	var user *models.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		found, err := loadUserWithHistory(ctx, tx, session.User.Username)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	s.sessions.RefreshUser(user)
	return user, nil
}

func loadUserWithHistory(ctx context.Context, tx repository.Tx, username string) (*models.User, error) {
	user, err := tx.GetUser(ctx, username)
	if err != nil || user == nil {
		return user, err
	}
	history, err := tx.ListTransactions(ctx, repository.TransactionFilter{Username: username, NewestFirst: true})
	if err != nil {
		return nil, err
	}
	user.Transactions = nonNil(history)
	return user, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func nonNil(list []models.Transaction) []models.Transaction {
	if list == nil {
		return []models.Transaction{}
	}
	return list
}
