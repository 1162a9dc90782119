package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

const (
	DemoEmail    = "demo@skynetjoe.com"
	DemoPassword = "demo123"
	DemoName     = "Demo User"
)

// PartitionStore is the part of a state service the account lifecycle needs.
type PartitionStore interface {
	Seed(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	Export(ctx context.Context, key string) ([]byte, error)
}

type AdminGoalInitializer interface {
	InitializeAdminGoals(ctx context.Context, key, email string) (bool, error)
}

// SnapshotQueue accepts best-effort backups. Enqueue must not block.
type SnapshotQueue interface {
	Enqueue(progressKey, goalsKey string) bool
}

type TokenIssuer interface {
	GenerateToken(user *domain.User) (string, error)
}

type AuthService struct {
	repo      domain.UserRepository
	tokens    TokenIssuer
	progress  PartitionStore
	goals     PartitionStore
	admin     AdminGoalInitializer
	snapshots SnapshotQueue
	log       logrus.FieldLogger
}

func NewAuthService(repo domain.UserRepository, tokens TokenIssuer, progress, goals PartitionStore, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		progress: progress,
		goals:    goals,
		log:      log,
	}
}

func (s *AuthService) WithAdminGoals(admin AdminGoalInitializer) *AuthService {
	s.admin = admin
	return s
}

func (s *AuthService) WithSnapshots(q SnapshotQueue) *AuthService {
	s.snapshots = q
	return s
}

// Session binds a user to a signed token. The user's DataKey and GoalsKey name
// the partitions every later request works on.
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if email := domain.NormalizeEmail(input.Email); email != "" {
		_, err := s.repo.GetByEmail(ctx, email)
		if err == nil {
			return nil, domain.ErrEmailAlreadyExists
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("auth service: lookup user: %w", err)
		}
	}

	if strings.TrimSpace(input.Email) == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" {
		return nil, domain.ErrFieldsRequired
	}

	user, err := domain.NewUser(uuid.NewString(), input.Email, input.Name)
	if err != nil {
		return nil, err
	}

	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("auth service: failed to create user: %w", err)
	}

	return s.openSession(ctx, user, true)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("auth service: lookup user: %w", err)
	}

	if err := user.CheckPassword(input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, user, false)
}

// openSession makes sure both partitions exist and signs a token. The admin
// preset is installed only at registration.
func (s *AuthService) openSession(ctx context.Context, user *domain.User, registered bool) (*Session, error) {
	if err := s.progress.Seed(ctx, user.DataKey); err != nil {
		return nil, fmt.Errorf("auth service: seed progress: %w", err)
	}
	if err := s.goals.Seed(ctx, user.GoalsKey()); err != nil {
		return nil, fmt.Errorf("auth service: seed goals: %w", err)
	}

	if registered && s.admin != nil {
		applied, err := s.admin.InitializeAdminGoals(ctx, user.GoalsKey(), user.Email)
		if err != nil {
			return nil, fmt.Errorf("auth service: admin goals: %w", err)
		}
		if applied {
			s.log.WithField("user_id", user.ID).Info("Admin goals initialized")
		}
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &Session{User: user, Token: token}, nil
}

// Logout queues a backup of the user's partitions. The partitions themselves
// are untouched and the token simply stops being sent by the client.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}
	s.snapshot(user)
	return nil
}

func (s *AuthService) snapshot(user *domain.User) {
	if s.snapshots == nil {
		return
	}
	if !s.snapshots.Enqueue(user.DataKey, user.GoalsKey()) {
		s.log.WithField("user_id", user.ID).Warn("Snapshot queue full, backup skipped")
	}
}

func (s *AuthService) currentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrNotLoggedIn
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("auth service: lookup user: %w", err)
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.currentUser(ctx, userID)
}

type ProfileInput struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.UpdateProfile(input.Name, input.Avatar)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("auth service: update profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.CheckPassword(currentPassword); err != nil {
		return domain.ErrCurrentPasswordIncorrect
	}

	if err := user.SetPassword(newPassword); err != nil {
		if errors.Is(err, domain.ErrPasswordTooShort) {
			return domain.ErrNewPasswordTooShort
		}
		return err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("auth service: update password: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and both partitions.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("auth service: delete user: %w", err)
	}
	if err := s.progress.Delete(ctx, user.DataKey); err != nil {
		return fmt.Errorf("auth service: delete progress: %w", err)
	}
	if err := s.goals.Delete(ctx, user.GoalsKey()); err != nil {
		return fmt.Errorf("auth service: delete goals: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("Account deleted")
	return nil
}

type AccountExport struct {
	User       *domain.User    `json:"user"`
	Progress   json.RawMessage `json:"progress"`
	Goals      json.RawMessage `json:"goals"`
	ExportedAt time.Time       `json:"exportedAt"`
}

// ExportAccount bundles both partitions and queues a backup alongside.
func (s *AuthService) ExportAccount(ctx context.Context, userID string) (*AccountExport, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progress.Export(ctx, user.DataKey)
	if err != nil {
		return nil, fmt.Errorf("auth service: export progress: %w", err)
	}
	goals, err := s.goals.Export(ctx, user.GoalsKey())
	if err != nil {
		return nil, fmt.Errorf("auth service: export goals: %w", err)
	}

	s.snapshot(user)

	return &AccountExport{
		User:       user,
		Progress:   progress,
		Goals:      goals,
		ExportedAt: time.Now().UTC(),
	}, nil
}

// SeedDemoAccount creates the demo login unless it already exists.
func (s *AuthService) SeedDemoAccount(ctx context.Context) error {
	_, err := s.repo.GetByEmail(ctx, DemoEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("auth service: lookup demo user: %w", err)
	}

	_, err = s.Register(ctx, RegisterInput{Email: DemoEmail, Password: DemoPassword, Name: DemoName})
	if errors.Is(err, domain.ErrEmailAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}

	s.log.WithField("email", DemoEmail).Info("Demo account created")
	return nil
}
