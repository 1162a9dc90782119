package domain

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Messages are shown to end users as-is.
var (
	ErrUserNotFound             = errors.New("No account found with this email")
	ErrEmailAlreadyExists       = errors.New("User already exists with this email")
	ErrFieldsRequired           = errors.New("All fields are required")
	ErrPasswordTooShort         = errors.New("Password must be at least 6 characters")
	ErrInvalidCredentials       = errors.New("Incorrect password")
	ErrNotLoggedIn              = errors.New("Not logged in")
	ErrCurrentPasswordIncorrect = errors.New("Current password is incorrect")
	ErrNewPasswordTooShort      = errors.New("New password must be at least 6 characters")
	ErrInvalidEmail             = errors.New("invalid email format")
	ErrPasswordTooLong          = errors.New("Password must be at most 72 bytes")
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
	bcryptCost       = 12

	progressKeyPrefix = "skynetjoe-dashboard-"
	goalsKeyPrefix    = "skynetjoe-goals-"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DataKey      string    `json:"dataKey" db:"data_key"`
	Avatar       string    `json:"avatar,omitempty" db:"avatar"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProgressKey is the storage partition holding a user's progress document.
func ProgressKey(email string) string {
	return progressKeyPrefix + NormalizeEmail(email)
}

func GoalsKey(email string) string {
	return goalsKeyPrefix + NormalizeEmail(email)
}

func NewUser(id, email, name string) (*User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || name == "" {
		return nil, ErrFieldsRequired
	}
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		DataKey:   ProgressKey(email),
		Avatar:    defaultAvatar(name),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) GoalsKey() string {
	return GoalsKey(u.Email)
}

func (u *User) SetPassword(plainPassword string) error {
	if utf8.RuneCountInString(plainPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(plainPassword) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcryptCost)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) CheckPassword(plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainPassword))
}

// UpdateProfile changes display fields only; email and partition are fixed.
func (u *User) UpdateProfile(name, avatar *string) {
	if name != nil && strings.TrimSpace(*name) != "" {
		u.Name = strings.TrimSpace(*name)
	}
	if avatar != nil {
		u.Avatar = *avatar
	}
	u.UpdatedAt = time.Now().UTC()
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func defaultAvatar(name string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(name)
}
