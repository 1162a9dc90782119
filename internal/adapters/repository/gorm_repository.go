package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

// OpenGorm connects with PostgreSQL when the url starts with "postgres" and
// SQLite otherwise, then migrates the document and user tables.
func OpenGorm(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: open gorm: %w", err)
	}

	if err := db.AutoMigrate(&documentRecord{}, &userRecord{}); err != nil {
		return nil, fmt.Errorf("repository: migrate: %w", err)
	}

	return db, nil
}

type documentRecord struct {
	Key       string `gorm:"column:doc_key;primaryKey;size:255"`
	Version   int    `gorm:"not null"`
	State     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (documentRecord) TableName() string { return "documents" }

type GormDocumentStore struct {
	db *gorm.DB
}

var _ domain.DocumentStore = (*GormDocumentStore)(nil)

func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

func (s *GormDocumentStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	var rec documentRecord
	err := s.db.WithContext(ctx).First(&rec, "doc_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("repository: load document failed: %w", err)
	}

	return &domain.Document{State: []byte(rec.State), Version: rec.Version}, nil
}

func (s *GormDocumentStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	rec := documentRecord{
		Key:       key,
		Version:   doc.Version,
		State:     string(doc.State),
		UpdatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("repository: save document failed: %w", err)
	}
	return nil
}

func (s *GormDocumentStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&documentRecord{}, "doc_key = ?", key).Error; err != nil {
		return fmt.Errorf("repository: delete document failed: %w", err)
	}
	return nil
}

type userRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:255;not null"`
	PasswordHash string `gorm:"not null"`
	DataKey      string `gorm:"size:255;not null"`
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func toUserRecord(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		DataKey:      u.DataKey,
		Avatar:       u.Avatar,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		DataKey:      r.DataKey,
		Avatar:       r.Avatar,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type GormUserRepository struct {
	db *gorm.DB
}

var _ domain.UserRepository = (*GormUserRepository)(nil)

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	rec := toUserRecord(user)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("repository: create user failed: %w", err)
	}
	return nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg string) (*domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get user failed: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) error {
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", user.ID).Updates(map[string]any{
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"avatar":        user.Avatar,
		"updated_at":    user.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("repository: update user failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&userRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("repository: delete user failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
