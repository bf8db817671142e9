package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nutriplan/backend/internal/domain"
)

// UserStore persists accounts via gorm
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates the gorm-backed user store
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail fetches a user by email
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a user by id
func (s *UserStore) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new account
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	user := &domain.User{Email: email, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ProfileStore persists nutrition profiles via gorm
type ProfileStore struct {
	db *gorm.DB
}

// NewProfileStore creates the gorm-backed profile store
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// FindByUserID fetches the user's profile
func (s *ProfileStore) FindByUserID(ctx context.Context, userID uint) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Upsert creates the user's profile or replaces its fields in place
func (s *ProfileStore) Upsert(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"weight_kg", "height_cm", "goal", "activity_level", "restrictions", "updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}
	return s.FindByUserID(ctx, profile.UserID)
}
