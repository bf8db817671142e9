package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nutriplan/backend/internal/domain"
)

// UserService exposes account and nutrition-profile reads/writes
type UserService struct {
	users    domain.UserStore
	profiles domain.ProfileStore
}

// NewUserService creates the user service
func NewUserService(users domain.UserStore, profiles domain.ProfileStore) *UserService {
	return &UserService{users: users, profiles: profiles}
}

// Me returns the account and its profile; the profile is nil when the user
// has not filled one in yet.
func (s *UserService) Me(ctx context.Context, userID uint) (*domain.User, *domain.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, profile, nil
}

// UpsertProfileInput is the profile payload accepted from the API
type UpsertProfileInput struct {
	WeightKg      float64
	HeightCm      int
	Goal          string
	ActivityLevel string
	Restrictions  []string
}

// UpsertProfile creates or replaces the user's nutrition profile
func (s *UserService) UpsertProfile(ctx context.Context, userID uint, in UpsertProfileInput) (*domain.UserProfile, error) {
	restrictions := in.Restrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	raw, err := json.Marshal(restrictions)
	if err != nil {
		return nil, err
	}

	return s.profiles.Upsert(ctx, &domain.UserProfile{
		UserID:        userID,
		WeightKg:      in.WeightKg,
		HeightCm:      in.HeightCm,
		Goal:          in.Goal,
		ActivityLevel: in.ActivityLevel,
		Restrictions:  raw,
	})
}
