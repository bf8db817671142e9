package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nutriplan/backend/internal/domain"
)

// DietRequestStore persists diet requests via gorm
type DietRequestStore struct {
	db *gorm.DB
}

// NewDietRequestStore creates the gorm-backed diet request store
func NewDietRequestStore(db *gorm.DB) *DietRequestStore {
	return &DietRequestStore{db: db}
}

// Create inserts a new PENDING request for the user
func (s *DietRequestStore) Create(ctx context.Context, userID uint, config datatypes.JSON) (*domain.DietRequest, error) {
	req := &domain.DietRequest{
		UserID: userID,
		Config: config,
		Status: domain.StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// FindByID fetches a request by id regardless of owner (worker path)
func (s *DietRequestStore) FindByID(ctx context.Context, id uint) (*domain.DietRequest, error) {
	var req domain.DietRequest
	err := s.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindByIDAndUser fetches a request only if the user owns it
func (s *DietRequestStore) FindByIDAndUser(ctx context.Context, userID, id uint) (*domain.DietRequest, error) {
	var req domain.DietRequest
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByUser returns summaries of the user's requests, newest first
func (s *DietRequestStore) ListByUser(ctx context.Context, userID uint) ([]domain.DietRequestSummary, error) {
	summaries := make([]domain.DietRequestSummary, 0)
	err := s.db.WithContext(ctx).
		Model(&domain.DietRequest{}).
		Select("id", "status", "created_at", "finished_at", "error").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// MarkProcessing re-enters PROCESSING and clears the previous run's error
// and finish timestamp so redelivered jobs start clean.
func (s *DietRequestStore) MarkProcessing(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&domain.DietRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      domain.StatusProcessing,
			"error":       nil,
			"finished_at": nil,
		}).Error
}

// MarkDone records the terminal DONE state with the computed result
func (s *DietRequestStore) MarkDone(ctx context.Context, id uint, result datatypes.JSON) error {
	return s.db.WithContext(ctx).
		Model(&domain.DietRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      domain.StatusDone,
			"result":      result,
			"finished_at": time.Now(),
		}).Error
}

// MarkFailed records the terminal FAILED state with the failure message
func (s *DietRequestStore) MarkFailed(ctx context.Context, id uint, message string) error {
	return s.db.WithContext(ctx).
		Model(&domain.DietRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      domain.StatusFailed,
			"error":       message,
			"finished_at": time.Now(),
		}).Error
}
