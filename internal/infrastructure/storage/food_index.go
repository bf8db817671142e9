package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nutriplan/backend/internal/domain"
)

// FoodIndex implements the resolver's lexical search capability with a
// relational LIKE query over normalized names. Names are normalized at load
// time, so plain substring matching is enough.
type FoodIndex struct {
	db *gorm.DB
}

// NewFoodIndex creates the gorm-backed food index
func NewFoodIndex(db *gorm.DB) *FoodIndex {
	return &FoodIndex{db: db}
}

// Search returns up to limit entries whose normalized name contains core
// and, when rest is non-empty, at least one of the rest tokens.
func (s *FoodIndex) Search(ctx context.Context, core string, rest []string, limit int) ([]domain.FoodRef, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.Food{}).
		Select("id", "taco_id", "name", "normalized_name").
		Where("normalized_name LIKE ?", contains(core))

	if len(rest) > 0 {
		or := s.db.Where("normalized_name LIKE ?", contains(rest[0]))
		for _, token := range rest[1:] {
			or = or.Or("normalized_name LIKE ?", contains(token))
		}
		q = q.Where(or)
	}

	refs := make([]domain.FoodRef, 0)
	if err := q.Limit(limit).Scan(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// GetByID fetches the full reference entry including nutrient values
func (s *FoodIndex) GetByID(ctx context.Context, id uint) (*domain.Food, error) {
	var food domain.Food
	err := s.db.WithContext(ctx).First(&food, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFoodNotFound
		}
		return nil, err
	}
	return &food, nil
}

func contains(token string) string {
	return "%" + token + "%"
}
