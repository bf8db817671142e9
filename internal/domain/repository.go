package domain

import (
	"context"

	"gorm.io/datatypes"
)

// FoodIndex is the lexical search surface the resolver needs: substring
// queries over normalized names plus full-row fetch by id. Implementable by
// an in-memory index, a full-text engine, or a relational LIKE query.
type FoodIndex interface {
	// Search returns entries whose normalized name contains core and, when
	// rest is non-empty, at least one rest token. Results are capped at limit.
	Search(ctx context.Context, core string, rest []string, limit int) ([]FoodRef, error)
	GetByID(ctx context.Context, id uint) (*Food, error)
}

// DietRequestStore persists diet requests and their status transitions.
// Every transition write is a full overwrite of status, error, result and
// finishedAt so redelivered jobs can safely reprocess.
type DietRequestStore interface {
	Create(ctx context.Context, userID uint, config datatypes.JSON) (*DietRequest, error)
	FindByID(ctx context.Context, id uint) (*DietRequest, error)
	FindByIDAndUser(ctx context.Context, userID, id uint) (*DietRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]DietRequestSummary, error)
	MarkProcessing(ctx context.Context, id uint) error
	MarkDone(ctx context.Context, id uint, result datatypes.JSON) error
	MarkFailed(ctx context.Context, id uint, message string) error
}

// ProfileStore reads and upserts user nutrition profiles
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID uint) (*UserProfile, error)
	Upsert(ctx context.Context, profile *UserProfile) (*UserProfile, error)
}

// UserStore persists accounts
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Create(ctx context.Context, email, passwordHash string) (*User, error)
}

// GenerateTextParams are the inputs to a single text-generation call
type GenerateTextParams struct {
	Model        string
	Instructions string
	Input        string
}

// TextGenerator is the outbound port to the text-generation provider
type TextGenerator interface {
	GenerateText(ctx context.Context, params GenerateTextParams) (string, error)
}

// Job is the payload delivered for each diet request
type Job struct {
	RequestID uint `json:"requestId"`
}

// Queue enqueues processing jobs. Delivery, retry and backoff guarantees
// belong to the implementation; the core only requires that redelivered jobs
// are safe to reprocess.
type Queue interface {
	Enqueue(ctx context.Context, name string, job Job) error
}
