package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DietRequestStatus tracks a request through the processing pipeline
type DietRequestStatus string

const (
	StatusPending    DietRequestStatus = "PENDING"
	StatusProcessing DietRequestStatus = "PROCESSING"
	StatusDone       DietRequestStatus = "DONE"
	StatusFailed     DietRequestStatus = "FAILED"
)

// User is an account that owns diet requests
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserProfile holds the nutrition profile the planner feeds to the model.
// Read-only input to the pipeline; its absence fails the request.
type UserProfile struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"uniqueIndex;not null" json:"userId"`
	WeightKg      float64        `json:"weightKg"`
	HeightCm      int            `json:"heightCm"`
	Goal          string         `json:"goal"`
	ActivityLevel string         `json:"activityLevel"`
	Restrictions  datatypes.JSON `json:"restrictions,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// DietRequest is the persisted job record driven by the Processor.
// Config and Result are opaque JSON documents owned by the caller / pipeline.
type DietRequest struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     uint              `gorm:"index;not null" json:"userId"`
	Config     datatypes.JSON    `json:"config"`
	Status     DietRequestStatus `gorm:"not null;default:PENDING" json:"status"`
	Result     datatypes.JSON    `json:"result,omitempty"`
	Error      *string           `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
}

// DietRequestSummary is the list-view projection of a DietRequest
type DietRequestSummary struct {
	ID         uint              `json:"id"`
	Status     DietRequestStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt *time.Time        `json:"finishedAt"`
	Error      *string           `json:"error"`
}

// Food is an immutable TACO-style reference entry with per-100g nutrient
// values. A nil nutrient means the table has no value for it.
type Food struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	TacoID         *int     `gorm:"column:taco_id" json:"tacoId"`
	Name           string   `gorm:"not null" json:"name"`
	NormalizedName string   `gorm:"index;not null" json:"normalizedName"`
	Kcal           *float64 `json:"kcal"`
	ProteinG       *float64 `json:"proteinG"`
	CarbsG         *float64 `json:"carbsG"`
	FatG           *float64 `json:"fatG"`
	FiberG         *float64 `json:"fiberG"`
}

// FoodRef is the projection returned by candidate retrieval queries
type FoodRef struct {
	ID             uint   `json:"id"`
	TacoID         *int   `json:"tacoId"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalizedName"`
}

// Candidate is a scored reference entry proposed by the resolver
type Candidate struct {
	ID             uint    `json:"id"`
	TacoID         *int    `json:"tacoId"`
	Name           string  `json:"name"`
	NormalizedName string  `json:"normalizedName"`
	Score          float64 `json:"score"` // 0..1
}
