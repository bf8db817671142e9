package usecase

import (
	"context"

	"gorm.io/datatypes"

	"github.com/nutriplan/backend/internal/domain"
)

// jobProcess is the job name the worker dispatches on
const jobProcess = "process"

// DietService owns the request lifecycle seen by the API: create a PENDING
// request, hand it to the queue, and expose the owner's view of it.
type DietService struct {
	requests domain.DietRequestStore
	queue    domain.Queue
}

// NewDietService creates the diet request service
func NewDietService(requests domain.DietRequestStore, queue domain.Queue) *DietService {
	return &DietService{requests: requests, queue: queue}
}

// CreateRequest persists a new request and enqueues its processing job
func (s *DietService) CreateRequest(ctx context.Context, userID uint, config datatypes.JSON) (*domain.DietRequest, error) {
	req, err := s.requests.Create(ctx, userID, config)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, jobProcess, domain.Job{RequestID: req.ID}); err != nil {
		return nil, err
	}

	return req, nil
}

// ListRequests returns the user's requests, newest first
func (s *DietService) ListRequests(ctx context.Context, userID uint) ([]domain.DietRequestSummary, error) {
	return s.requests.ListByUser(ctx, userID)
}

// GetRequest returns one of the user's requests, including result and error
func (s *DietService) GetRequest(ctx context.Context, userID, id uint) (*domain.DietRequest, error) {
	return s.requests.FindByIDAndUser(ctx, userID, id)
}
