package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/nutriplan/backend/internal/domain"
)

// msgProfileNotFound is the persisted error for requests whose owner has no
// nutrition profile. Callers key on this exact string.
const msgProfileNotFound = "UserProfile não encontrado"

// Processor drives one diet request from pickup to a terminal state:
// PENDING -> PROCESSING -> DONE | FAILED. Every transition overwrites
// status, error, result and finishedAt, so redelivered jobs reprocess
// cleanly.
type Processor struct {
	requests domain.DietRequestStore
	profiles domain.ProfileStore
	planner  *Planner
	enricher *Enricher
}

// NewProcessor creates a processor with its collaborators
func NewProcessor(
	requests domain.DietRequestStore,
	profiles domain.ProfileStore,
	planner *Planner,
	enricher *Enricher,
) *Processor {
	return &Processor{
		requests: requests,
		profiles: profiles,
		planner:  planner,
		enricher: enricher,
	}
}

// Process handles one delivery of a diet request job. A non-nil return means
// the delivery failed and the queue may redeliver; the terminal FAILED state
// is persisted before the error is surfaced.
func (p *Processor) Process(ctx context.Context, requestID uint) error {
	req, err := p.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			// Request is gone; treat the delivery as already handled.
			return nil
		}
		return err
	}

	if err := p.requests.MarkProcessing(ctx, requestID); err != nil {
		return err
	}

	profile, err := p.profiles.FindByUserID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			// Terminal: regenerating the plan cannot fix a missing profile,
			// so the failure is recorded and the job is not retried.
			return p.requests.MarkFailed(ctx, requestID, msgProfileNotFound)
		}
		return err
	}

	notes := notesFromConfig(req.Config)

	plan, err := p.planner.GeneratePlan(ctx, GeneratePlanInput{
		Profile: profile,
		Config:  json.RawMessage(req.Config),
		Notes:   notes,
	})
	if err != nil {
		return p.fail(ctx, requestID, err)
	}

	result, err := p.enricher.Enrich(ctx, plan)
	if err != nil {
		return p.fail(ctx, requestID, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return p.fail(ctx, requestID, err)
	}

	if err := p.requests.MarkDone(ctx, requestID, payload); err != nil {
		return err
	}

	log.Printf("[PROCESSOR] request %d done: %d days, %d unresolved foods",
		requestID, result.Days, len(result.UnresolvedFoods))
	return nil
}

// fail records the terminal FAILED state, then surfaces the cause so the
// queue's retry policy can decide whether to redeliver.
func (p *Processor) fail(ctx context.Context, requestID uint, cause error) error {
	if err := p.requests.MarkFailed(ctx, requestID, cause.Error()); err != nil {
		return err
	}
	return cause
}

// notesFromConfig extracts the optional free-text notes from the opaque
// request config; anything but a string is ignored.
func notesFromConfig(config []byte) string {
	if len(config) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(config, &m); err != nil {
		return ""
	}
	if notes, ok := m["notes"].(string); ok {
		return notes
	}
	return ""
}
