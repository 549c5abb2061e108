package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentpulse/pricing-engine/pkg/services/workqueue"
)

// MaterializeTask recomputes a listing's recommendation window from market
// data. It is a non-LLM data task.
type MaterializeTask struct {
	workqueue.BaseTask
	recSvc    RecommendationService
	listingID uuid.UUID
	from      time.Time
	to        time.Time
	replace   bool
}

// NewMaterializeTask creates a materialization task for one listing window.
func NewMaterializeTask(recSvc RecommendationService, listingID uuid.UUID, from, to time.Time, replace bool) *MaterializeTask {
	return &MaterializeTask{
		BaseTask:  workqueue.NewBaseTask(fmt.Sprintf("Materialize %s %s..%s", listingID, dateKey(from), dateKey(to)), false),
		recSvc:    recSvc,
		listingID: listingID,
		from:      from,
		to:        to,
		replace:   replace,
	}
}

// Execute implements workqueue.Task.
func (t *MaterializeTask) Execute(ctx context.Context) error {
	if _, err := t.recSvc.Materialize(ctx, t.listingID, t.from, t.to, t.replace); err != nil {
		return fmt.Errorf("materialize %s: %w", t.listingID, err)
	}
	return nil
}

// QuoteRangeTask generates per-day LLM quotes for a listing window.
type QuoteRangeTask struct {
	workqueue.BaseTask
	quoteSvc  QuoteService
	listingID uuid.UUID
	from      time.Time
	to        time.Time
}

// NewQuoteRangeTask creates an LLM quoting task for one listing window.
func NewQuoteRangeTask(quoteSvc QuoteService, listingID uuid.UUID, from, to time.Time) *QuoteRangeTask {
	return &QuoteRangeTask{
		BaseTask:  workqueue.NewBaseTask(fmt.Sprintf("Quote %s %s..%s", listingID, dateKey(from), dateKey(to)), true),
		quoteSvc:  quoteSvc,
		listingID: listingID,
		from:      from,
		to:        to,
	}
}

// Execute implements workqueue.Task.
func (t *QuoteRangeTask) Execute(ctx context.Context) error {
	if _, err := t.quoteSvc.GenerateRange(ctx, t.listingID, t.from, t.to); err != nil {
		return fmt.Errorf("quote range %s: %w", t.listingID, err)
	}
	return nil
}

// QuoteBatchTask generates a single-call multi-day LLM quote for a listing.
type QuoteBatchTask struct {
	workqueue.BaseTask
	quoteSvc    QuoteService
	listingID   uuid.UUID
	horizonDays int
}

// NewQuoteBatchTask creates a batched LLM quoting task.
func NewQuoteBatchTask(quoteSvc QuoteService, listingID uuid.UUID, horizonDays int) *QuoteBatchTask {
	return &QuoteBatchTask{
		BaseTask:    workqueue.NewBaseTask(fmt.Sprintf("Quote batch %s (%dd)", listingID, horizonDays), true),
		quoteSvc:    quoteSvc,
		listingID:   listingID,
		horizonDays: horizonDays,
	}
}

// Execute implements workqueue.Task.
func (t *QuoteBatchTask) Execute(ctx context.Context) error {
	if _, err := t.quoteSvc.GenerateBatch(ctx, t.listingID, t.horizonDays); err != nil {
		return fmt.Errorf("quote batch %s: %w", t.listingID, err)
	}
	return nil
}
