package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/storage"
)

// Reconciler retries blob deletions left in the outbox.
type Reconciler struct {
	outbox      repository.BlobDeletionRepository
	blobs       storage.BlobStore
	batchSize   int
	maxAttempts int
}

func NewReconciler(outbox repository.BlobDeletionRepository, blobs storage.BlobStore, batchSize, maxAttempts int) *Reconciler {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Reconciler{
		outbox:      outbox,
		blobs:       blobs,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

type ReconcileResult struct {
	Attempted int `json:"attempted"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

// ReconcileOnce works through one batch of pending deletions. Entries that
// fail again have their attempt count raised; once it reaches the limit they
// stay in the table for manual inspection.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (*ReconcileResult, error) {
	pending, err := r.outbox.Pending(ctx, r.maxAttempts, r.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending deletions: %w", err)
	}

	result := &ReconcileResult{Attempted: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	buckets := blobBuckets{}
	rowIDs := map[storage.ResourceType]map[string]int64{}
	for _, row := range pending {
		rt := storage.ParseResourceType(row.ResourceType)
		buckets[rt] = append(buckets[rt], row.PublicID)
		if rowIDs[rt] == nil {
			rowIDs[rt] = map[string]int64{}
		}
		rowIDs[rt][row.PublicID] = row.ID
	}

	for _, outcome := range deleteBuckets(ctx, r.blobs, buckets) {
		done := make([]int64, 0, len(outcome.deleted))
		for _, id := range outcome.deleted {
			done = append(done, rowIDs[outcome.rt][id])
		}
		if err := r.outbox.Done(ctx, done); err != nil {
			return nil, fmt.Errorf("failed to clear deletions: %w", err)
		}
		result.Deleted += len(done)

		for _, id := range outcome.failed {
			if err := r.outbox.Failed(ctx, rowIDs[outcome.rt][id], outcome.lastError); err != nil {
				return nil, fmt.Errorf("failed to record deletion failure: %w", err)
			}
		}
		result.Failed += len(outcome.failed)
	}

	return result, nil
}

// Run reconciles on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("blob reconciler started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("blob reconciler stopped")
			return
		case <-ticker.C:
			result, err := r.ReconcileOnce(ctx)
			if err != nil {
				slog.Error("blob reconciliation failed", "error", err)
				continue
			}
			if result.Attempted > 0 {
				slog.Info("blob reconciliation pass",
					"attempted", result.Attempted,
					"deleted", result.Deleted,
					"failed", result.Failed,
				)
			}
		}
	}
}
