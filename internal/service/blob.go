package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/storage"
)

// blobBuckets groups public ids by the resource type they were stored under.
type blobBuckets map[storage.ResourceType][]string

// bucketRefs sorts file blob refs into resource-type buckets. Refs with no
// usable public id are returned as skipped file ids.
func bucketRefs(refs []model.BlobRef) (blobBuckets, []int64) {
	buckets := blobBuckets{}
	var skipped []int64

	for _, ref := range refs {
		if ref.StoragePublicID == nil || *ref.StoragePublicID == "" {
			skipped = append(skipped, ref.FileID)
			continue
		}

		mime := ""
		if ref.MimeType != nil {
			mime = *ref.MimeType
		}
		rt := storage.ClassifyMime(mime)
		buckets[rt] = append(buckets[rt], *ref.StoragePublicID)
	}

	return buckets, skipped
}

func (b blobBuckets) count() int {
	n := 0
	for _, ids := range b {
		n += len(ids)
	}
	return n
}

type bucketOutcome struct {
	rt        storage.ResourceType
	deleted   []string
	failed    []string
	lastError string
}

// deleteBuckets issues one batch delete per non-empty bucket. The calls run
// concurrently and every outcome is collected; one bucket failing does not
// stop the others.
func deleteBuckets(ctx context.Context, blobs storage.BlobStore, buckets blobBuckets) []bucketOutcome {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []bucketOutcome
	)

	for _, rt := range storage.ResourceTypes {
		ids := buckets[rt]
		if len(ids) == 0 {
			continue
		}

		wg.Add(1)
		go func(rt storage.ResourceType, ids []string) {
			defer wg.Done()
			outcome := deleteBucket(ctx, blobs, rt, ids)

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		}(rt, ids)
	}

	wg.Wait()
	return outcomes
}

func deleteBucket(ctx context.Context, blobs storage.BlobStore, rt storage.ResourceType, ids []string) bucketOutcome {
	outcome := bucketOutcome{rt: rt}

	statuses, err := blobs.DeleteBatch(ctx, ids, rt, true)
	if err != nil {
		slog.Error("blob batch delete failed",
			"resource_type", rt,
			"count", len(ids),
			"error", err,
		)
		outcome.failed = ids
		outcome.lastError = err.Error()
		return outcome
	}

	for _, id := range ids {
		switch status := statuses[id]; status {
		case storage.StatusDeleted, storage.StatusNotFound:
			outcome.deleted = append(outcome.deleted, id)
		default:
			outcome.failed = append(outcome.failed, id)
			outcome.lastError = fmt.Sprintf("delete status %q", status)
		}
	}

	if len(outcome.failed) > 0 {
		slog.Warn("blob batch delete incomplete",
			"resource_type", rt,
			"failed", len(outcome.failed),
			"last_error", outcome.lastError,
		)
	}

	return outcome
}

// PurgeReport summarises what happened to the blobs behind deleted files.
type PurgeReport struct {
	Deleted int `json:"deleted"`
	Pending int `json:"pending"`
}

// BlobPurger deletes blobs whose rows are gone. Deletions are recorded in
// the outbox inside the row-deleting transaction and resolved after it
// commits, so a crash or provider failure leaves work for the reconciler.
type BlobPurger struct {
	blobs  storage.BlobStore
	outbox repository.BlobDeletionRepository
}

func NewBlobPurger(blobs storage.BlobStore, outbox repository.BlobDeletionRepository) *BlobPurger {
	return &BlobPurger{blobs: blobs, outbox: outbox}
}

func (p *BlobPurger) record(ctx context.Context, tx repository.BlobDeletionRepository, buckets blobBuckets) error {
	for rt, ids := range buckets {
		for _, id := range ids {
			if err := tx.Enqueue(ctx, id, string(rt), ""); err != nil {
				return fmt.Errorf("failed to record blob deletion: %w", err)
			}
		}
	}
	return nil
}

func (p *BlobPurger) purge(ctx context.Context, buckets blobBuckets) PurgeReport {
	var report PurgeReport

	for _, outcome := range deleteBuckets(ctx, p.blobs, buckets) {
		report.Deleted += len(outcome.deleted)
		report.Pending += len(outcome.failed)

		if err := p.outbox.Resolve(ctx, string(outcome.rt), outcome.deleted); err != nil {
			slog.Error("failed to resolve blob deletions", "resource_type", outcome.rt, "error", err)
		}

		for _, id := range outcome.failed {
			if err := p.outbox.Enqueue(ctx, id, string(outcome.rt), outcome.lastError); err != nil {
				slog.Error("failed to note blob deletion error", "public_id", id, "error", err)
			}
		}
	}

	return report
}
