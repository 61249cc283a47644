package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"
)

// DeletionTracker keeps the tombstone journal: one record per locally
// deleted entity, used during every cloud pull to stop stale cloud
// copies from resurrecting deleted records, and pushed to the cloud with
// outbox semantics so deletions propagate to the user's other devices.
//
// The journal is append-only from the caller's point of view.
// Re-recording a deletion is a single-key upsert: the last call's
// deletedAt wins.
type DeletionTracker struct {
	mu      sync.Mutex
	repo    repository.DeletionRecordRepository
	records map[string]domain.DeletionRecord
	logger  *slog.Logger
	now     func() time.Time
}

// NewDeletionTracker loads the persisted journal and returns a tracker
// over it.
func NewDeletionTracker(ctx context.Context, repo repository.DeletionRecordRepository, logger *slog.Logger) (*DeletionTracker, error) {
	persisted, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make(map[string]domain.DeletionRecord, len(persisted))
	for _, rec := range persisted {
		records[rec.Key()] = rec
	}
	return &DeletionTracker{
		repo:    repo,
		records: records,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordDeletion marks an entity as deleted now. Idempotent in effect;
// calling it again refreshes deletedAt and resets the synced flag.
func (t *DeletionTracker) RecordDeletion(ctx context.Context, entityType domain.EntityType, entityID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := domain.DeletionRecord{
		EntityType: entityType,
		EntityID:   entityID,
		DeletedAt:  t.now(),
		Synced:     false,
	}
	if err := t.repo.Save(ctx, &rec); err != nil {
		return err
	}
	t.records[rec.Key()] = rec
	return nil
}

// DeletedIDs returns the ids of every tombstoned entity of a type,
// synced or not.
func (t *DeletionTracker) DeletedIDs(entityType domain.EntityType) map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]bool)
	for _, rec := range t.records {
		if rec.EntityType == entityType {
			out[rec.EntityID] = true
		}
	}
	return out
}

// WasDeletedAfter reports whether a tombstone exists for the entity with
// deletedAt strictly after the given instant. A cloud edit newer than
// the local deletion is honored (entity comes back); an older edit is
// suppressed.
func (t *DeletionTracker) WasDeletedAfter(entityType domain.EntityType, entityID string, after time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[string(entityType)+"/"+entityID]
	if !ok {
		return false
	}
	return rec.DeletedAt.After(after)
}

// UnsyncedDeletions returns the outbox: tombstones not yet confirmed
// pushed to the cloud.
func (t *DeletionTracker) UnsyncedDeletions() []domain.DeletionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []domain.DeletionRecord
	for _, rec := range t.records {
		if !rec.Synced {
			out = append(out, rec)
		}
	}
	return out
}

// MarkAsSynced flags a tombstone as pushed. Called per record as a batch
// push proceeds; entries marked before a mid-batch failure stay marked,
// which is safe because deletion is idempotent.
func (t *DeletionTracker) MarkAsSynced(ctx context.Context, rec domain.DeletionRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	stored, ok := t.records[rec.Key()]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Synced = true
	if err := t.repo.Save(ctx, &stored); err != nil {
		return err
	}
	t.records[rec.Key()] = stored
	return nil
}

// ImportFromCloud merges a remote tombstone into the local journal.
// Remote deletions suppress resurrection exactly like local ones. An
// imported record is already in the cloud, so it arrives synced.
func (t *DeletionTracker) ImportFromCloud(ctx context.Context, rec domain.DeletionRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.records[rec.Key()]
	if ok && !existing.DeletedAt.Before(rec.DeletedAt) {
		return nil
	}
	rec.Synced = true
	if err := t.repo.Save(ctx, &rec); err != nil {
		return err
	}
	t.records[rec.Key()] = rec
	return nil
}

// CleanupOldRecords prunes synced tombstones past the retention window.
// Unsynced tombstones are never pruned regardless of age: durability
// wins over storage cost.
func (t *DeletionTracker) CleanupOldRecords(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-domain.DeletionRetention)
	pruned := 0
	for key, rec := range t.records {
		if !rec.Synced || !rec.DeletedAt.Before(cutoff) {
			continue
		}
		if err := t.repo.DeleteByKey(ctx, key); err != nil {
			t.logger.Warn("failed to prune deletion record", "key", key, "error", err)
			continue
		}
		delete(t.records, key)
		pruned++
	}
	return pruned, nil
}
