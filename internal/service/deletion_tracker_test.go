package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/fitness-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*DeletionTracker, *memDeletionRepo) {
	t.Helper()
	repo := newMemDeletionRepo()
	tracker, err := NewDeletionTracker(context.Background(), repo, testLogger())
	require.NoError(t, err)
	return tracker, repo
}

func TestRecordDeletionUpserts(t *testing.T) {
	tracker, repo := newTestTracker(t)
	ctx := context.Background()

	tracker.now = func() time.Time { return syncTime(100) }
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m1"))

	// Re-recording is a single-key upsert: the later deletedAt wins and
	// the synced flag resets.
	require.NoError(t, tracker.MarkAsSynced(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "m1",
	}))
	tracker.now = func() time.Time { return syncTime(200) }
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m1"))

	outbox := tracker.UnsyncedDeletions()
	require.Len(t, outbox, 1)
	assert.Equal(t, syncTime(200), outbox[0].DeletedAt)
	assert.Len(t, repo.items, 1)
}

func TestDeletedIDsFiltersByType(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m1"))
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeWorkout, "w1"))

	modules := tracker.DeletedIDs(domain.EntityTypeModule)
	assert.True(t, modules["m1"])
	assert.False(t, modules["w1"])
}

func TestWasDeletedAfter(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.now = func() time.Time { return syncTime(100) }
	require.NoError(t, tracker.RecordDeletion(context.Background(), domain.EntityTypeModule, "m1"))

	// Cloud edit older than the deletion is suppressed.
	assert.True(t, tracker.WasDeletedAfter(domain.EntityTypeModule, "m1", syncTime(50)))
	// Cloud edit at exactly the deletion instant or later is honored.
	assert.False(t, tracker.WasDeletedAfter(domain.EntityTypeModule, "m1", syncTime(100)))
	assert.False(t, tracker.WasDeletedAfter(domain.EntityTypeModule, "m1", syncTime(150)))
	// No tombstone at all.
	assert.False(t, tracker.WasDeletedAfter(domain.EntityTypeModule, "other", syncTime(0)))
}

func TestMarkAsSyncedDrainsOutbox(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m1"))
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m2"))
	require.Len(t, tracker.UnsyncedDeletions(), 2)

	// Mid-batch: marking one leaves the other queued.
	require.NoError(t, tracker.MarkAsSynced(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "m1",
	}))
	outbox := tracker.UnsyncedDeletions()
	require.Len(t, outbox, 1)
	assert.Equal(t, "m2", outbox[0].EntityID)

	// Marking an unknown tombstone reports not found.
	err := tracker.MarkAsSynced(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "ghost",
	})
	assert.Error(t, err)
}

func TestImportFromCloudKeepsNewer(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	tracker.now = func() time.Time { return syncTime(300) }
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m1"))

	// An older remote tombstone does not roll the local one back.
	require.NoError(t, tracker.ImportFromCloud(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "m1", DeletedAt: syncTime(100),
	}))
	assert.True(t, tracker.WasDeletedAfter(domain.EntityTypeModule, "m1", syncTime(200)))
	// The local record still needs pushing.
	assert.Len(t, tracker.UnsyncedDeletions(), 1)

	// A newer remote tombstone replaces it and arrives already synced.
	require.NoError(t, tracker.ImportFromCloud(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "m1", DeletedAt: syncTime(400),
	}))
	assert.True(t, tracker.WasDeletedAfter(domain.EntityTypeModule, "m1", syncTime(350)))
	assert.Empty(t, tracker.UnsyncedDeletions())
}

func TestCleanupOldRecords(t *testing.T) {
	tracker, repo := newTestTracker(t)
	ctx := context.Background()

	old := syncTime(0)
	tracker.now = func() time.Time { return old }
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "synced-old"))
	require.NoError(t, tracker.MarkAsSynced(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "synced-old",
	}))
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "unsynced-old"))

	// Jump past the retention window, add one fresh synced record.
	fresh := old.Add(domain.DeletionRetention + time.Hour)
	tracker.now = func() time.Time { return fresh }
	require.NoError(t, tracker.RecordDeletion(ctx, domain.EntityTypeModule, "synced-new"))
	require.NoError(t, tracker.MarkAsSynced(ctx, domain.DeletionRecord{
		EntityType: domain.EntityTypeModule, EntityID: "synced-new",
	}))

	pruned, err := tracker.CleanupOldRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	ids := tracker.DeletedIDs(domain.EntityTypeModule)
	assert.False(t, ids["synced-old"])
	// Unsynced tombstones survive regardless of age.
	assert.True(t, ids["unsynced-old"])
	assert.True(t, ids["synced-new"])
	assert.Len(t, repo.items, 2)
}

func TestTrackerReloadsPersistedJournal(t *testing.T) {
	repo := newMemDeletionRepo()
	first, err := NewDeletionTracker(context.Background(), repo, testLogger())
	require.NoError(t, err)
	require.NoError(t, first.RecordDeletion(context.Background(), domain.EntityTypeSession, "s1"))

	second, err := NewDeletionTracker(context.Background(), repo, testLogger())
	require.NoError(t, err)
	assert.True(t, second.DeletedIDs(domain.EntityTypeSession)["s1"])
	assert.Len(t, second.UnsyncedDeletions(), 1)
}
