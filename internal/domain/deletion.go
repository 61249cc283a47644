package domain

import "time"

// DeletionRetention is how long a synced tombstone is kept before it may
// be pruned. Unsynced tombstones are never pruned regardless of age.
const DeletionRetention = 30 * 24 * time.Hour

// DeletionRecord is a tombstone: it marks an entity as locally deleted so
// that a stale cloud copy cannot resurrect it during sync. Records are
// pushed to the cloud (outbox semantics via Synced) so the deletion
// propagates to the user's other devices.
type DeletionRecord struct {
	EntityType EntityType `bson:"entityType" json:"entityType"`
	EntityID   string     `bson:"entityId" json:"entityId"`
	DeletedAt  time.Time  `bson:"deletedAt" json:"deletedAt"`
	Synced     bool       `bson:"synced" json:"synced"`
}

// Key returns the journal key for this record. One tombstone per
// (type, id) pair; re-recording a deletion upserts on this key.
func (r DeletionRecord) Key() string {
	return string(r.EntityType) + "/" + r.EntityID
}
