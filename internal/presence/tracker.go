package presence

import (
	"context"
	"log"
	"time"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

// Broadcaster fans presence changes out to live watchers.
type Broadcaster interface {
	PublishPresence(rec models.PresenceRecord)
	SubscribePresence() (<-chan models.PresenceRecord, func())
}

// Tracker maintains the caller's own online flag and lets sessions watch
// everyone else's. Presence is an eventually-stale oracle: no
// correctness-sensitive logic may depend on it.
type Tracker struct {
	store Store
	hub   Broadcaster
}

// NewTracker constructs a Tracker.
func NewTracker(store Store, hub Broadcaster) *Tracker {
	return &Tracker{store: store, hub: hub}
}

// Connect upserts {is_online: true, last_seen: now} for the user and
// notifies watchers.
func (t *Tracker) Connect(ctx context.Context, userID int) {
	t.upsert(ctx, models.PresenceRecord{UserID: userID, IsOnline: true, LastSeen: time.Now()})
}

// Disconnect is the best-effort offline write. The process can die before
// it runs, so consumers must not assume offline records are timely; the
// store TTL bounds the staleness.
func (t *Tracker) Disconnect(ctx context.Context, userID int) {
	t.upsert(ctx, models.PresenceRecord{UserID: userID, IsOnline: false, LastSeen: time.Now()})
}

func (t *Tracker) upsert(ctx context.Context, rec models.PresenceRecord) {
	if err := t.store.Upsert(ctx, rec); err != nil {
		// advisory write, log and move on
		log.Printf("presence upsert failed for user %d: %v", rec.UserID, err)
		return
	}
	t.hub.PublishPresence(rec)
}

// Watch returns a feed of other users' presence changes. Self-originated
// events are filtered out before delivery.
func (t *Tracker) Watch(ctx context.Context, selfID int) (<-chan models.PresenceRecord, func()) {
	src, cancel := t.hub.SubscribePresence()
	out := make(chan models.PresenceRecord, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-src:
				if !ok {
					return
				}
				if rec.UserID == selfID {
					continue
				}
				select {
				case out <- rec:
				default:
				}
			}
		}
	}()
	return out, cancel
}

// Resolve fills OnlineStatus on a batch of profiles from the store.
// Failures leave everyone offline rather than failing the read.
func (t *Tracker) Resolve(ctx context.Context, profiles []models.Profile) []models.Profile {
	ids := make([]int, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	records, err := t.store.Bulk(ctx, ids)
	if err != nil {
		log.Printf("presence bulk read failed: %v", err)
		return profiles
	}
	for i := range profiles {
		profiles[i].OnlineStatus = records[profiles[i].ID].IsOnline
	}
	return profiles
}
