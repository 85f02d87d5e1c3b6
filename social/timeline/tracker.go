// Package timeline tracks incremental synchronization state for one
// timeline: when a sync last completed, the newest item seen, and the
// cursor to resume from. The external scheduler owns when syncs run;
// this is just the bookkeeping between them.
package timeline

import (
	"time"

	"github.com/tkrehbiel/fedsync/social/model"
)

// Tracker holds sync state for one timeline of one account. The zero
// value means "never synced": both dates at zero and an empty position,
// which tells the adapter to start a full initial sync with an empty
// since cursor.
type Tracker struct {
	previousSyncedDate time.Time
	previousItemDate   time.Time
	position           model.TimelinePosition
}

// NewTracker resumes from previously persisted state.
func NewTracker(syncedDate, itemDate time.Time, pos model.TimelinePosition) *Tracker {
	return &Tracker{
		previousSyncedDate: syncedDate,
		previousItemDate:   itemDate,
		position:           pos,
	}
}

// OnTimelineDownloaded stamps the completion of a sync pass.
func (t *Tracker) OnTimelineDownloaded() {
	t.previousSyncedDate = time.Now().UTC()
}

// OnNewActivity records one downloaded item. The item date only ever
// advances, so out-of-order arrivals can't regress the watermark; the
// position always remembers the latest one given, as the next-request
// cursor.
func (t *Tracker) OnNewActivity(pos model.TimelinePosition, itemDate time.Time) {
	if itemDate.After(t.previousItemDate) {
		t.previousItemDate = itemDate
	}
	if !pos.IsEmpty() {
		t.position = pos
	}
}

func (t *Tracker) PreviousSyncedDate() time.Time {
	return t.previousSyncedDate
}

func (t *Tracker) PreviousItemDate() time.Time {
	return t.previousItemDate
}

// Position is the cursor to pass as the next request's since parameter.
func (t *Tracker) Position() model.TimelinePosition {
	return t.position
}

// NeedsFullSync reports whether this timeline has never completed a sync.
func (t *Tracker) NeedsFullSync() bool {
	return t.previousSyncedDate.IsZero() && t.previousItemDate.IsZero()
}

// ItemAge is how stale the newest known item is, zero when nothing has
// been seen yet.
func (t *Tracker) ItemAge(now time.Time) time.Duration {
	if t.previousItemDate.IsZero() {
		return 0
	}
	return now.Sub(t.previousItemDate)
}
