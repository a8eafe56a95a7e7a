package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/scheduler"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/sse"
)

// TriggerService turns product change events into debounced background
// syncs. Rapid successive edits to the same product set collapse into one
// vendor push.
type TriggerService struct {
	jobs     scheduler.JobScheduler
	sync     *SyncService
	notifier sse.SyncNotifier

	debounce time.Duration
}

// NewTriggerService constructs a TriggerService.
func NewTriggerService(jobs scheduler.JobScheduler, sync *SyncService, notifier sse.SyncNotifier, debounce time.Duration) *TriggerService {
	return &TriggerService{jobs: jobs, sync: sync, notifier: notifier, debounce: debounce}
}

// ScheduleSync queues a debounced sync for the given products after the
// default delay.
func (t *TriggerService) ScheduleSync(productIDs []int64) {
	t.ScheduleSyncAfter(productIDs, t.debounce)
}

// ScheduleSyncAfter queues a sync with an explicit delay. Zero runs as soon
// as the scheduler fires, still off the caller's goroutine.
func (t *TriggerService) ScheduleSyncAfter(productIDs []int64, delay time.Duration) {
	if len(productIDs) == 0 {
		return
	}
	t.notifier.NotifySyncStarted(productIDs)
	t.jobs.Schedule(syncJobKey(productIDs), delay, func(ctx context.Context) {
		t.sync.SyncBackground(ctx, productIDs)
	})
}

// syncJobKey names the job by its product set so identical triggers
// debounce while disjoint sets run independently.
func syncJobKey(productIDs []int64) string {
	parts := make([]string, len(productIDs))
	for i, id := range productIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "sync:" + strings.Join(parts, ",")
}
