package sse

import "time"

// SyncNotifier is the interface services use to emit sync events.
type SyncNotifier interface {
	NotifySyncStarted(productIDs []int64)
	NotifyTagsRefreshed()
}

// HubNotifier implements SyncNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifySyncStarted(productIDs []int64) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&SyncEvent{
		Event:      EventSyncStarted,
		ProductIDs: productIDs,
		Count:      len(productIDs),
		Timestamp:  time.Now(),
	})
}

func (n *HubNotifier) NotifyTagsRefreshed() {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&SyncEvent{
		Event:     EventTagsRefreshed,
		Timestamp: time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifySyncStarted(productIDs []int64) {}
func (n *NopNotifier) NotifyTagsRefreshed()                 {}
