package notification

import (
	"sync"
	"time"
)

// RunNotice summarises one finished ingestion run.
type RunNotice struct {
	RunID    string         `json:"runId"`
	Pipeline string         `json:"pipeline"`
	FileName string         `json:"fileName"`
	UserID   string         `json:"userId,omitempty"`
	Status   int            `json:"status"`
	Message  string         `json:"message"`
	Counts   map[string]int `json:"counts"`
	Checksum string         `json:"checksum,omitempty"`
	At       time.Time      `json:"at"`
}

// NotificationService keeps the most recent run notices in a fixed ring.
type NotificationService struct {
	mu            sync.Mutex
	notifications []RunNotice
	next          int
	full          bool
}

func NewNotificationService(size int) *NotificationService {
	if size <= 0 {
		size = 1
	}
	return &NotificationService{
		notifications: make([]RunNotice, size),
	}
}

func (ns *NotificationService) AddNotification(n RunNotice) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.notifications[ns.next] = n
	ns.next = (ns.next + 1) % len(ns.notifications)
	if ns.next == 0 {
		ns.full = true
	}
}

// GetNotifications returns the stored notices, newest first.
func (ns *NotificationService) GetNotifications() []RunNotice {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	count := ns.next
	if ns.full {
		count = len(ns.notifications)
	}
	out := make([]RunNotice, 0, count)
	for i := 1; i <= count; i++ {
		idx := (ns.next - i + len(ns.notifications)) % len(ns.notifications)
		out = append(out, ns.notifications[idx])
	}
	return out
}

func (ns *NotificationService) ClearNotifications() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.notifications = make([]RunNotice, len(ns.notifications))
	ns.next = 0
	ns.full = false
}
