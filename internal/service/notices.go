package service

import (
	"slices"
	"sync"
	"time"

	"github.com/target/jobboard-ui-api/internal/ports"
)

// DefaultNoticeCapacity bounds a client's pending notices.
const DefaultNoticeCapacity = 20

// NoticeQueue buffers notices for one client until the browser drains them.
// When full, the oldest notice is dropped.
type NoticeQueue struct {
	mu       sync.Mutex
	items    []ports.Notice
	capacity int
	now      func() time.Time
}

var _ ports.Notifier = (*NoticeQueue)(nil)

// NewNoticeQueue creates a queue holding at most capacity notices (DefaultNoticeCapacity when <= 0).
func NewNoticeQueue(capacity int) *NoticeQueue {
	if capacity <= 0 {
		capacity = DefaultNoticeCapacity
	}
	return &NoticeQueue{capacity: capacity, now: time.Now}
}

// Notify enqueues n.
func (q *NoticeQueue) Notify(n ports.Notice) {
	if n.At.IsZero() {
		n.At = q.now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = slices.Delete(q.items, 0, len(q.items)-q.capacity+1)
	}
	q.items = append(q.items, n)
}

// Drain returns all pending notices in arrival order and empties the queue.
func (q *NoticeQueue) Drain() []ports.Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		return []ports.Notice{}
	}
	return out
}

// Len returns the number of pending notices.
func (q *NoticeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
