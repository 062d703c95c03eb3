package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ReviewsCreated    uint64
	ReviewsUpdated    uint64
	ReviewsDeleted    uint64
	ReviewsReassigned uint64
	ReviewsCompleted  uint64
	ReviewsReopened   uint64
	UsersCreated      uint64
	UsersDeleted      uint64
	UserAuthFailures  uint64
	AdminAuthFailures uint64
}

// InMemoryRecorder stores counters in memory; served on the admin metrics
// endpoint and used by tests.
type InMemoryRecorder struct {
	reviewsCreated    uint64
	reviewsUpdated    uint64
	reviewsDeleted    uint64
	reviewsReassigned uint64
	reviewsCompleted  uint64
	reviewsReopened   uint64
	usersCreated      uint64
	usersDeleted      uint64
	userAuthFailures  uint64
	adminAuthFailures uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ReviewsCreated:    atomic.LoadUint64(&m.reviewsCreated),
		ReviewsUpdated:    atomic.LoadUint64(&m.reviewsUpdated),
		ReviewsDeleted:    atomic.LoadUint64(&m.reviewsDeleted),
		ReviewsReassigned: atomic.LoadUint64(&m.reviewsReassigned),
		ReviewsCompleted:  atomic.LoadUint64(&m.reviewsCompleted),
		ReviewsReopened:   atomic.LoadUint64(&m.reviewsReopened),
		UsersCreated:      atomic.LoadUint64(&m.usersCreated),
		UsersDeleted:      atomic.LoadUint64(&m.usersDeleted),
		UserAuthFailures:  atomic.LoadUint64(&m.userAuthFailures),
		AdminAuthFailures: atomic.LoadUint64(&m.adminAuthFailures),
	}
}

// IncReviewCreated increments review created counter.
func (m *InMemoryRecorder) IncReviewCreated() {
	atomic.AddUint64(&m.reviewsCreated, 1)
}

// IncReviewUpdated increments review updated counter.
func (m *InMemoryRecorder) IncReviewUpdated() {
	atomic.AddUint64(&m.reviewsUpdated, 1)
}

// IncReviewDeleted increments review deleted counter.
func (m *InMemoryRecorder) IncReviewDeleted() {
	atomic.AddUint64(&m.reviewsDeleted, 1)
}

// IncReviewReassigned increments review reassigned counter.
func (m *InMemoryRecorder) IncReviewReassigned() {
	atomic.AddUint64(&m.reviewsReassigned, 1)
}

// IncReviewCompleted counts updates that submit a completed status.
func (m *InMemoryRecorder) IncReviewCompleted() {
	atomic.AddUint64(&m.reviewsCompleted, 1)
}

// IncReviewReopened counts updates that set the status back to pending.
func (m *InMemoryRecorder) IncReviewReopened() {
	atomic.AddUint64(&m.reviewsReopened, 1)
}

// IncUserCreated increments user created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserDeleted increments user deleted counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}

// IncAuthFailure increments the failure counter for kind.
func (m *InMemoryRecorder) IncAuthFailure(kind string) {
	switch kind {
	case "admin":
		atomic.AddUint64(&m.adminAuthFailures, 1)
	default:
		atomic.AddUint64(&m.userAuthFailures, 1)
	}
}
