// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Review lifecycle metrics
	IncReviewCreated()
	IncReviewUpdated()
	IncReviewDeleted()
	IncReviewReassigned()
	IncReviewCompleted()
	IncReviewReopened()

	// User roster metrics
	IncUserCreated()
	IncUserDeleted()

	// Identity metrics
	IncAuthFailure(kind string) // kind: "user" or "admin"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
