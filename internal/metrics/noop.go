package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncReviewCreated is a no-op.
func (n *NoopRecorder) IncReviewCreated() {}

// IncReviewUpdated is a no-op.
func (n *NoopRecorder) IncReviewUpdated() {}

// IncReviewDeleted is a no-op.
func (n *NoopRecorder) IncReviewDeleted() {}

// IncReviewReassigned is a no-op.
func (n *NoopRecorder) IncReviewReassigned() {}

// IncReviewCompleted is a no-op.
func (n *NoopRecorder) IncReviewCompleted() {}

// IncReviewReopened is a no-op.
func (n *NoopRecorder) IncReviewReopened() {}

// IncUserCreated is a no-op.
func (n *NoopRecorder) IncUserCreated() {}

// IncUserDeleted is a no-op.
func (n *NoopRecorder) IncUserDeleted() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(kind string) {}
