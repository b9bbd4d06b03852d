package metrics

import "time"

// Recorder receives engine events and operation latencies. The chain label
// is read from labels["chain"].
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Event names counted by the engine.
const (
	EventConnect          = "connect"
	EventConnectFailed    = "connect_failed"
	EventApprovalSent     = "approval_sent"
	EventApprovalSkipped  = "approval_skipped"
	EventPurchaseStarted  = "purchase_started"
	EventPurchaseSuccess  = "purchase_confirmed"
	EventPurchaseFailed   = "purchase_failed"
	EventPurchaseRejected = "purchase_rejected"
)

// Labels builds the label set for a chain.
func Labels(chain string) map[string]string {
	return map[string]string{"chain": chain}
}

// NoopRecorder drops everything.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
