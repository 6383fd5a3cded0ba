// Package metrics defines the recorder paylink reports lifecycle events and
// operation latencies to.
package metrics

import "time"

// Event counter names recorded by the lifecycle controller.
const (
	EventRequestCreated    = "request_created"
	EventTransferSubmitted = "transfer_submitted"
	EventTransferConfirmed = "transfer_confirmed"
	EventTransferFailed    = "transfer_failed"
	EventProofGenerated    = "proof_generated"
	EventProofFailed       = "proof_failed"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
