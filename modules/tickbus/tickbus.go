package tickbus

import "github.com/e7canasta/motion-recorder/modules/tickbus/internal/bus"

// Public API - re-export internal types as stable contract

// DropPolicy defines how the bus handles ticks when a subscriber cannot keep up
type DropPolicy = bus.DropPolicy

const (
	// DropNew drops incoming ticks if the subscriber's channel is full
	DropNew = bus.DropNew
	// DropOld keeps only the latest tick (latest-only)
	DropOld = bus.DropOld
)

// Phase names the loop that produced a tick.
type Phase = bus.Phase

const (
	PhaseCapture  = bus.PhaseCapture
	PhasePlayback = bus.PhasePlayback
)

// Tick is one emitted frame of a capture or playback loop
type Tick = bus.Tick

// Receiver provides blocking/non-blocking access for DropOld subscribers
type Receiver = bus.Receiver

// SubscriberStats tracks tick distribution for one subscriber
type SubscriberStats = bus.SubscriberStats

// Stats is a snapshot of bus-wide counters
type Stats = bus.Stats

// Bus distributes ticks to multiple subscribers with configurable drop policies
type Bus = bus.Bus

// Public API errors
var (
	ErrBusClosed          = bus.ErrBusClosed
	ErrSubscriberExists   = bus.ErrSubscriberExists
	ErrSubscriberNotFound = bus.ErrSubscriberNotFound
	ErrNilChannel         = bus.ErrNilChannel
)

// New creates a new tick bus.
func New() Bus {
	return bus.New()
}

// DropRate returns the fraction (0.0 to 1.0) of ticks dropped across all
// subscribers. Returns 0.0 if nothing was distributed.
func DropRate(stats Stats) float64 {
	total := stats.TotalSent + stats.TotalDropped
	if total == 0 {
		return 0.0
	}
	return float64(stats.TotalDropped) / float64(total)
}
