package bus

import (
	"errors"
	"time"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

// Internal errors - mapped to public errors in tickbus package
var (
	ErrBusClosed          = errors.New("tickbus: bus is closed")
	ErrSubscriberExists   = errors.New("tickbus: subscriber already exists")
	ErrSubscriberNotFound = errors.New("tickbus: subscriber not found")
	ErrNilChannel         = errors.New("tickbus: nil channel provided")
)

// DropPolicy defines how the bus handles ticks when a subscriber cannot keep up
type DropPolicy int

const (
	// DropNew drops the incoming tick when the subscriber channel is full
	DropNew DropPolicy = iota
	// DropOld keeps only the latest tick
	DropOld
)

// String returns the policy name.
func (p DropPolicy) String() string {
	switch p {
	case DropNew:
		return "drop_new"
	case DropOld:
		return "drop_old"
	default:
		return "unknown"
	}
}

// Phase names the loop that produced a tick.
type Phase string

const (
	PhaseCapture  Phase = "capture"
	PhasePlayback Phase = "playback"
)

// Tick is one emitted frame of a capture or playback loop.
type Tick struct {
	// Run identifies the capture or playback run.
	Run string
	// Phase is the producing loop.
	Phase Phase
	// Segment is the composite segment index (0 for single traces).
	Segment int
	// Index is the tick index within the segment.
	Index int
	// Frame is the frame sent to the actuator sink (after orientation).
	Frame trace.Frame
	// At is the tick start time.
	At time.Time
}

// Receiver provides blocking/non-blocking access to the latest tick
type Receiver interface {
	// Receive blocks until a tick newer than the last one returned is
	// available. ok is false once the receiver is closed.
	Receive() (tick Tick, ok bool)
	// TryReceive returns the latest tick without blocking.
	TryReceive() (Tick, bool)
	// Close releases the receiver and wakes a blocked Receive.
	Close()
}

// SubscriberStats tracks tick distribution for one subscriber
type SubscriberStats struct {
	Policy  DropPolicy
	Sent    uint64
	Dropped uint64
}

// Stats is a snapshot of bus-wide distribution counters
type Stats struct {
	TotalPublished uint64
	TotalSent      uint64
	TotalDropped   uint64
	Subscribers    map[string]SubscriberStats
}

// Bus distributes ticks to multiple subscribers
type Bus interface {
	Subscribe(id string, ch chan<- Tick) error
	SubscribeLatest(id string) (Receiver, error)
	Publish(tick Tick)
	Unsubscribe(id string) error
	Stats() Stats
	Close()
}
