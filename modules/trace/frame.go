package trace

import (
	"fmt"
	"math"
)

// Frame is one sampled instant of all control channels.
type Frame struct {
	// Speed is the forward/backward drive speed.
	Speed int8
	// Lateral is the horizontal (strafe) motion.
	Lateral int8
	// Turn is the turn rate. Mirrored by the orientation multiplier at
	// playback time.
	Turn int8
	// Aux is the auxiliary mechanism speed.
	Aux int8
	// Lift is the lift speed.
	Lift int8
}

// Zero is the all-channels-zero frame ("no motion").
var Zero Frame

// IsZero reports whether every channel is zero.
func (f Frame) IsZero() bool {
	return f == Zero
}

// Mirrored returns a copy of f with the turn channel scaled by
// orientation (+1 or -1). The receiver is never modified.
//
// Negating -128 saturates at 127 so a mirrored trace stays in range.
func (f Frame) Mirrored(orientation int) Frame {
	if orientation >= 0 {
		return f
	}
	turn := -int(f.Turn)
	if turn > math.MaxInt8 {
		turn = math.MaxInt8
	}
	f.Turn = int8(turn)
	return f
}

// String returns the channels in wire order.
func (f Frame) String() string {
	return fmt.Sprintf("spd=%d lat=%d turn=%d aux=%d lift=%d",
		f.Speed, f.Lateral, f.Turn, f.Aux, f.Lift)
}
