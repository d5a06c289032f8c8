// Package trace defines the sampled control frame, the fixed-length trace
// buffer and the binary codec used to persist them.
//
// # Frame
//
// A Frame is one sampled instant of the five operator control channels:
//
//	Speed    forward/backward drive speed
//	Lateral  horizontal (strafe) motion
//	Turn     turn rate
//	Aux      auxiliary mechanism speed
//	Lift     lift speed
//
// Channels are independent signed bytes. Range clamping is the input
// driver's job; the codec stores whatever it is given.
//
// # Wire format
//
// Every frame encodes to exactly FrameSize (5) bytes in the order
// speed, lateral, turn, aux, lift. There is no header, length prefix or
// checksum: a stream is a flat sequence of frames and frame i lives at
// byte offset 5*i.
//
//	buf := trace.NewBuffer(trace.Timing{RateHz: 50, Duration: 15 * time.Second})
//	enc := trace.NewEncoder(w)
//	for i := 0; i < buf.Len(); i++ {
//	    if err := enc.Encode(buf.At(i)); err != nil {
//	        return err
//	    }
//	}
//
// # Buffer
//
// A Buffer has length RateHz × Duration, fixed at construction. Index
// order is temporal order: index i is played at elapsed time i/RateHz.
// Buffers are overwritten in place and never resized.
package trace
