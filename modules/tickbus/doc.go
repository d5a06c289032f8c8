// Package tickbus publishes per-tick telemetry from the capture and
// playback loops without ever blocking them.
//
// Core rule: "Drop ticks, never queue. The control loop's period wins."
//
// Every frame sent to the actuator sink is also published as a Tick.
// Subscribers pick a drop policy:
//   - DropNew: channel subscriber; a full channel drops the incoming tick
//   - DropOld: latest-only receiver; a slow reader sees the newest tick
//
// Usage:
//
//	bus := tickbus.New()
//	defer bus.Close()
//
//	// Record every tick (buffered, drops when the writer lags)
//	ch := make(chan tickbus.Tick, 256)
//	bus.Subscribe("jsonl", ch)
//
//	// Display only the latest tick
//	latest, _ := bus.SubscribeLatest("display")
//	defer latest.Close()
//
// Publish is called from inside the tick loop and returns in
// microseconds regardless of subscriber speed. Stats reports per
// subscriber sent/dropped counts; with DropOld, Dropped counts ticks
// that were overwritten before being read.
package tickbus
