// Package viz is the terminal viewer for a running ensemble.
//
// [Model] is a Bubble Tea program that ticks a sim.Scheduler, reads every
// tail back out of the ensemble's tail buffer and draws it onto a braille
// [Canvas] through an orthographic [Camera].
//
// # Key Bindings
//
//	a     - add a random trajectory
//	c     - clone a random trajectory
//	C     - clear
//	Space - pause/resume
//	[ ]   - halve/double tail length
//	Tab   - select parameter, Up/Down adjust it
//	h     - toggle heads
//	x y z - spin, d toggles damping, + - zoom
//	?     - help overlay
package viz
