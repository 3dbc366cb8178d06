// Package sim runs an ensemble of Lorenz trajectories frame by frame.
//
// An [Ensemble] owns every [Trajectory] together with its ring history and
// the [dynamo.Params] they share. Each call to [Ensemble.Step] integrates
// StepsPerFrame RK4 steps per trajectory, pushes them as one batch and
// returns a [FrameDelta] naming the history spans that changed. The same
// spans are copied into the ensemble's [TailBuffer], a flat float32 layout
// suitable for partial uploads by a renderer.
//
// A [Scheduler] wraps an ensemble for frame-driven use, counts frames per
// second and reports each frame to a metrics.Recorder.
package sim
