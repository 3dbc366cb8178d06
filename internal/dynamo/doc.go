// Package dynamo provides the primitives shared by the Lorenz ensemble:
//
//   - [State]: a 3-vector position
//   - [System]: a time-invariant vector field
//   - [Params]: simulation parameters shared by an ensemble
//   - [ParallelFor]: chunked fan-out used for parallel integration
//
// Errors returned by the ensemble and history packages wrap the sentinels in
// this package and can be matched with errors.Is.
//
// Non-finite states are never rejected. A trajectory that diverges to NaN or
// Inf keeps integrating and propagates the value; [State.IsValid] exists for
// diagnostics only.
package dynamo
