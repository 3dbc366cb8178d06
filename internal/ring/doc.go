// Package ring implements the fixed-capacity tail history kept for each
// trajectory.
//
// A [History] stores its last K states in one contiguous slice of 3K
// scalars. Writes advance a cursor modulo K, so a batch of writes touches
// either one contiguous span or, when it wraps past K-1, two physically
// disjoint spans. [Range] values describe those spans in element indices so
// a renderer can upload only what changed:
//
//	span := h.PushBatch(states)
//	for _, r := range span.Ranges(h.Capacity()) {
//	    upload(r.Start, h.Scalars(r))
//	}
//
// Resize keeps the newest min(K', Len) states in chronological order and
// relays them out from index 0, so physical indices are not stable across a
// resize and a full upload is required afterwards.
package ring
