// Package scheduler implements the incremental indexing scheduler: the
// component that coalesces bursts of file-change notifications into minimal
// batches, guarantees at most one active processing pass at a time without
// ever losing a change, and drives the scan-then-fixup retry protocol for
// files that need in-place normalization.
//
// Work items enter through Enqueue, which adds them to a value-deduplicated
// pending set and arms the debounce. A single-worker pipeline drains the set
// by swapping it for an empty one, processing the snapshot outside the lock,
// and rescheduling itself with zero delay until a pass finds the set empty.
// Directory-walk and prune tasks from the tree scanner share the same
// pipeline, so all index mutations are serialized on one goroutine.
package scheduler
