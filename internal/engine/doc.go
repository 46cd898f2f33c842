// Package engine implements the preview/apply protocol for queued
// configuration commands.
//
// This is the one subsystem with real invariants:
//
//   - Preview is idempotent and read-only: the queue is replayed against
//     a scratch copy of the configuration, never the live document, and
//     every failing command is collected rather than halting the replay.
//   - Apply is all-or-nothing: commands run strictly in enqueue order,
//     and any failure restores the configuration file byte-identical to
//     its pre-apply state. A half-applied batch must never be left live.
//   - At most one apply (or rollback) per instance is in flight at a
//     time; concurrent attempts fail fast instead of interleaving.
//   - Every successful apply or rollback appends exactly one history
//     snapshot and re-saves the dirty-check baseline.
//
// The only unrecoverable state is a failure of the restore step itself;
// that is logged loudly and surfaced with RolledBack=false so the
// operator knows to inspect the configuration manually.
package engine
