// Package configdoc models the gateway configuration as a JSON tree.
//
// The gateway owns the configuration file; clawctl only ever reads a
// serialized snapshot or mutates it through discrete path-set/path-unset
// operations. Document is the in-memory scratch representation used for
// preview replay and diffing - it is never a live handle on the gateway's
// own state.
//
// All comparisons (dirty checks, rollback previews, all-or-nothing apply
// verification) go through MarshalCanonical so that "unchanged" is a pure
// string equality check.
package configdoc
