package trace

import "errors"

// ErrNotFinalized is returned by BuildTrace when FinalizePayloadHash has not
// run yet. Programming error; fail fast.
var ErrNotFinalized = errors.New("trace: payload hash not finalized")

// ErrNotBuilding is returned by payload mutators called after finalize.
// The hashed snapshot must never diverge from the payload through normal use.
var ErrNotBuilding = errors.New("trace: payload is finalized and no longer mutable")
