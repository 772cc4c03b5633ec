package cleanerd

import "errors"

// ErrUnknownPolicy is returned when Config.PolicyName does not resolve
// against the registry passed to New.
var ErrUnknownPolicy = errors.New("cleanerd: unknown policy")

// ErrBelowReclaimThreshold is returned by RunCycle when the projected
// reclaim from a selection falls below Config.MinReclaimableBlocks; the
// cycle is skipped rather than cleaning a handful of blocks for the cost of
// a full cleaning pass.
var ErrBelowReclaimThreshold = errors.New("cleanerd: projected reclaim below minimum threshold")
