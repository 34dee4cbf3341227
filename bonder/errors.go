package bonder

import "errors"

// Sentinel errors for the per-root evaluation sequence. Expected recurring
// conditions (timing, credit) are distinguishable from state-corruption
// conditions (hash mismatch, reorg) so callers and tests can tell a routine
// retry from something that must be surfaced loudly.
var (
	// ErrInsufficientCredit : the precise credit check failed. Expected
	// under load, alerted externally, retried next cycle.
	ErrInsufficientCredit = errors.New("insufficient credit to bond transfer root")

	// ErrRootHashMismatch : the recomputed merkle root does not match the
	// stored commitment. Data corruption or inconsistent upstream
	// observation; never silently retried with changed data.
	ErrRootHashMismatch = errors.New("recomputed transfer root hash does not match stored root hash")

	// ErrReorgDetected : pre-transmission revalidation failed. Fatal for
	// this send attempt.
	ErrReorgDetected = errors.New("reorg safety validation failed before bond transmission")
)
