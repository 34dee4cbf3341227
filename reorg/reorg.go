package reorg

import (
	"fmt"
	"math/big"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/database"
	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
)

// Validator re-checks every stored fact a bonding transaction depends on,
// immediately before transmission. It answers pass/fail: any violation
// returns false rather than an error, and the caller must treat false as a
// hard abort for the send attempt.
type Validator struct {
	Store  database.TransferRootStore
	Logger log.Logger
}

func NewValidator(store database.TransferRootStore, logger log.Logger) *Validator {
	return &Validator{Store: store, Logger: logger}
}

// ValidateBondTransferRoot checks that the record derived from
// (rootHash, totalAmount) still exists, still targets destinationChainId,
// and that each of its transfer ids appears exactly once across all roots
// sourced from the same chain within the trailing window.
func (v *Validator) ValidateBondTransferRoot(rootHash string, destinationChainId uint64, totalAmount *big.Int) bool {
	rootId := types.GetTransferRootId(rootHash, totalAmount)
	root, err := v.Store.GetByTransferRootId(rootId)
	if err != nil || root == nil {
		v.Logger.Error(fmt.Sprintf("reorg check: no stored record for root id %s", rootId))
		return false
	}
	if !types.SameRootId(root.RootId, rootId) {
		v.Logger.Error(fmt.Sprintf("reorg check: stored id %s does not match recomputed id %s", root.RootId, rootId))
		return false
	}
	if root.DestinationChainId != destinationChainId {
		v.Logger.Error(fmt.Sprintf("reorg check: destination chain drifted from %d to %d for root %s",
			root.DestinationChainId, destinationChainId, rootId))
		return false
	}
	return v.transferIdsUnique(*root)
}

// transferIdsUnique flattens the transfer ids of every root sourced from
// the same chain inside the trailing window and requires each of the target
// root's ids to occur exactly once across that set. Zero occurrences means
// the record was superseded; more than one means a reorg produced
// conflicting commitments.
func (v *Validator) transferIdsUnique(root types.TransferRoot) bool {
	windowRoots, err := v.Store.GetTransferRootsFromTrailingWindow(root.SourceChainId, types.TransferRootTrailingWindow)
	if err != nil {
		v.Logger.Error(fmt.Sprintf("reorg check: trailing window query failed: %s", err.Error()))
		return false
	}
	counts := make(map[string]int)
	for _, windowRoot := range windowRoots {
		for _, transferId := range windowRoot.TransferIds {
			counts[util.NormalizeHex(transferId)]++
		}
	}
	for _, transferId := range root.TransferIds {
		occurrences := counts[util.NormalizeHex(transferId)]
		if occurrences != 1 {
			v.Logger.Error(fmt.Sprintf("reorg check: transfer id %s occurs %d times in trailing window of chain %d",
				transferId, occurrences, root.SourceChainId))
			return false
		}
	}
	return true
}
