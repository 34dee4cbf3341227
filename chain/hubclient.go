package chain

import (
	"math/big"

	"github.com/IrmajOConnors58/hop/types"
)

// HubChainClient is the hub-side contract surface this core consumes.
// Timeout and retry policy live behind these calls, not in the decision
// engine.
type HubChainClient interface {
	// GetMinBondDelaySeconds returns the mandatory delay between a root's
	// commit time on the source chain and the earliest permitted bond.
	GetMinBondDelaySeconds(route types.Route) (int64, error)

	// IsTransferRootBonded reports whether any actor has already posted a
	// bond for this root id.
	IsTransferRootBonded(rootId string) (bool, error)

	// GetBondForTransferAmount returns the exact collateral the hub chain
	// requires to bond a root of the given total amount.
	GetBondForTransferAmount(totalAmount *big.Int) (*big.Int, error)

	// BondTransferRoot dispatches the bonding transaction. Irreversible.
	BondTransferRoot(rootHash string, destinationChainId uint64, totalAmount *big.Int) (*types.BondTx, error)
}
