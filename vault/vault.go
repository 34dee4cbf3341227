package vault

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/alert"
	"github.com/IrmajOConnors58/hop/credit"
	"github.com/IrmajOConnors58/hop/types"
)

// Withdrawer is the destination-side collaborator that can move reserve
// funds back into bonding liquidity.
type Withdrawer interface {
	WithdrawFromVaultAndRestake(amount *big.Int) error
}

// Coordinator serializes the read-decide-withdraw sequence for a watcher
// instance. Concurrent root evaluations may each conclude a withdrawal is
// needed for overlapping reasons; the mutex ensures only one acts on fresh
// numbers at a time. The lock is scoped to exactly this sequence and is
// released on every exit path.
type Coordinator struct {
	Oracle   credit.LiquidityOracle
	Notifier alert.Notifier
	Logger   log.Logger
	mtx      sync.Mutex
}

func NewCoordinator(oracle credit.LiquidityOracle, notifier alert.Notifier, logger log.Logger) *Coordinator {
	return &Coordinator{
		Oracle:   oracle,
		Notifier: notifier,
		Logger:   logger,
	}
}

// EnsureLiquidity guarantees liquid capacity >= requiredAmount for the
// route's destination chain, withdrawing the full reserve balance if the
// route has auto-withdraw enabled and liquid credit alone cannot cover the
// bond. A withdrawal failure is fatal for the current bonding attempt.
func (c *Coordinator) EnsureLiquidity(route types.Route, requiredAmount *big.Int, withdrawer Withdrawer) error {
	if !route.AutoVaultWithdraw || withdrawer == nil {
		return nil
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	// values may have moved since the caller's earlier estimate
	availableCredit, err := c.Oracle.GetAvailableCredit(route.DestinationChainId)
	if err != nil {
		return err
	}
	vaultBalance, err := c.Oracle.GetVaultBalance(route.DestinationChainId)
	if err != nil {
		return err
	}

	liquid := new(big.Int).Sub(availableCredit, vaultBalance)
	if liquid.Cmp(requiredAmount) >= 0 {
		return nil
	}

	c.Logger.Info("withdrawing from vault to cover bond",
		"destination_chain_id", route.DestinationChainId,
		"required", requiredAmount.String(),
		"liquid", liquid.String(),
		"vault_balance", vaultBalance.String())
	if err := withdrawer.WithdrawFromVaultAndRestake(vaultBalance); err != nil {
		msg := fmt.Sprintf("vault withdrawal of %s on chain %d failed: %s",
			vaultBalance.String(), route.DestinationChainId, err.Error())
		c.Logger.Error(msg)
		c.Notifier.Error(msg)
		return err
	}
	return nil
}
