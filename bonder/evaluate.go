package bonder

import (
	"fmt"
	"time"

	"github.com/IrmajOConnors58/hop/credit"
	"github.com/IrmajOConnors58/hop/merkle"
	"github.com/IrmajOConnors58/hop/types"
)

// EvaluateTransferRoot runs the fixed decision sequence for one root:
// timing gate, remote bond check, hash verification, precise credit check,
// dry-run short circuit, vault ensure, intent persistence, reorg-safety
// revalidation, transmission. Any failed step aborts the rest of the
// sequence for this root; the root stays eligible for the next cycle unless
// it was bonded by someone else.
func (w *Watcher) EvaluateTransferRoot(root types.TransferRoot) error {
	attemptId, err := w.IdGen.NewAttemptId()
	if err != nil {
		return err
	}

	// 1. timing gate: the hub chain enforces a minimum delay between the
	// source-chain commit and the bond. Too early is routine, not an error.
	minDelay, err := w.Hub.GetMinBondDelaySeconds(w.Route)
	if w.LogError(err) != nil {
		return err
	}
	releaseAt := root.CommittedAt + minDelay
	if time.Now().Unix() < releaseAt {
		w.logger.Debug(fmt.Sprintf("attempt %s: root %s not yet bondable, release at %d", attemptId, root.RootId, releaseAt))
		return nil
	}

	// 2. remote bond check: someone else may have bonded this root already.
	// Terminal outcome, never retried.
	bonded, err := w.Hub.IsTransferRootBonded(root.RootId)
	if w.LogError(err) != nil {
		return err
	}
	if bonded {
		w.logger.Info("transfer root already bonded remotely, marking not found",
			"attempt_id", attemptId, "root_id", root.RootId)
		notFound := true
		return w.LogError(w.Store.UpdateTransferRoot(root.RootId, types.TransferRootUpdate{IsNotFound: &notFound}))
	}

	// 3. hash verification, when member transfer ids are known
	if len(root.TransferIds) > 0 {
		matches, err := merkle.VerifyTransferRootHash(root.RootHash, root.TransferIds)
		if w.LogError(err) != nil {
			return err
		}
		if !matches {
			w.logger.Error("stored root hash does not match recomputation over transfer ids",
				"attempt_id", attemptId, "root_id", root.RootId, "root_hash", root.RootHash)
			return ErrRootHashMismatch
		}
	}

	// 4. precise credit check against the exact bond cost
	requiredAmount, err := w.Hub.GetBondForTransferAmount(root.TotalAmount)
	if w.LogError(err) != nil {
		return err
	}
	availableCredit, err := w.Gate.AvailableCredit(w.Route.DestinationChainId)
	if w.LogError(err) != nil {
		return err
	}
	if credit.Insufficient(availableCredit, requiredAmount) {
		msg := fmt.Sprintf("insufficient credit to bond root %s on chain %d: available %s, required %s",
			root.RootId, w.Route.DestinationChainId, availableCredit.String(), requiredAmount.String())
		w.logger.Error(msg)
		w.Notifier.Error(msg)
		return ErrInsufficientCredit
	}

	// 5. dry-run short circuit: everything above is read-only
	if w.config.DryRun {
		w.logger.Info("dry run, skipping bond transmission",
			"attempt_id", attemptId, "root_id", root.RootId, "required", requiredAmount.String())
		return nil
	}

	// 6. ensure liquid capacity, withdrawing from the reserve if configured
	withdrawer := w.Siblings[w.Route.DestinationChainId]
	if err := w.Vault.EnsureLiquidity(w.Route, requiredAmount, withdrawer); err != nil {
		return err
	}

	// 7. persist intent before transmitting. This marker keeps the root out
	// of future cycles; it is not an in-process lock.
	sentAt := time.Now().Unix()
	if err := w.Store.UpdateTransferRoot(root.RootId, types.TransferRootUpdate{SentBondTxAt: &sentAt}); w.LogError(err) != nil {
		return err
	}

	// 8. reorg-safety revalidation: time has passed since step 1, so every
	// fact the transaction depends on is re-checked at the last moment
	if !w.Reorg.ValidateBondTransferRoot(root.RootHash, root.DestinationChainId, root.TotalAmount) {
		w.logger.Error("aborting bond, reorg safety validation failed",
			"attempt_id", attemptId, "root_id", root.RootId)
		return ErrReorgDetected
	}

	// 9. transmission
	tx, err := w.Hub.BondTransferRoot(root.RootHash, root.DestinationChainId, root.TotalAmount)
	if err != nil {
		msg := fmt.Sprintf("bondTransferRoot tx failed for root %s (attempt %s): %s", root.RootId, attemptId, err.Error())
		w.logger.Error(msg)
		w.Notifier.Error(msg)
		return err
	}
	w.logger.Info("bonded transfer root",
		"attempt_id", attemptId, "root_id", root.RootId, "tx_hash", tx.Hash, "amount", root.TotalAmount.String())
	w.Notifier.Info(fmt.Sprintf("bonded transfer root %s with tx %s (amount %s, destination chain %d)",
		root.RootId, tx.Hash, root.TotalAmount.String(), root.DestinationChainId))
	return nil
}
