package bonder

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/IrmajOConnors58/hop/credit"
	"github.com/IrmajOConnors58/hop/types"
)

const defaultBondConcurrency = 8

// Poll runs one bonding cycle: load eligible roots for this route, drop the
// ones clearly too large for current credit, then evaluate the rest
// concurrently on a bounded worker pool. Evaluations are independent; one
// root's failure never affects another's. Per-root errors are collected and
// returned joined so the scheduler can log them.
func (w *Watcher) Poll() error {
	cycleId := uuid.New().String()
	roots, err := w.Store.GetUnbondedTransferRoots(w.Route, w.config.BondRetryAfter)
	if w.LogError(err) != nil {
		return err
	}
	if len(roots) == 0 {
		return nil
	}
	w.logger.Debug(fmt.Sprintf("bond cycle %s: %d unbonded transfer roots", cycleId, len(roots)))

	// coarse pre-filter: one optimistic credit read for the whole cycle.
	// Roots that clearly exceed it are skipped cheaply; the precise
	// per-root check in evaluate remains the deciding gate, so two roots
	// competing for the same pool can both pass here.
	availableCredit, err := w.Gate.AvailableCredit(w.Route.DestinationChainId)
	if w.LogError(err) != nil {
		return err
	}
	candidates := make([]types.TransferRoot, 0, len(roots))
	for _, root := range roots {
		if credit.Insufficient(availableCredit, root.TotalAmount) {
			msg := fmt.Sprintf("bond cycle %s: insufficient credit to bond root %s on chain %d: available %s, required at least %s",
				cycleId, root.RootId, w.Route.DestinationChainId, availableCredit.String(), root.TotalAmount.String())
			w.logger.Error(msg)
			w.Notifier.Error(msg)
			continue
		}
		candidates = append(candidates, root)
	}

	concurrency := w.config.BondConcurrency
	if concurrency <= 0 {
		concurrency = defaultBondConcurrency
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var errMtx sync.Mutex
	errMsgs := []string{}
	for _, root := range candidates {
		wg.Add(1)
		go func(root types.TransferRoot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := w.EvaluateTransferRoot(root); err != nil {
				errMtx.Lock()
				errMsgs = append(errMsgs, fmt.Sprintf("root %s: %s", root.RootId, err.Error()))
				errMtx.Unlock()
			}
		}(root)
	}
	wg.Wait()

	if len(errMsgs) > 0 {
		return fmt.Errorf("bond cycle %s: %d of %d evaluations failed: %s",
			cycleId, len(errMsgs), len(candidates), strings.Join(errMsgs, "; "))
	}
	return nil
}
