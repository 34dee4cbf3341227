package bonder

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/merkle"
	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
)

// test fakes shared by the evaluate and poll tests

type fakeStore struct {
	mtx   sync.Mutex
	roots map[string]types.TransferRoot
}

func newFakeStore() *fakeStore {
	return &fakeStore{roots: map[string]types.TransferRoot{}}
}

func (s *fakeStore) get(rootId string) types.TransferRoot {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.roots[util.NormalizeHex(rootId)]
}

func (s *fakeStore) GetUnbondedTransferRoots(route types.Route, retryAfter time.Duration) ([]types.TransferRoot, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	now := time.Now().Unix()
	results := []types.TransferRoot{}
	for _, root := range s.roots {
		if root.SourceChainId != route.SourceChainId || root.DestinationChainId != route.DestinationChainId {
			continue
		}
		if root.IsNotFound || root.BondedAt != 0 {
			continue
		}
		if root.SentBondTxAt != 0 && now-root.SentBondTxAt < int64(retryAfter.Seconds()) {
			continue
		}
		results = append(results, root)
	}
	return results, nil
}

func (s *fakeStore) GetByTransferRootId(rootId string) (*types.TransferRoot, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	root, exists := s.roots[util.NormalizeHex(rootId)]
	if !exists {
		return nil, nil
	}
	return &root, nil
}

func (s *fakeStore) GetTransferRootsFromTrailingWindow(sourceChainId uint64, window time.Duration) ([]types.TransferRoot, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	cutoff := time.Now().Add(-window).Unix()
	results := []types.TransferRoot{}
	for _, root := range s.roots {
		if root.SourceChainId == sourceChainId && root.CommittedAt >= cutoff {
			results = append(results, root)
		}
	}
	return results, nil
}

func (s *fakeStore) UpsertTransferRoot(root types.TransferRoot) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.roots[util.NormalizeHex(root.RootId)] = root
	return nil
}

func (s *fakeStore) UpdateTransferRoot(rootId string, update types.TransferRootUpdate) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	root, exists := s.roots[util.NormalizeHex(rootId)]
	if !exists {
		return errors.New("transfer root not found")
	}
	if update.SentBondTxAt != nil && *update.SentBondTxAt != 0 {
		root.SentBondTxAt = *update.SentBondTxAt
	}
	if update.IsNotFound != nil {
		root.IsNotFound = *update.IsNotFound
	}
	s.roots[util.NormalizeHex(rootId)] = root
	return nil
}

type bondCall struct {
	rootHash           string
	destinationChainId uint64
	amount             *big.Int
}

type fakeHub struct {
	mtx          sync.Mutex
	minDelay     int64
	bonded       bool
	bondRequired *big.Int // nil means the bond costs exactly the root amount
	bondErr      error
	bondCalls    []bondCall
	onBond       func(rootHash string)
}

func (h *fakeHub) GetMinBondDelaySeconds(route types.Route) (int64, error) {
	return h.minDelay, nil
}

func (h *fakeHub) IsTransferRootBonded(rootId string) (bool, error) {
	return h.bonded, nil
}

func (h *fakeHub) GetBondForTransferAmount(amount *big.Int) (*big.Int, error) {
	if h.bondRequired != nil {
		return new(big.Int).Set(h.bondRequired), nil
	}
	return new(big.Int).Set(amount), nil
}

func (h *fakeHub) BondTransferRoot(rootHash string, destinationChainId uint64, totalAmount *big.Int) (*types.BondTx, error) {
	h.mtx.Lock()
	h.bondCalls = append(h.bondCalls, bondCall{rootHash, destinationChainId, new(big.Int).Set(totalAmount)})
	onBond := h.onBond
	h.mtx.Unlock()
	if onBond != nil {
		onBond(rootHash)
	}
	if h.bondErr != nil {
		return nil, h.bondErr
	}
	return &types.BondTx{Hash: "0xfeedtx"}, nil
}

func (h *fakeHub) calls() []bondCall {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return append([]bondCall{}, h.bondCalls...)
}

type fakeOracle struct {
	mtx       sync.Mutex
	available *big.Int
	vault     *big.Int
}

func (o *fakeOracle) GetAvailableCredit(chainId uint64) (*big.Int, error) {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	return new(big.Int).Set(o.available), nil
}

func (o *fakeOracle) GetVaultBalance(chainId uint64) (*big.Int, error) {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	return new(big.Int).Set(o.vault), nil
}

func (o *fakeOracle) setAvailable(amount int64) {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	o.available = big.NewInt(amount)
}

type fakeWithdrawer struct {
	mtx   sync.Mutex
	calls []*big.Int
}

func (w *fakeWithdrawer) WithdrawFromVaultAndRestake(amount *big.Int) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	w.calls = append(w.calls, new(big.Int).Set(amount))
	return nil
}

type recordingNotifier struct {
	mtx    sync.Mutex
	infos  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorCount() int {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return len(n.errors)
}

func testRoute() types.Route {
	return types.Route{SourceChainId: 10, DestinationChainId: 1, Token: "USDC"}
}

func testConfig() types.BonderConfig {
	nop := log.NewNopLogger()
	return types.BonderConfig{
		Logger:          &nop,
		BondRetryAfter:  24 * time.Hour,
		BondConcurrency: 4,
		DoBond:          true,
	}
}

// bondableRoot builds a root whose stored hash genuinely commits to its
// transfer ids and whose id derives from (hash, amount), committed an hour
// ago so a short minimum delay has elapsed.
func bondableRoot(amount int64, transferIds []string) types.TransferRoot {
	rootHash, err := merkle.ComputeTransferRootHash(transferIds)
	if err != nil {
		panic(err)
	}
	totalAmount := big.NewInt(amount)
	return types.TransferRoot{
		RootId:             types.GetTransferRootId(rootHash, totalAmount),
		RootHash:           rootHash,
		TotalAmount:        totalAmount,
		SourceChainId:      10,
		DestinationChainId: 1,
		CommittedAt:        time.Now().Add(-time.Hour).Unix(),
		TransferIds:        transferIds,
	}
}

func newTestWatcher(store *fakeStore, hub *fakeHub, oracle *fakeOracle, notifier *recordingNotifier, config types.BonderConfig) *Watcher {
	return NewWatcher(testRoute(), store, hub, oracle, notifier, config)
}
