package vault

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/types"
)

type fakeOracle struct {
	available *big.Int
	vault     *big.Int
}

func (o *fakeOracle) GetAvailableCredit(chainId uint64) (*big.Int, error) {
	return new(big.Int).Set(o.available), nil
}

func (o *fakeOracle) GetVaultBalance(chainId uint64) (*big.Int, error) {
	return new(big.Int).Set(o.vault), nil
}

type fakeWithdrawer struct {
	mtx     sync.Mutex
	calls   []*big.Int
	failErr error
}

func (w *fakeWithdrawer) WithdrawFromVaultAndRestake(amount *big.Int) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	w.calls = append(w.calls, new(big.Int).Set(amount))
	return w.failErr
}

type recordingNotifier struct {
	mtx    sync.Mutex
	errors []string
}

func (n *recordingNotifier) Info(msg string) {}

func (n *recordingNotifier) Error(msg string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.errors = append(n.errors, msg)
}

func route(auto bool) types.Route {
	return types.Route{SourceChainId: 10, DestinationChainId: 1, Token: "USDC", AutoVaultWithdraw: auto}
}

func TestEnsureLiquidityNoopWhenDisabled(t *testing.T) {
	oracle := &fakeOracle{available: big.NewInt(0), vault: big.NewInt(0)}
	withdrawer := &fakeWithdrawer{}
	coordinator := NewCoordinator(oracle, &recordingNotifier{}, log.NewNopLogger())

	err := coordinator.EnsureLiquidity(route(false), big.NewInt(1000), withdrawer)
	assert.Nil(t, err)
	assert.Len(t, withdrawer.calls, 0, "auto-withdraw disabled means no-op")
}

func TestEnsureLiquidityBoundary(t *testing.T) {
	// availableCredit - vaultBalance == requiredAmount: strict less-than
	// only, so no withdrawal
	oracle := &fakeOracle{available: big.NewInt(1500), vault: big.NewInt(500)}
	withdrawer := &fakeWithdrawer{}
	coordinator := NewCoordinator(oracle, &recordingNotifier{}, log.NewNopLogger())

	err := coordinator.EnsureLiquidity(route(true), big.NewInt(1000), withdrawer)
	assert.Nil(t, err)
	assert.Len(t, withdrawer.calls, 0, "equality must not trigger withdrawal")

	// one unit below triggers a withdrawal of the full vault balance
	oracle.available = big.NewInt(1499)
	err = coordinator.EnsureLiquidity(route(true), big.NewInt(1000), withdrawer)
	assert.Nil(t, err)
	assert.Len(t, withdrawer.calls, 1)
	assert.Equal(t, big.NewInt(500), withdrawer.calls[0], "withdraws the full current vault balance")
}

func TestEnsureLiquidityWithdrawalFailure(t *testing.T) {
	oracle := &fakeOracle{available: big.NewInt(100), vault: big.NewInt(50)}
	withdrawer := &fakeWithdrawer{failErr: errors.New("revert")}
	notifier := &recordingNotifier{}
	coordinator := NewCoordinator(oracle, notifier, log.NewNopLogger())

	err := coordinator.EnsureLiquidity(route(true), big.NewInt(1000), withdrawer)
	assert.NotNil(t, err, "withdrawal failure is fatal for the bonding attempt")
	assert.Len(t, notifier.errors, 1, "failure is notified externally")

	// the lock must have been released on the error path
	withdrawer.failErr = nil
	err = coordinator.EnsureLiquidity(route(true), big.NewInt(1000), withdrawer)
	assert.Nil(t, err)
	assert.Len(t, withdrawer.calls, 2)
}

func TestEnsureLiquidityNilWithdrawer(t *testing.T) {
	oracle := &fakeOracle{available: big.NewInt(0), vault: big.NewInt(0)}
	coordinator := NewCoordinator(oracle, &recordingNotifier{}, log.NewNopLogger())
	err := coordinator.EnsureLiquidity(route(true), big.NewInt(1000), nil)
	assert.Nil(t, err, "no destination-side collaborator means no-op")
}

func TestEnsureLiquiditySerializesDecisions(t *testing.T) {
	oracle := &fakeOracle{available: big.NewInt(100), vault: big.NewInt(100)}
	withdrawer := &fakeWithdrawer{}
	coordinator := NewCoordinator(oracle, &recordingNotifier{}, log.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Nil(t, coordinator.EnsureLiquidity(route(true), big.NewInt(1000), withdrawer))
		}()
	}
	wg.Wait()
	assert.Len(t, withdrawer.calls, 16, "each caller re-reads and decides under the lock")
}
