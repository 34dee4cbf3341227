package credit

import (
	"errors"
	"math/big"
)

// LiquidityOracle exposes the read side of the liquidity accounting engine.
// Amounts are unsigned arbitrary-precision integers; this package never
// performs float arithmetic on them.
type LiquidityOracle interface {
	GetAvailableCredit(chainId uint64) (*big.Int, error)
	GetVaultBalance(chainId uint64) (*big.Int, error)
}

// Gate answers "can a bond of this size be backed right now" against the
// oracle's base credit, which already includes vault holdings. Reads are
// optimistic; callers re-check at the latest feasible point before acting.
type Gate struct {
	Oracle LiquidityOracle
}

func NewGate(oracle LiquidityOracle) *Gate {
	return &Gate{Oracle: oracle}
}

// AvailableCredit returns the bonding capacity for a destination chain
func (g *Gate) AvailableCredit(chainId uint64) (*big.Int, error) {
	available, err := g.Oracle.GetAvailableCredit(chainId)
	if err != nil {
		return nil, err
	}
	if available == nil {
		return nil, errors.New("liquidity oracle returned nil available credit")
	}
	return available, nil
}

// Insufficient reports whether available credit cannot back the required
// amount. Strict comparison: equality is sufficient.
func Insufficient(availableCredit *big.Int, requiredAmount *big.Int) bool {
	return availableCredit.Cmp(requiredAmount) < 0
}
