package ethereum

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/types"
)

const bridgeABI = `[
	{"constant":true,"inputs":[],"name":"minTransferRootBondDelay","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"totalAmount","type":"uint256"}],"name":"getBondForTransferAmount","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"transferRootId","type":"bytes32"}],"name":"isTransferRootIdBonded","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"rootHash","type":"bytes32"},{"name":"destinationChainId","type":"uint256"},{"name":"totalAmount","type":"uint256"}],"name":"bondTransferRoot","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"chainId","type":"uint256"}],"name":"getAvailableCredit","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"chainId","type":"uint256"}],"name":"getVaultBalance","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const vaultABI = `[
	{"constant":false,"inputs":[{"name":"amount","type":"uint256"}],"name":"withdrawAndRestake","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

// Client talks to the hub bridge contract and, when a vault address is
// configured, the destination-side vault contract.
type Client struct {
	ChainId  uint64
	Logger   log.Logger
	eth      *ethclient.Client
	bridge   *bind.BoundContract
	vault    *bind.BoundContract
	signerFn func() *bind.TransactOpts
}

// NewClient dials the chain RPC and binds the bridge (and optional vault)
// contracts. The bonder key signs both bonding and withdrawal transactions.
func NewClient(cfg types.ChainConfig, bonderKeyHex string, logger log.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	parsedBridgeABI, err := abi.JSON(strings.NewReader(bridgeABI))
	if err != nil {
		return nil, err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(bonderKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("bonder key load failed: %s", err.Error())
	}
	client := &Client{
		ChainId:  cfg.ChainId,
		Logger:   logger,
		eth:      eth,
		bridge:   bind.NewBoundContract(common.HexToAddress(cfg.BridgeAddress), parsedBridgeABI, eth, eth, eth),
		signerFn: keyedTransactor(key),
	}
	if cfg.VaultAddress != "" {
		parsedVaultABI, err := abi.JSON(strings.NewReader(vaultABI))
		if err != nil {
			return nil, err
		}
		client.vault = bind.NewBoundContract(common.HexToAddress(cfg.VaultAddress), parsedVaultABI, eth, eth, eth)
	}
	return client, nil
}

func keyedTransactor(key *ecdsa.PrivateKey) func() *bind.TransactOpts {
	return func() *bind.TransactOpts {
		return bind.NewKeyedTransactor(key)
	}
}

// GetMinBondDelaySeconds reads the hub bridge's mandatory bonding delay
func (c *Client) GetMinBondDelaySeconds(route types.Route) (int64, error) {
	var delay *big.Int
	err := c.bridge.Call(&bind.CallOpts{}, &delay, "minTransferRootBondDelay")
	if err != nil {
		return 0, err
	}
	return delay.Int64(), nil
}

// IsTransferRootBonded checks whether a bond already exists for the root id
func (c *Client) IsTransferRootBonded(rootId string) (bool, error) {
	var bonded bool
	err := c.bridge.Call(&bind.CallOpts{}, &bonded, "isTransferRootIdBonded", common.HexToHash(rootId))
	if err != nil {
		return false, err
	}
	return bonded, nil
}

// GetBondForTransferAmount asks the bridge for the exact required bond
func (c *Client) GetBondForTransferAmount(totalAmount *big.Int) (*big.Int, error) {
	var bondAmount *big.Int
	err := c.bridge.Call(&bind.CallOpts{}, &bondAmount, "getBondForTransferAmount", totalAmount)
	if err != nil {
		return nil, err
	}
	if bondAmount == nil {
		return nil, errors.New("bridge returned nil bond amount")
	}
	return bondAmount, nil
}

// BondTransferRoot posts the collateral-backed attestation on the hub chain
func (c *Client) BondTransferRoot(rootHash string, destinationChainId uint64, totalAmount *big.Int) (*types.BondTx, error) {
	tx, err := c.bridge.Transact(c.signerFn(), "bondTransferRoot",
		common.HexToHash(rootHash), new(big.Int).SetUint64(destinationChainId), totalAmount)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("sent bondTransferRoot tx", "tx_hash", tx.Hash().Hex(), "root_hash", rootHash)
	return &types.BondTx{Hash: tx.Hash().Hex()}, nil
}

// GetAvailableCredit reads the bonder's base credit, vault included, for a
// destination chain from the hub bridge's accounting
func (c *Client) GetAvailableCredit(chainId uint64) (*big.Int, error) {
	var available *big.Int
	err := c.bridge.Call(&bind.CallOpts{}, &available, "getAvailableCredit", new(big.Int).SetUint64(chainId))
	if err != nil {
		return nil, err
	}
	return available, nil
}

// GetVaultBalance reads the bonder's reserve balance for a destination chain
func (c *Client) GetVaultBalance(chainId uint64) (*big.Int, error) {
	var balance *big.Int
	err := c.bridge.Call(&bind.CallOpts{}, &balance, "getVaultBalance", new(big.Int).SetUint64(chainId))
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// WithdrawFromVaultAndRestake moves reserve funds back into bonding
// liquidity on this client's chain
func (c *Client) WithdrawFromVaultAndRestake(amount *big.Int) error {
	if c.vault == nil {
		return fmt.Errorf("no vault contract configured for chain %d", c.ChainId)
	}
	tx, err := c.vault.Transact(c.signerFn(), "withdrawAndRestake", amount)
	if err != nil {
		return err
	}
	c.Logger.Info("sent vault withdrawAndRestake tx", "tx_hash", tx.Hash().Hex(), "amount", amount.String())
	return nil
}
