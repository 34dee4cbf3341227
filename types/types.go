package types

import (
	"math/big"
	"time"

	"github.com/tendermint/tendermint/libs/log"
)

// TransferRootTrailingWindow is the window, relative to now, in which each
// transfer id observed on a given source chain must belong to exactly one
// transfer root. A duplicate inside this window means a reorg produced
// conflicting commitments and the root must not be bonded.
const TransferRootTrailingWindow = 14 * 24 * time.Hour

// Route identifies a source chain -> destination chain bonding lane
type Route struct {
	SourceChainId      uint64 `json:"source_chain_id" mapstructure:"source_chain_id"`
	DestinationChainId uint64 `json:"destination_chain_id" mapstructure:"destination_chain_id"`
	Token              string `json:"token" mapstructure:"token"`
	AutoVaultWithdraw  bool   `json:"auto_vault_withdraw" mapstructure:"auto_vault_withdraw"`
}

// TransferRoot is a batch commitment observed on a source chain.
// RootId is content-addressed from (RootHash, TotalAmount); two records with
// the same inputs always carry the same id.
type TransferRoot struct {
	RootId             string   `json:"root_id"`
	RootHash           string   `json:"root_hash"`
	TotalAmount        *big.Int `json:"total_amount"`
	SourceChainId      uint64   `json:"source_chain_id"`
	DestinationChainId uint64   `json:"destination_chain_id"`
	CommittedAt        int64    `json:"committed_at"`
	TransferIds        []string `json:"transfer_ids"`
	SentBondTxAt       int64    `json:"sent_bond_tx_at,omitempty"`
	IsNotFound         bool     `json:"is_not_found,omitempty"`
	// BondedAt is written by the downstream confirmation watcher once the
	// bond is confirmed on the hub chain. This core only reads it.
	BondedAt int64 `json:"bonded_at,omitempty"`
}

// TransferRootUpdate holds the partial fields this core is allowed to write.
// SentBondTxAt is only ever set, never cleared.
type TransferRootUpdate struct {
	SentBondTxAt *int64 `json:"sent_bond_tx_at,omitempty"`
	IsNotFound   *bool  `json:"is_not_found,omitempty"`
}

// BondTx is the handle returned after dispatching a bonding transaction
type BondTx struct {
	Hash string `json:"hash"`
}

// ChainConfig holds per-chain RPC and contract settings
type ChainConfig struct {
	ChainId       uint64 `json:"chain_id" mapstructure:"chain_id"`
	RPCURL        string `json:"rpc_url" mapstructure:"rpc_url"`
	BridgeAddress string `json:"bridge_address" mapstructure:"bridge_address"`
	VaultAddress  string `json:"vault_address" mapstructure:"vault_address"`
}

// BonderConfig represents values to configure the bonder watcher app
type BonderConfig struct {
	HomePath        string
	APIPort         string
	DBType          string
	Network         string
	HubChainId      uint64
	HubRPCURL       string
	BonderKeyHex    string
	RedisURI        string
	WebhookURL      string
	WebhookToken    string
	DryRun          bool
	DoBond          bool
	PollInterval    int
	BondConcurrency int
	BondRetryAfter  time.Duration
	Routes          []Route
	Chains          []ChainConfig
	Logger          *log.Logger
}
