package bonder

import (
	"fmt"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/alert"
	"github.com/IrmajOConnors58/hop/chain"
	"github.com/IrmajOConnors58/hop/credit"
	"github.com/IrmajOConnors58/hop/database"
	"github.com/IrmajOConnors58/hop/idgen"
	"github.com/IrmajOConnors58/hop/reorg"
	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
	"github.com/IrmajOConnors58/hop/vault"
)

// Watcher is the bonding decision engine for one route. All collaborators
// are injected at construction; there is no dynamic lookup beyond the
// sibling registry, which is resolved once at startup.
type Watcher struct {
	Route    types.Route
	Store    database.TransferRootStore
	Hub      chain.HubChainClient
	Gate     *credit.Gate
	Vault    *vault.Coordinator
	Reorg    *reorg.Validator
	Notifier alert.Notifier
	Siblings map[uint64]vault.Withdrawer
	IdGen    *idgen.Generator

	config types.BonderConfig
	logger log.Logger
}

// NewWatcher wires a bond watcher for a single route
func NewWatcher(
	route types.Route,
	store database.TransferRootStore,
	hub chain.HubChainClient,
	oracle credit.LiquidityOracle,
	notifier alert.Notifier,
	config types.BonderConfig,
) *Watcher {
	logger := (*config.Logger).With(
		"module", "bonder",
		"source_chain_id", route.SourceChainId,
		"destination_chain_id", route.DestinationChainId,
	)
	return &Watcher{
		Route:    route,
		Store:    store,
		Hub:      hub,
		Gate:     credit.NewGate(oracle),
		Vault:    vault.NewCoordinator(oracle, notifier, logger),
		Reorg:    reorg.NewValidator(store, logger),
		Notifier: notifier,
		Siblings: map[uint64]vault.Withdrawer{},
		IdGen:    idgen.NewGenerator(),
		config:   config,
		logger:   logger,
	}
}

// RegisterSibling records the destination-side collaborator able to execute
// vault withdrawals for a chain. Called once during startup wiring.
func (w *Watcher) RegisterSibling(chainId uint64, withdrawer vault.Withdrawer) {
	w.Siblings[chainId] = withdrawer
}

// LogError : Log error if it exists, with the calling function's name
func (w *Watcher) LogError(err error) error {
	if err != nil {
		w.logger.Error(fmt.Sprintf("Error in %s: %s", util.GetCurrentFuncName(2), err.Error()))
	}
	return err
}
