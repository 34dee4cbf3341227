package database

import (
	"time"

	"github.com/IrmajOConnors58/hop/types"
)

// TransferRootStore is the persistence collaborator for the bonding core.
// Records are created upstream when commit events are observed; this core
// only reads them and writes the SentBondTxAt / IsNotFound markers.
type TransferRootStore interface {
	// GetUnbondedTransferRoots returns roots on the given route that are
	// still eligible for bonding: no confirmed bond, not marked IsNotFound,
	// and either never attempted or attempted longer than retryAfter ago.
	GetUnbondedTransferRoots(route types.Route, retryAfter time.Duration) ([]types.TransferRoot, error)

	GetByTransferRootId(rootId string) (*types.TransferRoot, error)

	// GetTransferRootsFromTrailingWindow returns all roots sourced from the
	// given chain whose commit time falls inside the trailing window.
	GetTransferRootsFromTrailingWindow(sourceChainId uint64, window time.Duration) ([]types.TransferRoot, error)

	UpsertTransferRoot(root types.TransferRoot) error

	UpdateTransferRoot(rootId string, update types.TransferRootUpdate) error
}
