package level

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
)

// key prefixes. Values are JSON; the bychain index value is the commit time
// so window scans can filter without loading every record.
const (
	rootKeyPrefix    = "transferroot:"
	byChainKeyPrefix = "rootsbychain:"
)

// Store persists transfer roots in LevelDB with an optional Redis
// read-through layer in front of point lookups.
type Store struct {
	LevelDb     dbm.DB
	RedisClient *redis.Client
	Logger      log.Logger
}

func NewStore(db *dbm.DB, redisURI string, logger log.Logger) *Store {
	store := &Store{
		LevelDb: *db,
		Logger:  logger,
	}
	if redisURI != "" {
		store.RedisClient = redis.NewClient(&redis.Options{Addr: redisURI})
	}
	return store
}

func rootKey(rootId string) string {
	return rootKeyPrefix + util.NormalizeHex(rootId)
}

func byChainKey(sourceChainId uint64, rootId string) string {
	return fmt.Sprintf("%s%d:%s", byChainKeyPrefix, sourceChainId, util.NormalizeHex(rootId))
}

// UpsertTransferRoot writes the record and its source-chain index entry
func (store *Store) UpsertTransferRoot(root types.TransferRoot) error {
	rootBytes, err := json.Marshal(root)
	if err != nil {
		return err
	}
	if err := store.LevelDb.Set([]byte(rootKey(root.RootId)), rootBytes); err != nil {
		return err
	}
	committedAt := strconv.FormatInt(root.CommittedAt, 10)
	if err := store.LevelDb.Set([]byte(byChainKey(root.SourceChainId, root.RootId)), []byte(committedAt)); err != nil {
		return err
	}
	store.cacheSet(root.RootId, rootBytes)
	return nil
}

// GetByTransferRootId fetches a single record, consulting Redis first
func (store *Store) GetByTransferRootId(rootId string) (*types.TransferRoot, error) {
	if cached := store.cacheGet(rootId); cached != nil {
		var root types.TransferRoot
		if err := json.Unmarshal(cached, &root); err == nil {
			return &root, nil
		}
	}
	rootBytes, err := store.LevelDb.Get([]byte(rootKey(rootId)))
	if err != nil {
		return nil, err
	}
	if len(rootBytes) == 0 {
		return nil, nil
	}
	var root types.TransferRoot
	if err := json.Unmarshal(rootBytes, &root); err != nil {
		return nil, err
	}
	store.cacheSet(rootId, rootBytes)
	return &root, nil
}

// GetUnbondedTransferRoots returns roots on the route still eligible for
// bonding. A root with a stale SentBondTxAt marker (older than retryAfter)
// is re-selected so a failed transmission is eventually retried; the marker
// itself is never cleared.
func (store *Store) GetUnbondedTransferRoots(route types.Route, retryAfter time.Duration) ([]types.TransferRoot, error) {
	roots, err := store.getRootsBySourceChain(route.SourceChainId)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	unbonded := []types.TransferRoot{}
	for _, root := range roots {
		if root.DestinationChainId != route.DestinationChainId {
			continue
		}
		if root.IsNotFound || root.BondedAt != 0 {
			continue
		}
		if root.SentBondTxAt != 0 && now-root.SentBondTxAt < int64(retryAfter.Seconds()) {
			continue
		}
		unbonded = append(unbonded, root)
	}
	return unbonded, nil
}

// GetTransferRootsFromTrailingWindow returns all roots sourced from the
// given chain committed within the trailing window, regardless of state
func (store *Store) GetTransferRootsFromTrailingWindow(sourceChainId uint64, window time.Duration) ([]types.TransferRoot, error) {
	cutoff := time.Now().Add(-window).Unix()
	prefix := fmt.Sprintf("%s%d:", byChainKeyPrefix, sourceChainId)
	it, err := dbm.IteratePrefix(store.LevelDb, []byte(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	results := []types.TransferRoot{}
	for ; it.Valid(); it.Next() {
		committedAt, err := strconv.ParseInt(string(it.Value()), 10, 64)
		if err != nil || committedAt < cutoff {
			continue
		}
		rootId := string(it.Key())[len(prefix):]
		root, err := store.GetByTransferRootId(rootId)
		if err != nil || root == nil {
			continue
		}
		results = append(results, *root)
	}
	return results, nil
}

// UpdateTransferRoot applies a partial update. SentBondTxAt is write-once
// from this core's perspective: an incoming zero never clears a set marker.
func (store *Store) UpdateTransferRoot(rootId string, update types.TransferRootUpdate) error {
	root, err := store.GetByTransferRootId(rootId)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("transfer root %s not found", rootId)
	}
	if update.SentBondTxAt != nil && *update.SentBondTxAt != 0 {
		root.SentBondTxAt = *update.SentBondTxAt
	}
	if update.IsNotFound != nil {
		root.IsNotFound = *update.IsNotFound
	}
	return store.UpsertTransferRoot(*root)
}

// PruneOldRoots deletes terminal records older than twice the uniqueness
// window. Records still inside the window are kept so reorg-safety
// validation can see them.
func (store *Store) PruneOldRoots(window time.Duration) {
	it, err := dbm.IteratePrefix(store.LevelDb, []byte(byChainKeyPrefix))
	if err != nil {
		return
	}
	defer it.Close()
	cutoff := time.Now().Add(-2 * window).Unix()
	for ; it.Valid(); it.Next() {
		committedAt, err := strconv.ParseInt(string(it.Value()), 10, 64)
		if err != nil || committedAt >= cutoff {
			continue
		}
		key := string(it.Key())
		parts := strings.Split(key, ":")
		rootId := parts[len(parts)-1]
		root, err := store.GetByTransferRootId(rootId)
		if err != nil || root == nil {
			continue
		}
		if !root.IsNotFound && root.BondedAt == 0 {
			continue
		}
		store.LevelDb.Delete(it.Key())
		store.LevelDb.Delete([]byte(rootKey(rootId)))
		store.cacheDel(rootId)
		store.Logger.Info("db pruned", "transfer_root", rootId)
	}
}

func (store *Store) getRootsBySourceChain(sourceChainId uint64) ([]types.TransferRoot, error) {
	prefix := fmt.Sprintf("%s%d:", byChainKeyPrefix, sourceChainId)
	it, err := dbm.IteratePrefix(store.LevelDb, []byte(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	results := []types.TransferRoot{}
	for ; it.Valid(); it.Next() {
		rootId := string(it.Key())[len(prefix):]
		root, err := store.GetByTransferRootId(rootId)
		if err != nil || root == nil {
			continue
		}
		results = append(results, *root)
	}
	return results, nil
}

func (store *Store) cacheGet(rootId string) []byte {
	if store.RedisClient == nil {
		return nil
	}
	cached, err := store.RedisClient.Get(rootKey(rootId)).Bytes()
	if err != nil {
		return nil
	}
	return cached
}

func (store *Store) cacheSet(rootId string, rootBytes []byte) {
	if store.RedisClient == nil {
		return
	}
	if err := store.RedisClient.Set(rootKey(rootId), rootBytes, types.TransferRootTrailingWindow).Err(); err != nil {
		store.Logger.Debug(fmt.Sprintf("redis set failed for %s: %s", rootId, err.Error()))
	}
}

func (store *Store) cacheDel(rootId string) {
	if store.RedisClient == nil {
		return
	}
	store.RedisClient.Del(rootKey(rootId))
}
