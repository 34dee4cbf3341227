package bonder

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/database"
	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
)

// API exposes read-only bonder state over HTTP
type API struct {
	Store    database.TransferRootStore
	Watchers []*Watcher
	Config   types.BonderConfig
	Logger   log.Logger
}

// respondJSON makes the response with payload as json format
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if util.LogError(err) != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func (api *API) HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
	fmt.Fprintf(w, "This is the bonder API. See /status for watcher state.")
}

func (api *API) StatusHandler(w http.ResponseWriter, r *http.Request) {
	ip := util.GetClientIP(r)
	api.Logger.Info(fmt.Sprintf("Status Client IP: %s", ip))
	routes := make([]types.Route, 0, len(api.Watchers))
	for _, watcher := range api.Watchers {
		routes = append(routes, watcher.Route)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"network":  api.Config.Network,
		"dry_run":  api.Config.DryRun,
		"bonding":  api.Config.DoBond,
		"routes":   routes,
		"watchers": len(api.Watchers),
	})
}

// PendingRootsHandler lists the roots each watcher would consider next cycle
func (api *API) PendingRootsHandler(w http.ResponseWriter, r *http.Request) {
	pending := map[string][]types.TransferRoot{}
	for _, watcher := range api.Watchers {
		roots, err := api.Store.GetUnbondedTransferRoots(watcher.Route, api.Config.BondRetryAfter)
		if util.LogError(err) != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "could not query pending roots"})
			return
		}
		key := fmt.Sprintf("%d->%d", watcher.Route.SourceChainId, watcher.Route.DestinationChainId)
		pending[key] = roots
	}
	respondJSON(w, http.StatusOK, pending)
}

// RootHandler returns a single transfer root by id
func (api *API) RootHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rootId, exists := vars["id"]
	if !exists {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "missing root id"})
		return
	}
	root, err := api.Store.GetByTransferRootId(rootId)
	if util.LogError(err) != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "could not query transfer root"})
		return
	}
	if root == nil {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{"error": "transfer root not found"})
		return
	}
	respondJSON(w, http.StatusOK, root)
}
