package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gorilla/mux"
	"github.com/manifoldco/promptui"
	"github.com/sethvargo/go-password/password"
	dbm "github.com/tendermint/tm-db"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"

	"github.com/IrmajOConnors58/hop/alert"
	"github.com/IrmajOConnors58/hop/bonder"
	"github.com/IrmajOConnors58/hop/chain/ethereum"
	"github.com/IrmajOConnors58/hop/level"
	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
	"github.com/IrmajOConnors58/hop/vault"
)

var home string

// setup runs the first-start wizard and writes bonder.conf
func setup(config types.BonderConfig) {
	if _, err := os.Stat(home); os.IsNotExist(err) {
		os.MkdirAll(home, os.ModePerm)
	}
	if _, err := os.Stat(home + "/bonder.conf"); os.IsNotExist(err) {
		configs := []string{}

		promptRPC := promptui.Prompt{
			Label: "What is the hub chain RPC URL?",
		}
		rpcResult, err := promptRPC.Run()
		if err != nil {
			panic(err)
		}
		configs = append(configs, "hub_rpc_url="+rpcResult)

		promptNetwork := promptui.Select{
			Label: "Select Network Type",
			Items: []string{"mainnet", "testnet"},
		}
		_, networkResult, err := promptNetwork.Run()
		if err != nil {
			panic(err)
		}
		configs = append(configs, "network="+networkResult)

		promptDryRun := promptui.Select{
			Label: "Send real bonding transactions or run in simulate-only mode?",
			Items: []string{"Send transactions", "Simulate only"},
		}
		_, dryRunResult, err := promptDryRun.Run()
		if err != nil {
			panic(err)
		}
		if dryRunResult == "Simulate only" {
			configs = append(configs, "dry_run=true")
		}

		token, err := password.Generate(20, 10, 0, false, false)
		if err != nil {
			panic(err)
		}
		configs = append(configs, "webhook_token="+token)

		file, err := os.OpenFile(home+"/bonder.conf", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err)
		}
		datawriter := bufio.NewWriter(file)
		for _, data := range configs {
			_, _ = datawriter.WriteString(data + "\n")
		}
		datawriter.Flush()
		file.Close()

		fmt.Printf("Bonder setup complete. Run with ./hop-bonder -config %s\n", home+"/bonder.conf")
		os.Exit(0)
	}
}

func main() {
	figure.NewColorFigure("Hop Bonder", "colossal", "red", false).Print()
	homedirname, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	home = util.GetEnv("BONDER_HOME", fmt.Sprintf("%s/.hop/bonder", homedirname))

	config := bonder.InitConfig(home)
	logger := *config.Logger

	setup(config)

	db := dbm.NewDB("bonder", dbm.GoLevelDBBackend, config.HomePath+"/data")
	store := level.NewStore(&db, config.RedisURI, logger)

	notifier := alert.NewWebhookNotifier(config.WebhookURL, config.WebhookToken, logger)

	// hub client doubles as the liquidity oracle; its credit accounting
	// lives in the hub bridge contract
	hubCfg := types.ChainConfig{ChainId: config.HubChainId, RPCURL: config.HubRPCURL}
	for _, chainCfg := range config.Chains {
		if chainCfg.ChainId == config.HubChainId {
			hubCfg = chainCfg
		}
	}
	hubClient, err := ethereum.NewClient(hubCfg, config.BonderKeyHex, logger)
	if err != nil {
		panic(err)
	}

	// destination-side clients execute vault withdrawals
	withdrawers := map[uint64]vault.Withdrawer{}
	for _, chainCfg := range config.Chains {
		if chainCfg.ChainId == config.HubChainId || chainCfg.VaultAddress == "" {
			continue
		}
		chainClient, err := ethereum.NewClient(chainCfg, config.BonderKeyHex, logger)
		if util.LoggerError(logger, err) != nil {
			continue
		}
		withdrawers[chainCfg.ChainId] = chainClient
	}

	// one watcher per route, siblings resolved once here
	watchers := make([]*bonder.Watcher, 0, len(config.Routes))
	for _, route := range config.Routes {
		watcher := bonder.NewWatcher(route, store, hubClient, hubClient, notifier, config)
		if withdrawer, exists := withdrawers[route.DestinationChainId]; exists {
			watcher.RegisterSibling(route.DestinationChainId, withdrawer)
		}
		watchers = append(watchers, watcher)
		logger.Info("bond watcher started",
			"source_chain_id", route.SourceChainId,
			"destination_chain_id", route.DestinationChainId,
			"token", route.Token)
	}

	if config.DoBond {
		for _, watcher := range watchers {
			go func(watcher *bonder.Watcher) {
				for {
					util.LoggerError(logger, watcher.Poll())
					time.Sleep(time.Duration(config.PollInterval) * time.Second)
				}
			}(watcher)
		}
		go func() {
			for {
				store.PruneOldRoots(types.TransferRootTrailingWindow)
				time.Sleep(1 * time.Hour)
			}
		}()
	}

	apiStore, err := memstore.New(65536)
	if err != nil {
		panic(err)
	}
	apiQuota := throttled.RateQuota{MaxRate: throttled.PerSec(15), MaxBurst: 50}
	apiLimiter, err := throttled.NewGCRARateLimiter(apiStore, apiQuota)
	if err != nil {
		panic(err)
	}
	apiRateLimiter := throttled.HTTPRateLimiter{
		RateLimiter: apiLimiter,
		VaryBy:      &throttled.VaryBy{RemoteAddr: true},
	}

	api := &bonder.API{
		Store:    store,
		Watchers: watchers,
		Config:   config,
		Logger:   logger,
	}
	r := mux.NewRouter()
	r.Handle("/", apiRateLimiter.RateLimit(http.HandlerFunc(api.HomeHandler)))
	r.Handle("/status", apiRateLimiter.RateLimit(http.HandlerFunc(api.StatusHandler)))
	r.Handle("/roots/pending", apiRateLimiter.RateLimit(http.HandlerFunc(api.PendingRootsHandler)))
	r.Handle("/roots/{id}", apiRateLimiter.RateLimit(http.HandlerFunc(api.RootHandler)))

	server := &http.Server{
		Handler:      r,
		Addr:         ":" + config.APIPort,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	util.LogError(server.ListenAndServe())
}
