package bonder

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jacohend/flag"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/IrmajOConnors58/hop/types"
	"github.com/IrmajOConnors58/hop/util"
)

// InitConfig : receives flags/ENV variables and initializes the bonder
// config struct. Scalar settings come from the config-file-aware flag
// package; the structured route and chain lists come from routes.yaml.
func InitConfig(home string) types.BonderConfig {
	var network, hubRPCURL, bonderKeyHex, bonderKeyPath, redisURI, apiPort string
	var webhookURL, webhookToken, logLevel string
	var hubChainId uint64
	var dryRun, doBond bool
	var pollInterval, bondConcurrency, bondRetryAfterHours int

	flag.String(flag.DefaultConfigFlagname, "", "path to config file")
	flag.StringVar(&network, "network", "mainnet", "bridge network")
	flag.Uint64Var(&hubChainId, "hub_chain_id", 1, "chain id of the hub chain")
	flag.StringVar(&hubRPCURL, "hub_rpc_url", "http://127.0.0.1:8545", "hub chain rpc url")
	flag.StringVar(&bonderKeyHex, "bonder_private_key", "", "hex-encoded bonder signing key")
	flag.StringVar(&bonderKeyPath, "bonder_key_path", "", "path to a file holding the bonder signing key")
	flag.StringVar(&redisURI, "redis_uri", "", "optional redis cache address")
	flag.StringVar(&webhookURL, "webhook_url", "", "alert webhook url")
	flag.StringVar(&webhookToken, "webhook_token", "", "alert webhook bearer token")
	flag.BoolVar(&dryRun, "dry_run", false, "evaluate roots without sending transactions")
	flag.BoolVar(&doBond, "bond", true, "whether to participate in transfer root bonding")
	flag.IntVar(&pollInterval, "poll_interval", 30, "seconds between bond poll cycles")
	flag.IntVar(&bondConcurrency, "bond_concurrency", 8, "max concurrent root evaluations per cycle")
	flag.IntVar(&bondRetryAfterHours, "bond_retry_after", 24, "hours before a sent-but-unconfirmed bond attempt is retried")
	flag.StringVar(&apiPort, "api_port", "8000", "bonder api port")
	flag.StringVar(&logLevel, "log_level", "info", "log level")
	flag.Parse()

	allowLevel, _ := log.AllowLevel(strings.ToLower(logLevel))
	logger := log.NewFilter(log.NewTMLogger(log.NewSyncWriter(os.Stdout)), allowLevel)

	if bonderKeyHex == "" && bonderKeyPath != "" {
		lines, err := util.ReadLines(bonderKeyPath)
		if util.LoggerError(logger, err) == nil && len(lines) > 0 {
			bonderKeyHex = strings.TrimSpace(lines[0])
		}
	}

	routes, chains, err := loadRouteConfig(home)
	if util.LoggerError(logger, err) != nil {
		routes = []types.Route{}
		chains = []types.ChainConfig{}
	}

	return types.BonderConfig{
		HomePath:        home,
		APIPort:         apiPort,
		DBType:          "goleveldb",
		Network:         network,
		HubChainId:      hubChainId,
		HubRPCURL:       hubRPCURL,
		BonderKeyHex:    bonderKeyHex,
		RedisURI:        redisURI,
		WebhookURL:      webhookURL,
		WebhookToken:    webhookToken,
		DryRun:          dryRun,
		DoBond:          doBond,
		PollInterval:    pollInterval,
		BondConcurrency: bondConcurrency,
		BondRetryAfter:  time.Duration(bondRetryAfterHours) * time.Hour,
		Routes:          routes,
		Chains:          chains,
		Logger:          &logger,
	}
}

// loadRouteConfig : imports routes.yaml and unmarshals the route and chain
// lists. Routes carry the per-route vault auto-withdraw flag.
func loadRouteConfig(home string) ([]types.Route, []types.ChainConfig, error) {
	v := viper.New()
	v.SetConfigName("routes")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	v.SetEnvPrefix("BONDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return []types.Route{}, []types.ChainConfig{}, nil
		}
		return nil, nil, fmt.Errorf("routes config read failed: %s", err.Error())
	}
	var routes []types.Route
	if err := v.UnmarshalKey("routes", &routes); err != nil {
		return nil, nil, err
	}
	var chains []types.ChainConfig
	if err := v.UnmarshalKey("chains", &chains); err != nil {
		return nil, nil, err
	}
	return routes, chains, nil
}
