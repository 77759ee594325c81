package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer/mpchain"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the network the wallet keys and addresses belong to,
	// either mainnet or testnet.
	NetworkKey = "NETWORK"
	// PageListeningPortKey is the port where the websocket interface for the
	// web pages will listen on
	PageListeningPortKey = "PAGE_LISTENING_PORT"
	// ControlListeningPortKey is the port where the HTTP interface used by the
	// UI and the CLI will listen on
	ControlListeningPortKey = "CONTROL_LISTENING_PORT"
	// PageAllowedOriginsKey restricts the web pages allowed to connect to the
	// page interface. Any page can connect if not set.
	PageAllowedOriginsKey = "PAGE_ALLOWED_ORIGINS"
	// ExplorerURLKey is the base url of the mpchain API
	ExplorerURLKey = "EXPLORER_URL"
	// ExplorerRateLimitKey is the max number of requests per second made to
	// the mpchain API
	ExplorerRateLimitKey = "EXPLORER_RATE_LIMIT"
	// ExplorerRequestTimeoutKey is the timeout in milliseconds of every
	// request made to the mpchain API
	ExplorerRequestTimeoutKey = "EXPLORER_REQUEST_TIMEOUT"
	// ScriptCacheSizeKey is the number of output scripts cached when signing
	// multisig inputs
	ScriptCacheSizeKey = "SCRIPT_CACHE_SIZE"
	// CORSOriginsKey are the web origins allowed to call the control interface
	CORSOriginsKey = "CORS_ORIGINS"
	// NoAuthKey is used to start the daemon without requiring the auth token
	// on the control interface
	NoAuthKey = "NO_AUTH"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// EventsBufferSizeKey is the number of UI events kept for each slow
	// subscriber before dropping them
	EventsBufferSizeKey = "EVENTS_BUFFER_SIZE"

	DbLocation = "db"

	MainNet = "mainnet"
	TestNet = "testnet"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("mpursed", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("MPURSE")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, MainNet)
	vip.SetDefault(PageListeningPortKey, 9945)
	vip.SetDefault(ControlListeningPortKey, 9946)
	vip.SetDefault(ExplorerURLKey, mpchain.DefaultAPIURL)
	vip.SetDefault(ExplorerRateLimitKey, 10)
	vip.SetDefault(ExplorerRequestTimeoutKey, 15000)
	vip.SetDefault(ScriptCacheSizeKey, 256)
	vip.SetDefault(NoAuthKey, false)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(EventsBufferSizeKey, 32)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetExplorerRequestTimeout returns the configured timeout, expressed in
// milliseconds, as a duration.
func GetExplorerRequestTimeout() time.Duration {
	return time.Duration(GetInt(ExplorerRequestTimeoutKey)) * time.Millisecond
}

// GetNetwork returns the chain params of the configured network.
func GetNetwork() *chaincfg.Params {
	net, _ := wallet.NetworkFromString(GetString(NetworkKey))
	return net
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := wallet.NetworkFromString(GetString(NetworkKey)); err != nil {
		return fmt.Errorf(
			"%s must be either %s or %s", NetworkKey, MainNet, TestNet,
		)
	}

	pagePort := GetInt(PageListeningPortKey)
	controlPort := GetInt(ControlListeningPortKey)
	if pagePort == controlPort {
		return fmt.Errorf(
			"%s and %s must be different", PageListeningPortKey, ControlListeningPortKey,
		)
	}

	if GetInt(ExplorerRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", ExplorerRateLimitKey)
	}
	if GetInt(ExplorerRequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", ExplorerRequestTimeoutKey)
	}
	if GetInt(ScriptCacheSizeKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", ScriptCacheSizeKey)
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
