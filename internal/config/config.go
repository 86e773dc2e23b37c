package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory storing the internal state of
	// the wallet daemon.
	DatadirKey = "DATADIR"
	// LogLevelKey selects the logging level. For reference on the values
	// https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DbDirKey overrides the directory holding the badger stores. It
	// defaults to a db/ subdirectory of the datadir.
	DbDirKey = "DB_DIR"
	// WalletSeedFileKey is the full path to the file holding the main
	// wallet seed. The daemon refuses to start without it.
	WalletSeedFileKey = "WALLET_SEED_FILE"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("coinset-wallet", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("COINSETW")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)

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

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	if vip.IsSet(DbDirKey) {
		return GetString(DbDirKey)
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	level := GetInt(LogLevelKey)
	if level < 0 || level > 6 {
		return fmt.Errorf("%s must be in range [0, 6]", LogLevelKey)
	}

	if !vip.IsSet(WalletSeedFileKey) {
		return fmt.Errorf("missing wallet seed file")
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
