package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/coinset-network/coinset-wallet/internal/config"
	"github.com/coinset-network/coinset-wallet/internal/core/application/trade"
	chainsource "github.com/coinset-network/coinset-wallet/internal/infrastructure/chain-source"
	dbbadger "github.com/coinset-network/coinset-wallet/internal/infrastructure/storage/db/badger"
)

// The main wallet always takes id 1; asset wallets register above it.
const mainWalletID = 1

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "coinsetw"
	app.Usage = "coin-set wallet daemon"
	app.Commands = append(
		app.Commands,
		&cli.Command{
			Name:   "start",
			Usage:  "start the wallet daemon",
			Action: start,
		},
	)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start(_ *cli.Context) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	seed, err := os.ReadFile(config.GetString(config.WalletSeedFileKey))
	if err != nil {
		return fmt.Errorf("reading wallet seed: %w", err)
	}

	repoManager, err := dbbadger.NewRepoManager(config.GetDbDir(), nil)
	if err != nil {
		return fmt.Errorf("opening stores: %w", err)
	}
	defer repoManager.Close()

	mainWallet := trade.NewStandardWallet(
		mainWalletID, seed, repoManager.CoinRepository(),
	)
	if _, err := trade.NewService(
		repoManager, chainsource.NewOffline(), mainWallet,
	); err != nil {
		return fmt.Errorf("starting trade service: %w", err)
	}

	log.Infof("datadir: %s", config.GetDatadir())
	log.Info("wallet daemon is ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Debug("exiting")

	return nil
}
