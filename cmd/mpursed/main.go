package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mpurse-network/mpurse-daemon/internal/config"
	"github.com/mpurse-network/mpurse-daemon/internal/core/application"
	"github.com/mpurse-network/mpurse-daemon/internal/infrastructure/notifier"
	dbbadger "github.com/mpurse-network/mpurse-daemon/internal/infrastructure/storage/db/badger"
	interfaces "github.com/mpurse-network/mpurse-daemon/internal/interfaces"
	httpinterface "github.com/mpurse-network/mpurse-daemon/internal/interfaces/http"
	wsinterface "github.com/mpurse-network/mpurse-daemon/internal/interfaces/ws"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer/mpchain"
	"github.com/mpurse-network/mpurse-daemon/pkg/stats"
)

const (
	statsInterval = time.Minute
	statsFile     = "stats"
)

func main() {
	// Wipe the enclaves holding the wallet password at exit.
	defer memguard.Purge()

	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	network := config.GetNetwork()
	log.Infof("network: %s", network.Name)

	repoManager, err := dbbadger.NewRepoManager(
		config.GetDbDir(), log.StandardLogger(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	explorerSvc, err := mpchain.NewService(mpchain.ServiceOpts{
		APIURL:          config.GetString(config.ExplorerURLKey),
		RequestTimeout:  config.GetExplorerRequestTimeout(),
		RateLimit:       config.GetInt(config.ExplorerRateLimitKey),
		ScriptCacheSize: config.GetInt(config.ScriptCacheSizeKey),
	})
	if err != nil {
		repoManager.Close()
		log.WithError(err).Fatal("failed to init explorer service")
	}

	notifierSvc := notifier.NewService(config.GetInt(config.EventsBufferSizeKey))

	session, err := application.NewSession(application.SessionOpts{
		Network:    network,
		Repository: repoManager.VaultRepository(),
		Notifier:   notifierSvc,
	})
	if err != nil {
		repoManager.Close()
		log.WithError(err).Fatal("failed to init wallet session")
	}

	broker, err := application.NewBroker(session, explorerSvc)
	if err != nil {
		repoManager.Close()
		log.WithError(err).Fatal("failed to init request broker")
	}

	walletSvc, err := application.NewWalletService(session, explorerSvc)
	if err != nil {
		repoManager.Close()
		log.WithError(err).Fatal("failed to init wallet service")
	}

	pageSvc, err := wsinterface.NewService(wsinterface.ServiceOpts{
		Port:           config.GetInt(config.PageListeningPortKey),
		AllowedOrigins: config.GetStringSlice(config.PageAllowedOriginsKey),
		Handler:        broker,
	})
	if err != nil {
		repoManager.Close()
		log.WithError(err).Fatal("failed to init page interface")
	}

	controlSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:           config.GetInt(config.ControlListeningPortKey),
		Datadir:        config.GetDatadir(),
		NoAuth:         config.GetBool(config.NoAuthKey),
		CORSOrigins:    config.GetStringSlice(config.CORSOriginsKey),
		EnableProfiler: config.GetBool(config.EnableProfilerKey),
		WalletSvc:      walletSvc,
		Notifier:       notifierSvc,
	})
	if err != nil {
		repoManager.Close()
		log.WithError(err).Fatal("failed to init control interface")
	}

	services := []interfaces.Service{pageSvc, controlSvc}

	log.Info("starting daemon")

	eg := &errgroup.Group{}
	for i := range services {
		svc := services[i]
		eg.Go(svc.Start)
	}
	if err := eg.Wait(); err != nil {
		stop(services, broker, session, notifierSvc)
		repoManager.Close()
		log.WithError(err).Fatal("failed to start daemon")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if config.GetBool(config.EnableProfilerKey) {
		stats.EnableMemoryStatistics(
			ctx, statsInterval, filepath.Join(config.GetDatadir(), statsFile),
		)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down daemon")
	cancel()
	stop(services, broker, session, notifierSvc)
	repoManager.Close()
	log.Info("daemon stopped")
}

// stop shuts down the interfaces first so that no message or control
// request reaches the wallet while it's being locked.
func stop(
	services []interfaces.Service, broker *application.Broker,
	session *application.Session, notifierSvc notifier.Service,
) {
	for _, svc := range services {
		svc.Stop()
	}
	broker.Close()
	session.Lock()
	notifierSvc.Close()
}
