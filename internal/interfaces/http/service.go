package httpinterface

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mpurse-network/mpurse-daemon/internal/core/application"
	"github.com/mpurse-network/mpurse-daemon/internal/infrastructure/notifier"
	interfaces "github.com/mpurse-network/mpurse-daemon/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Port    int
	Datadir string
	// NoAuth disables the bearer token check on the control routes.
	NoAuth bool
	// CORSOrigins are the web origins allowed to call the control routes.
	// Cross origin requests are not enabled if empty.
	CORSOrigins    []string
	EnableProfiler bool

	WalletSvc application.WalletService
	Notifier  notifier.Service
}

func (o ServiceOpts) validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("invalid listening port %d", o.Port)
	}
	if !o.NoAuth && !pathExists(o.Datadir) {
		return fmt.Errorf("%s: datadir must be an existing directory", o.Datadir)
	}
	if o.WalletSvc == nil {
		return fmt.Errorf("wallet app service must not be null")
	}
	if o.Notifier == nil {
		return fmt.Errorf("notifier must not be null")
	}
	return nil
}

func (o ServiceOpts) address() string {
	return fmt.Sprintf(":%d", o.Port)
}

type service struct {
	opts    ServiceOpts
	handler http.Handler
	server  *http.Server
}

// NewService returns the JSON over HTTP interface used by the UI and the
// CLI to control the wallet. Unless auth is disabled, the signing secret
// and the CLI token are created in the datadir if missing.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	return newService(opts)
}

func newService(opts ServiceOpts) (*service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	var secret []byte
	if !opts.NoAuth {
		var err error
		if secret, err = loadOrCreateAuthSecret(opts.Datadir); err != nil {
			return nil, err
		}
		if err := writeAuthToken(opts.Datadir, secret); err != nil {
			return nil, err
		}
	}

	return &service{
		opts:    opts,
		handler: newRouter(opts, secret),
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.address())
	if err != nil {
		return err
	}

	s.server = &http.Server{Handler: s.handler}
	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("control interface stopped unexpectedly")
		}
	}()

	log.Infof("control interface listening on %s", lis.Addr())
	return nil
}

func (s *service) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop control interface")
	}
	log.Debug("disabled control interface")
}

func newRouter(opts ServiceOpts, secret []byte) http.Handler {
	h := &handler{opts.WalletSvc}
	events := &eventsHandler{
		notifier: opts.Notifier,
		upgrader: websocket.Upgrader{
			CheckOrigin: allowedOrigin(opts.CORSOrigins),
		},
	}

	router := mux.NewRouter()
	router.Use(requestLogger)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if opts.EnableProfiler {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	v1 := router.PathPrefix("/v1").Subrouter()
	if secret != nil {
		v1.Use(authMiddleware(secret))
	}

	v1.Handle("/events", events).Methods(http.MethodGet)

	v1.HandleFunc("/unlock", h.unlock).Methods(http.MethodPost)
	v1.HandleFunc("/lock", h.lock).Methods(http.MethodPost)
	v1.HandleFunc("/status", h.status).Methods(http.MethodGet)
	v1.HandleFunc("/address", h.getAddress).Methods(http.MethodGet)
	v1.HandleFunc("/address", h.setAddress).Methods(http.MethodPut)
	v1.HandleFunc("/identities", h.identities).Methods(http.MethodGet)
	v1.HandleFunc("/identities/{address}/name", h.setAccountName).Methods(http.MethodPut)

	v1.HandleFunc("/passphrase", h.saveNewPassphrase).Methods(http.MethodPost)
	v1.HandleFunc("/passphrase/reveal", h.revealPassphrase).Methods(http.MethodPost)
	v1.HandleFunc("/hdkey/reveal", h.revealHdkey).Methods(http.MethodPost)

	v1.HandleFunc("/accounts", h.createAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/import", h.importAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/name", h.accountName).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{address}", h.removeAccount).Methods(http.MethodDelete)
	v1.HandleFunc("/accounts/{address}/privatekey", h.revealPrivateKey).Methods(http.MethodPost)

	v1.HandleFunc("/requests/pending", h.pendingRequest).Methods(http.MethodGet)
	v1.HandleFunc("/requests/shift", h.shiftRequest).Methods(http.MethodPost)
	v1.HandleFunc("/origins/approve", h.approveOrigin).Methods(http.MethodPost)

	v1.HandleFunc("/tx/sign", h.signTx).Methods(http.MethodPost)
	v1.HandleFunc("/tx/send-raw", h.sendRawTx).Methods(http.MethodPost)
	v1.HandleFunc("/tx/send", h.sendTx).Methods(http.MethodPost)
	v1.HandleFunc("/message/sign", h.signMessage).Methods(http.MethodPost)
	v1.HandleFunc("/message/verify", h.verifyMessage).Methods(http.MethodPost)

	v1.HandleFunc("/preferences/advanced", h.getAdvancedMode).Methods(http.MethodGet)
	v1.HandleFunc("/preferences/advanced", h.setAdvancedMode).Methods(http.MethodPut)
	v1.HandleFunc("/preferences/lang", h.getLang).Methods(http.MethodGet)
	v1.HandleFunc("/preferences/lang", h.setLang).Methods(http.MethodPut)

	v1.HandleFunc("/purge", h.purge).Methods(http.MethodPost)
	v1.HandleFunc("/vault/exists", h.existsVault).Methods(http.MethodGet)
	v1.HandleFunc("/base58/decode", h.decodeBase58).Methods(http.MethodPost)
	v1.HandleFunc("/mnemonic", h.mnemonic).Methods(http.MethodGet)

	v1.HandleFunc("/explorer/address/{address}", h.addressInfo).Methods(http.MethodGet)
	v1.HandleFunc("/explorer/asset/{asset}", h.asset).Methods(http.MethodGet)
	v1.HandleFunc("/explorer/summary/{address}", h.accountSummary).Methods(http.MethodGet)
	v1.HandleFunc("/explorer/balances/{address}", h.balances).Methods(http.MethodGet)
	v1.HandleFunc("/explorer/mempool/{address}", h.mempool).Methods(http.MethodGet)
	v1.HandleFunc("/explorer/create-send", h.createSend).Methods(http.MethodPost)

	if len(opts.CORSOrigins) <= 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)
}

// allowedOrigin accepts websocket clients that are not browsers, or that
// are loaded from one of the given origins.
func allowedOrigin(origins []string) func(*http.Request) bool {
	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
