package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/work-buddy/internal/auth"
	"github.com/psds-microservice/work-buddy/internal/config"
	"github.com/psds-microservice/work-buddy/internal/database"
	"github.com/psds-microservice/work-buddy/internal/handler"
	"github.com/psds-microservice/work-buddy/internal/idgen"
	"github.com/psds-microservice/work-buddy/internal/kafka"
	"github.com/psds-microservice/work-buddy/internal/router"
	"github.com/psds-microservice/work-buddy/internal/searchindex"
	"github.com/psds-microservice/work-buddy/internal/service"
	"github.com/psds-microservice/work-buddy/internal/session"
	"github.com/psds-microservice/work-buddy/internal/store"
	"github.com/rs/zerolog"
)

// API is the HTTP application: login page, dashboards and JSON API.
type API struct {
	cfg      *config.Config
	log      zerolog.Logger
	httpSrv  *http.Server
	producer *kafka.Producer
	sessions *session.Manager
}

// OpenStore builds the request store selected by STORE_DRIVER and resets it
// to the demo data. Only the API server calls it.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	seed := store.DemoSeed(time.Now())
	opts, err := storeOptions(cfg, seed)
	if err != nil {
		return nil, err
	}
	if !cfg.UsesPostgres() {
		return store.NewMemory(seed, opts), nil
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return store.OpenPostgres(ctx, db, seed, opts)
}

// ErrStoreNotShared is returned when a second process asks for the memory
// store, which lives only inside the API server.
var ErrStoreNotShared = errors.New("STORE_DRIVER=memory keeps requests inside the API process; use STORE_DRIVER=postgres")

// AttachStore opens the postgres store for a process running next to the
// API server. It neither migrates nor reseeds.
func AttachStore(cfg *config.Config) (store.Store, error) {
	if !cfg.UsesPostgres() {
		return nil, ErrStoreNotShared
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return store.NewPostgres(db, store.Options{}), nil
}

func storeOptions(cfg *config.Config, seed store.Seed) (store.Options, error) {
	messages := 0
	for _, r := range seed.Requests {
		messages += len(r.Messages)
	}
	reqIDs, err := idgen.New(cfg.IDStrategy, uint64(len(seed.Requests)))
	if err != nil {
		return store.Options{}, err
	}
	msgIDs, err := idgen.New(cfg.IDStrategy, uint64(messages))
	if err != nil {
		return store.Options{}, err
	}
	userIDs, err := idgen.New(cfg.IDStrategy, uint64(len(seed.Users)))
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{RequestIDs: reqIDs, MessageIDs: msgIDs, UserIDs: userIDs, Now: time.Now}, nil
}

// NewAPI wires the application for the api command.
func NewAPI(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket, log)
	desk := service.NewDeskService(service.Deps{
		Store:    st,
		Producer: producer,
		Search:   searchindex.NewClient(cfg.SearchServiceURL, log),
		Logger:   log,
	})
	sessions := session.NewManager(session.WithIdleTTL(cfg.SessionIdleTTL))
	authenticator := auth.NewAuthenticator(cfg.AdminUsername, cfg.AdminPassword, cfg.GoogleEmail)

	h := router.New(router.Deps{
		Auth:          handler.NewAuthHandler(authenticator, desk, sessions, handler.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.SecureCookie}, log),
		Desk:          handler.NewDeskHandler(desk, log),
		Web:           handler.NewWebHandler(desk, log),
		Sessions:      sessions,
		SessionCookie: cfg.SessionCookie,
		CORSAllowed:   cfg.CORSAllowed,
		Logger:        log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &API{cfg: cfg, log: log, httpSrv: httpSrv, producer: producer, sessions: sessions}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.httpSrv.Handler
}

// Run serves HTTP and blocks until ctx is cancelled.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info().
		Str("addr", a.httpSrv.Addr).
		Str("store", a.cfg.StoreDriver).
		Str("login", base+"/").
		Str("swagger", base+"/swagger").
		Str("api", base+"/api/v1/").
		Bool("kafka", a.producer.Enabled()).
		Msg("HTTP server listening")

	go a.sessions.RunSweeper(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Warn().Err(err).Msg("kafka close")
	}
	a.log.Info().Msg("server stopped")
	return nil
}
