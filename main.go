package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pc-inventory/auth"
	"pc-inventory/config"
	"pc-inventory/database"
	"pc-inventory/directory"
	"pc-inventory/endpoints"
	"pc-inventory/logger"
	"pc-inventory/webserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg := logger.New("info")
		lg.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Str("backend", cfg.StoreBackend).Str("addr", cfg.ListenAddr).Msg("pc-inventory starting")

	var (
		records     endpoints.RecordStore
		identities  auth.IdentityStore
		credentials auth.CredentialVerifier
		dirStore    directory.IdentityStore
		ping        func(ctx context.Context) error
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		dbConn, err := database.NewConnection(log, cfg.DBName, cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer dbConn.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(migrateCtx, dbConn); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		cancel()

		loginRepo := database.NewLoginRepo(dbConn)
		if err := loginRepo.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin login")
		}

		identityRepo := database.NewIdentityRepo(dbConn)
		records = database.NewRecordRepo(dbConn)
		identities = identityRepo
		dirStore = identityRepo
		credentials = loginRepo
		ping = dbConn.PingContext

	case config.BackendMemory:
		store := database.NewMemoryStore()
		if err := store.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin login")
		}
		records = store
		identities = store
		dirStore = store
		credentials = store
	}

	var dir auth.DirectoryAuthenticator
	if cfg.Directory.Enabled() {
		log.Info().Str("uri", cfg.Directory.ServerURI).Str("base_dn", cfg.Directory.UserBaseDN).
			Msg("directory authentication enabled")
		dir = directory.NewBridge(cfg.Directory, dirStore, log)
	} else {
		log.Warn().Msg("no directory configured, local credentials only")
	}

	sessions := auth.NewManager(dir, credentials, identities, cfg.SessionTTL, log)

	api := &endpoints.API{
		Records:  records,
		Sessions: sessions,
		Log:      log,
		Ping:     ping,
	}

	srv := webserver.New(webserver.Options{
		Addr:           cfg.ListenAddr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		API:            api,
		Sessions:       sessions,
		Log:            log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("serving")
	if err := webserver.Run(ctx, srv, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("pc-inventory stopped")
}
