package main

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/alexedwards/scs"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/client"
	"github.com/sidereusnuntius/blogclient/internal/config"
	"github.com/sidereusnuntius/blogclient/internal/controller"
	"github.com/sidereusnuntius/blogclient/internal/initialization"
	"github.com/sidereusnuntius/blogclient/internal/session/sqlstore"
	"github.com/sidereusnuntius/blogclient/internal/web"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("failed to read .env")
	}

	config, err := config.ReadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read configuration")
	}
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	d, err := initialization.OpenDB(config.DbUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer d.Close()
	log.Info().Msg("database connection established")

	if err = initialization.SetupDB(d, config.MigrationsFolder, config.DbUrl); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	stores, err := sqlstore.New(d, config.Secret)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	// The cookie manager wants a key of exactly 32 bytes.
	manager := scs.NewCookieManager(fmt.Sprintf("%x", sha256.Sum256([]byte(config.Secret)))[:32])
	manager.Lifetime(config.SessionLifetime)
	manager.Persist(true)

	api := client.New(&http.Client{Timeout: config.RequestTimeout})
	handler := web.New(&config, controller.New(api, controller.SystemClock{}, config.AllowedHosts...), stores, manager)
	router := chi.NewRouter()
	handler.Mount(router)

	s := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: router,
	}

	log.Info().Uint16("port", config.Port).Str("endpoint", config.Endpoint).Msg("started server")
	if err = s.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Send()
	}
}
