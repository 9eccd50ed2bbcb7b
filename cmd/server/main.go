package main

import (
	"net/http"
	"os"
	"time"

	"github.com/moments-app/moments/internal/catalog"
	"github.com/moments-app/moments/internal/config"
	"github.com/moments-app/moments/internal/gallery"
	"github.com/moments-app/moments/internal/router"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stdout
		w.TimeFormat = time.RFC3339
	})).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var store gallery.Store
	switch cfg.StoreDriver {
	case "bolt":
		store, err = gallery.OpenBolt(cfg.StorePath)
	default:
		store, err = gallery.NewSQLite(cfg.StorePath)
	}
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer store.Close()

	uploader := gallery.NewUploader(store)

	ctrl, err := gallery.NewController(store, uploader, cfg.FlareDuration, cfg.PreviewSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load gallery")
	}

	cat := catalog.New(catalog.Config{
		BaseURL:    cfg.CatalogBaseURL,
		CloudName:  cfg.CatalogCloudName,
		APIKey:     cfg.CatalogAPIKey,
		APISecret:  cfg.CatalogAPISecret,
		Folder:     cfg.CatalogFolder,
		MaxResults: cfg.CatalogMaxResults,
	})

	srv := router.New(ctrl, cat, cfg)

	log.Info().Str("addr", cfg.ListenAddr).Str("driver", cfg.StoreDriver).Msg("starting server")
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
