package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/api"
	"github.com/yusufhabibalfatha/nulis/internal/autosave"
	"github.com/yusufhabibalfatha/nulis/internal/config"
	"github.com/yusufhabibalfatha/nulis/internal/db"
	"github.com/yusufhabibalfatha/nulis/internal/logger"
	"github.com/yusufhabibalfatha/nulis/internal/render"
	"github.com/yusufhabibalfatha/nulis/internal/repository"
	"github.com/yusufhabibalfatha/nulis/internal/store"
)

var appLogger zerolog.Logger

var writingRepo repository.WritingRepository

func main() {
	if err := godotenv.Load(); err != nil {
		// Not an error; the environment may be set some other way.
		appLogger.Debug().Msg("No .env file loaded")
	}

	configPath := os.Getenv("NULIS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		appLogger = logger.New("info")
		appLogger.Fatal().Err(err).Msg("Error loading config")
	}

	appLogger = logger.New(config.AppConfig.Logging.Level)
	setLoggers(appLogger)

	var err error
	writingRepo, err = newRepository(config.AppConfig.Storage)
	if err != nil {
		appLogger.Fatal().Err(err).Msgf(config.ErrInitializeStorageFmt, err)
	}
	if err := writingRepo.Init(); err != nil {
		appLogger.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.PostsPath, handlePosts)
	mux.HandleFunc(config.PostsIDPrefix+"{id}", handlePostByID)
	mux.HandleFunc(config.AutosaveIDPrefix+"{id}", handleAutosave)

	addr := config.AppConfig.Server.Host + ":" + config.AppConfig.Server.Port
	appLogger.Info().Str("addr", addr).Str("backend", config.AppConfig.Storage.Backend).Msg("Writing service listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		appLogger.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l)
	db.SetLogger(l)
	repository.SetLogger(l)
	api.SetLogger(l)
	store.SetLogger(l)
	autosave.SetLogger(l)
	render.SetLogger(l)
}

func newRepository(cfg config.StorageConfig) (repository.WritingRepository, error) {
	switch cfg.Backend {
	case "s3":
		accessKey := cfg.S3.AccessKey
		if accessKey == "" {
			accessKey = os.Getenv("S3_ACCESS_KEY")
		}
		secretKey := cfg.S3.SecretKey
		if secretKey == "" {
			secretKey = os.Getenv("S3_SECRET_KEY")
		}
		return repository.NewS3WritingRepository(accessKey, secretKey, cfg.S3.Endpoint, cfg.S3.Bucket)
	default:
		return repository.NewDBWritingRepository(db.NewSQLite(cfg.SQLite.Path)), nil
	}
}
