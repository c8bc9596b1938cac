package main

import (
	"io"
	"os"

	"article-board/board"
	"article-board/config"
	"article-board/orm"
	"article-board/storage"
	"article-board/storage/filesystemStore"
	"article-board/storage/memoryStore"
	"article-board/storage/s3"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	initLogging()

	db := orm.InitDB(config.Cfg)
	media := initMediaStore()

	gin.SetMode(gin.ReleaseMode)
	server := board.NewServer(db, media, config.Cfg)

	log.Info().Str("addr", config.Cfg.Addr).Msg("article board listening")
	if err := server.Router().Run(config.Cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server terminated")
	}
}

func initLogging() {
	level, err := zerolog.ParseLevel(config.Cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var sinks []io.Writer
	if config.Cfg.Log.Human {
		sinks = append(sinks, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		sinks = append(sinks, os.Stderr)
	}

	if path := config.Cfg.Log.ErrorFile; path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to open error log file")
		}
		sinks = append(sinks, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: f},
			Level:  zerolog.ErrorLevel,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		With().Timestamp().Logger()
}

func initMediaStore() storage.Store {
	var media storage.Store
	switch config.Cfg.Persistence.Type {
	case "filesystem":
		media = initFilesystemStore()
	case "s3":
		media = initS3Store()
	case "memory":
		media = memoryStore.New(config.Cfg.PublicPrefix, config.Cfg.Limits.MaxMediaBytes)
		log.Info().Msg("in-memory media store initialized")
	default:
		log.Warn().Msgf("unknown persistence type '%s', defaulting to filesystem", config.Cfg.Persistence.Type)
		media = initFilesystemStore()
	}

	return media
}

func initFilesystemStore() storage.Store {
	fsStore, err := filesystemStore.New(
		config.Cfg.UploadDir, config.Cfg.PublicPrefix, config.Cfg.Limits.MaxMediaBytes,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize filesystem media store")
	}
	log.Info().
		Str("upload_dir", config.Cfg.UploadDir).
		Msg("filesystem media store initialized")

	return fsStore
}

func initS3Store() storage.Store {
	s3Store, err := s3.New(config.Cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize s3 media store")
	}
	log.Info().Msg("s3 media store initialized")

	return s3Store
}
