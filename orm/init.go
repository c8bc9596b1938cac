package orm

import (
	"fmt"
	"strings"

	"article-board/config"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"

	"gorm.io/gorm/logger"

	"gorm.io/gorm"
)

// DB wraps the gorm handle together with the ranking policy used for
// article listings.
type DB struct {
	dbGorm *gorm.DB
	rank   Ranking
}

// Connect opens the database connection and runs migrations.
func Connect(cfg *config.AppConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host='%s' port='%d' user='%s' password='%s' dbname='%s' sslmode='%s'",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	dsnRedacted := dsn
	if cfg.Database.Password != "" {
		dsnRedacted = strings.ReplaceAll(dsn, cfg.Database.Password, "*****")
	}
	log.Debug().
		Msgf("Connecting to postgres using the following information: %s", dsnRedacted)

	dbGorm, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return DB{}, fmt.Errorf("failed to connect to the database: %w", err)
	}

	log.Debug().Msg("Successfully connected to the database")

	// Run database migrations
	err = dbGorm.AutoMigrate(&Article{}, &Media{}, &Comment{})
	if err != nil {
		return DB{}, fmt.Errorf("failed to migrate database: %w", err)
	}

	return DB{dbGorm: dbGorm, rank: BumpRecency}, nil
}

// InitDB connects like Connect but aborts the process on failure.
func InitDB(cfg *config.AppConfig) DB {
	db, err := Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize the database")
	}

	return db
}

// UseTransaction returns a DB bound to the given transaction handle.
func (db DB) UseTransaction(tx *gorm.DB) DB {
	return DB{dbGorm: tx, rank: db.rank}
}

// WithRanking returns a DB that lists articles with the given policy.
func (db DB) WithRanking(rank Ranking) DB {
	return DB{dbGorm: db.dbGorm, rank: rank}
}
