package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig holds the full runtime configuration of the board. Values come
// from defaults, an optional `article-board.yaml` in the working directory,
// and ARTICLE_BOARD_* environment variables, in increasing priority.
type AppConfig struct {
	Addr         string `mapstructure:"addr"`
	UploadDir    string `mapstructure:"upload_dir"`
	PublicPrefix string `mapstructure:"public_prefix"`

	Database    DatabaseConfig    `mapstructure:"database"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Limits      LimitsConfig      `mapstructure:"limits"`
	Log         LogConfig         `mapstructure:"log"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type PersistenceConfig struct {
	Type string   `mapstructure:"type"`
	S3   S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	KeyID     string `mapstructure:"key_id"`
	AccessKey string `mapstructure:"access_key"`
	Timeout   string `mapstructure:"timeout"`
}

type LimitsConfig struct {
	// MaxTextBytes caps each accumulated text field of a submission.
	MaxTextBytes int64 `mapstructure:"max_text_bytes"`
	// MaxMediaBytes caps each uploaded media file.
	MaxMediaBytes int64 `mapstructure:"max_media_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Human bool   `mapstructure:"human"`
	// ErrorFile receives a copy of every error-level event, append-only.
	ErrorFile string `mapstructure:"error_file"`
}

var Cfg = &AppConfig{}

type DefaultValue struct {
	Key   string
	Value any
}

var Defaults = []DefaultValue{
	{Key: "addr", Value: ":8080"},
	{Key: "upload_dir", Value: "uploads"},
	{Key: "public_prefix", Value: "/uploads"},

	{Key: "database.host", Value: "localhost"},
	{Key: "database.port", Value: 5432},
	{Key: "database.username", Value: "postgres"},
	{Key: "database.password", Value: ""},
	{Key: "database.database", Value: "articles"},
	{Key: "database.sslmode", Value: "disable"},

	{Key: "persistence.type", Value: "filesystem"},
	{Key: "persistence.s3.timeout", Value: "30s"},

	{Key: "limits.max_text_bytes", Value: int64(64 << 10)},
	{Key: "limits.max_media_bytes", Value: int64(64 << 20)},

	{Key: "log.level", Value: "info"},
	{Key: "log.human", Value: true},
	{Key: "log.error_file", Value: "error.txt"},
}

// Load populates Cfg. Overrides take priority over the shipped defaults but
// stay below the config file and the environment.
func Load(overrides ...DefaultValue) error {
	v := viper.New()
	for _, d := range Defaults {
		v.SetDefault(d.Key, d.Value)
	}
	for _, d := range overrides {
		v.SetDefault(d.Key, d.Value)
	}

	v.SetConfigName("article-board")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ARTICLE_BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(Cfg); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return Cfg.Validate()
}

var (
	ErrMissingAddr      = errors.New("addr must not be empty")
	ErrMissingUploadDir = errors.New("upload_dir must not be empty")
	ErrBadLimit         = errors.New("limits must be positive")
)

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return ErrMissingAddr
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return ErrMissingUploadDir
	}
	if c.Limits.MaxTextBytes <= 0 || c.Limits.MaxMediaBytes <= 0 {
		return fmt.Errorf(
			"%w: max_text_bytes=%d, max_media_bytes=%d",
			ErrBadLimit,
			c.Limits.MaxTextBytes,
			c.Limits.MaxMediaBytes,
		)
	}

	return nil
}
