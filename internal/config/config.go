package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/Studia/internal/services"
	"github.com/soaringjerry/Studia/internal/utils"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Addr           string
	Store          string
	DBURL          string
	MigrationsDir  string
	SnapshotPath   string
	JWTSecret      string
	AllowedOrigins []string
	SweepInterval  time.Duration
	EnableSeed     bool
	SRS            services.SRSConfig
	Commit         string
}

// LoadEnv reads .env (or the files listed) into the process environment. A
// missing file is not an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("config: no .env file, using process environment")
			return
		}
		log.Printf("config: load .env: %v", err)
	}
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	srs := services.DefaultSRSConfig()
	cfg := &Config{
		Addr:           utils.SafeEnv("STUDIA_ADDR", ":8080"),
		Store:          strings.ToLower(utils.SafeEnv("STUDIA_STORE", StoreSQLite)),
		DBURL:          os.Getenv("STUDIA_DB_URL"),
		MigrationsDir:  os.Getenv("STUDIA_MIGRATIONS_DIR"),
		SnapshotPath:   os.Getenv("STUDIA_SNAPSHOT"),
		JWTSecret:      os.Getenv("STUDIA_JWT_SECRET"),
		AllowedOrigins: utils.SafeEnvList("STUDIA_ALLOWED_ORIGINS", []string{"*"}),
		SweepInterval:  utils.SafeEnvDuration("STUDIA_SWEEP_INTERVAL", time.Minute),
		EnableSeed:     utils.SafeEnvBool("STUDIA_ENABLE_SEED", false),
		SRS: services.SRSConfig{
			Moyen:   utils.SafeEnvDuration("STUDIA_SRS_INTERVAL_MOYEN", srs.Moyen),
			Facile:  utils.SafeEnvDuration("STUDIA_SRS_INTERVAL_FACILE", srs.Facile),
			Acquise: utils.SafeEnvDuration("STUDIA_SRS_INTERVAL_ACQUISE", srs.Acquise),
		},
		Commit: os.Getenv("STUDIA_COMMIT"),
	}
	switch cfg.Store {
	case StoreMemory:
	case StoreSQLite:
		if cfg.DBURL == "" {
			cfg.DBURL = "file:studia.db?_busy_timeout=5000"
		}
	case StorePostgres:
		if cfg.DBURL == "" {
			return nil, errors.New("STUDIA_DB_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("STUDIA_STORE=%q: want memory, sqlite or postgres", cfg.Store)
	}
	if cfg.SweepInterval < 0 {
		return nil, fmt.Errorf("STUDIA_SWEEP_INTERVAL must not be negative, got %s", cfg.SweepInterval)
	}
	if _, err := services.NewSRSScheduler(cfg.SRS); err != nil {
		return nil, fmt.Errorf("srs intervals: %w", err)
	}
	return cfg, nil
}
