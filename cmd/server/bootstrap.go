package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/api"
	"github.com/onswift/backend/internal/app"
	iauth "github.com/onswift/backend/internal/auth"
	"github.com/onswift/backend/internal/calendar"
	"github.com/onswift/backend/internal/database"
	"github.com/onswift/backend/internal/middleware"
	"github.com/onswift/backend/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Services  *api.Services
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime opens the database, wires the domain services and builds the HTTP router.
// generatedKey reports whether the secrets key was generated at start-up rather than configured.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, generatedKey bool, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	resolved, err := database.ResolveEncryptionKey(ctx, stack.DB, cfg.Secrets.EncryptionKey, generatedKey)
	if err != nil {
		return nil, fmt.Errorf("resolve secrets key: %w", err)
	}
	cfg.Secrets.EncryptionKey = resolved

	secretsKey, err := app.EncryptionKey(resolved)
	if err != nil {
		return nil, fmt.Errorf("decode secrets key: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	opts := api.ServiceOptions{SecretsKey: secretsKey}
	if cfg.Calendar.Configured() {
		provider, err := calendar.NewGoogleProvider(cfg.Calendar.GoogleConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise calendar provider: %w", err)
		}
		opts.CalendarProvider = provider
		log.Info("calendar integration enabled")
	} else if cfg.Calendar.Enabled {
		log.Warn("calendar enabled without client credentials; integration disabled")
	}

	stack.Services, err = api.NewServices(stack.DB, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	stack.RateStore = middleware.NewMemoryRateStore()

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Services, stack.RateStore)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown releases resources held by the stack.
func (s *runtimeStack) Shutdown(_ context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		applyHostConfig(&dbCfg, cfg.Database.Postgres)
	case "mysql":
		applyHostConfig(&dbCfg, cfg.Database.MySQL)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func applyHostConfig(dbCfg *database.Config, host app.DBAuthConfig) {
	dbCfg.Host = strings.TrimSpace(host.Host)
	dbCfg.Port = host.Port
	dbCfg.Name = strings.TrimSpace(host.Database)
	dbCfg.User = strings.TrimSpace(host.Username)
	dbCfg.Password = strings.TrimSpace(host.Password)
	dbCfg.Options = host.Options
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
