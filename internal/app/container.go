package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/winterveil/parkslot-backend/internal/api"
	"github.com/winterveil/parkslot-backend/internal/auth"
	"github.com/winterveil/parkslot-backend/internal/cache"
	"github.com/winterveil/parkslot-backend/internal/event"
	"github.com/winterveil/parkslot-backend/internal/parking"
	"github.com/winterveil/parkslot-backend/internal/payment"
	"github.com/winterveil/parkslot-backend/internal/pricing"
	"github.com/winterveil/parkslot-backend/internal/report"
)

// Default operator credentials seeded on first start.
const (
	DefaultOperatorUsername = "admin"
	DefaultOperatorPassword = "admin123"
	DefaultOperatorRole     = "superadmin"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	// DBPool may be nil; the container then runs on the in-memory store.
	DBPool *pgxpool.Pool

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	HourlyRate   float64
	InitialSlots int

	RedisAddr    string
	CacheTTL     time.Duration
	KafkaBrokers string
	KafkaTopic   string

	Logger *zap.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router   *gin.Engine
	Engine   parking.Service
	Producer *event.Producer
	Cache    *cache.Availability
}

// NewContainer initializes all modules and returns the container. It
// migrates and seeds the store before the router is handed out.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Store: Postgres when a pool is supplied, in-memory otherwise.
	var store parking.Store
	if cfg.DBPool != nil {
		pgStore := parking.NewPgxStore(cfg.DBPool)
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store = pgStore
	} else {
		cfg.Logger.Info("no database configured, using in-memory store")
		store = parking.NewMemStore()
	}

	hash, err := passwordHasher.Hash(DefaultOperatorPassword)
	if err != nil {
		return nil, fmt.Errorf("hash default operator password: %w", err)
	}
	seedCred := parking.Credential{
		Username:     DefaultOperatorUsername,
		PasswordHash: hash,
		Role:         DefaultOperatorRole,
	}
	if err := store.Seed(ctx, cfg.InitialSlots, seedCred); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	// Optional collaborators.
	var opts []parking.Option
	c := &Container{}

	if cfg.RedisAddr != "" {
		c.Cache = cache.NewAvailability(cfg.RedisAddr, cfg.CacheTTL)
		opts = append(opts, parking.WithCache(c.Cache))
	}
	if cfg.KafkaBrokers != "" {
		c.Producer = event.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, cfg.Logger)
		opts = append(opts, parking.WithEvents(c.Producer))
	}

	// Booking Engine
	pricer := pricing.NewCalculator(cfg.HourlyRate)
	payments := payment.NewStub(cfg.Logger)
	engine := parking.NewService(store, pricer, payments, cfg.Logger, opts...)

	// Reporting Facade
	reports := report.NewService(store)

	// Auth Service
	authService := auth.NewService(store, passwordHasher)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		Engine:       engine,
		Reports:      reports,
		AuthService:  authService,
		JWTManager:   jwtManager,
	})

	c.Router = router
	c.Engine = engine
	return c, nil
}

// Close releases the optional cache and producer connections.
func (c *Container) Close() error {
	var firstErr error
	if c.Producer != nil {
		if err := c.Producer.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
