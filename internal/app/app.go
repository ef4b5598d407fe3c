// Package app wires configuration, logging, the quote cache, the data
// source clients and the aggregation service into one application value.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/arjunmehra/folio/internal/cache"
	"github.com/arjunmehra/folio/internal/clients/googlefin"
	"github.com/arjunmehra/folio/internal/clients/yahoo"
	"github.com/arjunmehra/folio/internal/common"
	"github.com/arjunmehra/folio/internal/interfaces"
	"github.com/arjunmehra/folio/internal/models"
	"github.com/arjunmehra/folio/internal/services/portfolio"
)

// App holds all initialized services and clients. Constructed once at
// process start; everything in it is shared by reference.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Cache              *cache.Cache
	Holdings           []models.Holding
	PriceSource        interfaces.PriceSource
	FundamentalsSource interfaces.FundamentalsSource
	PortfolioService   interfaces.PortfolioService
	StartupTime        time.Time
}

// NewApp initializes the application. configPath may be empty, in which
// case FOLIO_CONFIG and then config/folio.toml are tried.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = "config/folio.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	holdings, err := common.ResolveHoldings(config.Holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve holdings: %w", err)
	}

	quotes := cache.New(config.Cache.GetSweepInterval(),
		cache.WithDefaultTTL(config.Cache.GetDefaultTTL()),
	)

	prices := yahoo.NewClient(quotes, config.Cache.GetSymbolTTL(),
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithRetries(config.Clients.Yahoo.Retries),
		yahoo.WithBatchSize(config.Clients.Yahoo.BatchSize),
		yahoo.WithLogger(logger),
	)

	fundamentals := googlefin.NewClient(quotes,
		googlefin.WithBaseURL(config.Clients.Google.BaseURL),
		googlefin.WithTimeout(config.Clients.Google.GetTimeout()),
		googlefin.WithRateLimit(config.Clients.Google.RateLimit),
		googlefin.WithLogger(logger),
	)

	service := portfolio.NewService(holdings, prices, fundamentals, quotes,
		portfolio.WithSnapshotTTL(config.Cache.GetSnapshotTTL()),
		portfolio.WithLogger(logger),
	)

	logger.Info().
		Int("holdings", len(holdings)).
		Str("environment", config.Environment).
		Msg("Application initialized")

	return &App{
		Config:             config,
		Logger:             logger,
		Cache:              quotes,
		Holdings:           holdings,
		PriceSource:        prices,
		FundamentalsSource: fundamentals,
		PortfolioService:   service,
		StartupTime:        time.Now(),
	}, nil
}

// Close releases application resources.
func (a *App) Close() {
	a.Cache.Close()
}
