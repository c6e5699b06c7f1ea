package app

import (
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	RunMigrations       *usecase.RunMigrations
	ShowMigrationStatus *usecase.ShowMigrationStatus
	ShowContractFactory *usecase.ShowContractFactory
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	runMigrations *usecase.RunMigrations,
	showMigrationStatus *usecase.ShowMigrationStatus,
	showContractFactory *usecase.ShowContractFactory,
) (*App, error) {
	return &App{
		Config:              cfg,
		RunMigrations:       runMigrations,
		ShowMigrationStatus: showMigrationStatus,
		ShowContractFactory: showContractFactory,
	}, nil
}
