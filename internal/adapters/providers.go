package adapters

import (
	"context"

	"github.com/google/wire"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/migrations"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/registrar"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// ProvideChainClient connects to the selected network. The cleanup closes
// the RPC connection.
func ProvideChainClient(ctx context.Context, cfg *config.RuntimeConfig) (*blockchain.Client, func(), error) {
	client, err := blockchain.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// ProvideReceiptWaiter provides a receipt waiter using the configured poll interval and timeout
func ProvideReceiptWaiter(cfg *config.RuntimeConfig, chain usecase.ChainClient) *usecase.ReceiptWaiter {
	return usecase.NewReceiptWaiter(chain, cfg.PollInterval, cfg.ReceiptTimeout)
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),

	migrations.NewRepository,
	wire.Bind(new(usecase.MigrationRepository), new(*migrations.Repository)),
)

// BlockchainSet provides chain access and the on-chain registrar
var BlockchainSet = wire.NewSet(
	ProvideChainClient,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.Client)),

	ProvideReceiptWaiter,
	wire.Bind(new(usecase.TransactionWaiter), new(*usecase.ReceiptWaiter)),

	registrar.NewRegistrar,
	wire.Bind(new(usecase.Registrar), new(*registrar.Registrar)),

	registrar.NewMigrationRecord,
	wire.Bind(new(usecase.MigrationRecord), new(*registrar.MigrationRecord)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	BlockchainSet,
	InteractiveSet,
)
