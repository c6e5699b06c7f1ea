package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// TxRequest describes a transaction to sign and submit. A nil To creates a contract.
type TxRequest struct {
	To    *common.Address
	Data  []byte
	Value *big.Int
	// Gas is estimated by the client when zero
	Gas uint64
}

// ChainClient is the narrow RPC surface the engine needs from a chain
type ChainClient interface {
	ChainID(ctx context.Context) (uint64, error)
	// SendTransaction signs and submits a transaction, returning its hash
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	// TransactionReceipt returns ethereum.NotFound while the transaction is pending
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	// CodeAt returns the code currently deployed at address
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	// CallContract performs a read-only call against the latest state
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// TransactionWaiter blocks until a submitted transaction is confirmed
type TransactionWaiter interface {
	Wait(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Registrar is the on-chain string-key directory. Writes return only after
// the transaction is confirmed; reads are never cached.
type Registrar interface {
	GetAddress(ctx context.Context, key string) (common.Address, error)
	SetAddress(ctx context.Context, key string, value common.Address) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// MigrationRecord stores per-chain migration completion markers
type MigrationRecord interface {
	IsComplete(ctx context.Context, migration string) (bool, error)
	MarkComplete(ctx context.Context, migration string) error
}

// ArtifactRepository provides the compiled artifact table
type ArtifactRepository interface {
	Load(ctx context.Context) (*models.ArtifactTable, error)
}

// MigrationRepository provides the discovered migrations in discovery order
type MigrationRepository interface {
	Load(ctx context.Context) ([]models.Migration, error)
}

// Confirmer asks the operator before broadcasting
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// Progress stages emitted by RunMigrations
const (
	StagePlanCreated        = "plan_created"
	StageMigrationStarting  = "migration_starting"
	StageOperationStarting  = "operation_starting"
	StageWaitingForReceipt  = "waiting_for_receipt"
	StageOperationCompleted = "operation_completed"
	StageMigrationCompleted = "migration_completed"
	StageMigrationFailed    = "migration_failed"
	StageRunCompleted       = "run_completed"
)

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
