package usecase

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// initPrefix is prepended to the runtime of every test artifact; the fake
// chain strips it on deployment so deployed code equals the runtime.
const initPrefix = "6000"

var testSender = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testArtifact(name, runtime string, libraries ...string) *models.CompiledArtifact {
	return &models.CompiledArtifact{
		Name:            name,
		ABI:             []byte("[]"),
		Bytecode:        "0x" + initPrefix + runtime,
		BytecodeRuntime: "0x" + runtime,
		Libraries:       libraries,
	}
}

// fakeChain is an in-memory ChainClient that mines every transaction
// immediately, or after pendingPolls receipt lookups.
type fakeChain struct {
	mu       sync.Mutex
	nonce    uint64
	code     map[common.Address][]byte
	receipts map[common.Hash]*types.Receipt
	polls    map[common.Hash]int
	sent     []TxRequest

	pendingPolls int
	sendErr      error
	revertTo     map[common.Address]bool
	revertDeploy bool
	failAfter    int // fail SendTransaction once this many txs were sent, 0 disables
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		code:     make(map[common.Address][]byte),
		receipts: make(map[common.Hash]*types.Receipt),
		polls:    make(map[common.Hash]int),
		revertTo: make(map[common.Address]bool),
	}
}

func (c *fakeChain) ChainID(context.Context) (uint64, error) { return 1337, nil }

func (c *fakeChain) SendTransaction(_ context.Context, req TxRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return common.Hash{}, c.sendErr
	}
	if c.failAfter > 0 && len(c.sent) >= c.failAfter {
		return common.Hash{}, fmt.Errorf("nonce too low")
	}

	nonce := c.nonce
	c.nonce++
	c.sent = append(c.sent, req)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	hash := crypto.Keccak256Hash(buf[:], req.Data)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: big.NewInt(int64(nonce + 1)),
	}
	if req.To == nil {
		if c.revertDeploy {
			receipt.Status = types.ReceiptStatusFailed
		} else {
			address := crypto.CreateAddress(testSender, nonce)
			c.code[address] = append([]byte{}, req.Data[len(initPrefix)/2:]...)
			receipt.ContractAddress = address
		}
	} else if c.revertTo[*req.To] {
		receipt.Status = types.ReceiptStatusFailed
	}
	c.receipts[hash] = receipt
	return hash, nil
}

func (c *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if c.polls[hash] < c.pendingPolls {
		c.polls[hash]++
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (c *fakeChain) CodeAt(_ context.Context, address common.Address) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code[address], nil
}

func (c *fakeChain) CallContract(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, nil
}

func (c *fakeChain) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// fakeRegistrar is an in-memory Registrar that also serves as MigrationRecord
type fakeRegistrar struct {
	mu        sync.Mutex
	addresses map[string]common.Address
	bools     map[string]bool
	writes    []string
	reads     int
	failWrite map[string]error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{
		addresses: make(map[string]common.Address),
		bools:     make(map[string]bool),
		failWrite: make(map[string]error),
	}
}

func (r *fakeRegistrar) GetAddress(_ context.Context, key string) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return r.addresses[key], nil
}

func (r *fakeRegistrar) SetAddress(_ context.Context, key string, value common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite[key]; err != nil {
		return err
	}
	r.addresses[key] = value
	r.writes = append(r.writes, key)
	return nil
}

func (r *fakeRegistrar) GetBool(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return r.bools[key], nil
}

func (r *fakeRegistrar) SetBool(_ context.Context, key string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite[key]; err != nil {
		return err
	}
	r.bools[key] = value
	r.writes = append(r.writes, key)
	return nil
}

func (r *fakeRegistrar) IsComplete(ctx context.Context, migration string) (bool, error) {
	return r.GetBool(ctx, models.MigrationKey(migration))
}

func (r *fakeRegistrar) MarkComplete(ctx context.Context, migration string) error {
	return r.SetBool(ctx, models.MigrationKey(migration), true)
}

type staticArtifacts struct {
	table *models.ArtifactTable
}

func (s staticArtifacts) Load(context.Context) (*models.ArtifactTable, error) {
	return s.table, nil
}

type staticMigrations struct {
	migrations []models.Migration
}

func (s staticMigrations) Load(context.Context) ([]models.Migration, error) {
	return s.migrations, nil
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

// recordingProgress collects emitted stages
type recordingProgress struct {
	NopProgress
	stages []string
}

func (p *recordingProgress) OnProgress(_ context.Context, event ProgressEvent) {
	p.stages = append(p.stages, event.Stage)
}

// deployDirect deploys an artifact's runtime outside of any migration and
// returns its address, as an earlier run would have done
func deployDirect(t *testing.T, chain *fakeChain, factory *models.ContractFactory) common.Address {
	t.Helper()
	data, err := factory.Code()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := chain.SendTransaction(context.Background(), TxRequest{Data: data})
	if err != nil {
		t.Fatal(err)
	}
	receipt, err := NewReceiptWaiter(chain, time.Millisecond, time.Second).Wait(context.Background(), hash)
	if err != nil {
		t.Fatal(err)
	}
	return receipt.ContractAddress
}

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) IsComplete(ctx context.Context, migration string) (bool, error) {
	args := m.Called(ctx, migration)
	return args.Bool(0), args.Error(1)
}

func (m *mockRecords) MarkComplete(ctx context.Context, migration string) error {
	return m.Called(ctx, migration).Error(0)
}
