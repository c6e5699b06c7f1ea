package registrar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

var registrarAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// registrarChain executes registrar calls against in-memory storage
type registrarChain struct {
	addresses map[string]common.Address
	bools     map[string]bool
	sendErr   error
	deployed  bool
}

func newRegistrarChain() *registrarChain {
	return &registrarChain{
		addresses: make(map[string]common.Address),
		bools:     make(map[string]bool),
		deployed:  true,
	}
}

func (c *registrarChain) ChainID(context.Context) (uint64, error) { return 1337, nil }

func (c *registrarChain) SendTransaction(_ context.Context, req usecase.TxRequest) (common.Hash, error) {
	if c.sendErr != nil {
		return common.Hash{}, c.sendErr
	}
	if req.To == nil || *req.To != registrarAddress {
		return common.Hash{}, fmt.Errorf("unexpected target")
	}

	var key string
	switch {
	case bytes.HasPrefix(req.Data, funcSetAddress.Selector[:]):
		var value common.Address
		if err := funcSetAddress.DecodeArgs(req.Data, &key, &value); err != nil {
			return common.Hash{}, err
		}
		c.addresses[key] = value
	case bytes.HasPrefix(req.Data, funcSetBool.Selector[:]):
		var value bool
		if err := funcSetBool.DecodeArgs(req.Data, &key, &value); err != nil {
			return common.Hash{}, err
		}
		c.bools[key] = value
	default:
		return common.Hash{}, fmt.Errorf("unknown selector")
	}
	return crypto.Keccak256Hash(req.Data), nil
}

func (c *registrarChain) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errors.New("not used")
}

func (c *registrarChain) CodeAt(context.Context, common.Address) ([]byte, error) { return nil, nil }

func (c *registrarChain) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	if !c.deployed || to != registrarAddress {
		return nil, nil
	}

	var key string
	switch {
	case bytes.HasPrefix(data, funcGetAddress.Selector[:]):
		if err := funcGetAddress.DecodeArgs(data, &key); err != nil {
			return nil, err
		}
		return funcGetAddress.Returns.Pack(c.addresses[key])
	case bytes.HasPrefix(data, funcGetBool.Selector[:]):
		if err := funcGetBool.DecodeArgs(data, &key); err != nil {
			return nil, err
		}
		return funcGetBool.Returns.Pack(c.bools[key])
	}
	return nil, fmt.Errorf("unknown selector")
}

type mockWaiter struct {
	mock.Mock
}

func (m *mockWaiter) Wait(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistrar_RoundTrip(t *testing.T) {
	ctx := context.Background()
	chain := newRegistrarChain()
	waiter := &mockWaiter{}
	waiter.On("Wait", mock.Anything, mock.Anything).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)

	r := New(registrarAddress, chain, waiter, testLogger())

	addr, err := r.GetAddress(ctx, "contract/Library13")
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)

	library := common.HexToAddress("0xd3cda913deb6f67967b99d67acdfa1712c293601")
	require.NoError(t, r.SetAddress(ctx, "contract/Library13", library))

	addr, err = r.GetAddress(ctx, "contract/Library13")
	require.NoError(t, err)
	assert.Equal(t, library, addr)

	done, err := r.GetBool(ctx, "migration/0001_initial")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, r.SetBool(ctx, "migration/0001_initial", true))
	done, err = r.GetBool(ctx, "migration/0001_initial")
	require.NoError(t, err)
	assert.True(t, done)

	waiter.AssertNumberOfCalls(t, "Wait", 2)
}

func TestRegistrar_WriteErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected", func(t *testing.T) {
		chain := newRegistrarChain()
		chain.sendErr = errors.New("insufficient funds")
		r := New(registrarAddress, chain, &mockWaiter{}, testLogger())

		err := r.SetBool(ctx, "migration/x", true)
		var txErr *domain.TransactionError
		require.True(t, errors.As(err, &txErr))
		assert.ErrorContains(t, err, "insufficient funds")
	})

	t.Run("reverted", func(t *testing.T) {
		waiter := &mockWaiter{}
		waiter.On("Wait", mock.Anything, mock.Anything).
			Return(nil, &domain.TransactionError{Action: "transaction reverted", Err: domain.ErrTransactionReverted})
		r := New(registrarAddress, newRegistrarChain(), waiter, testLogger())

		err := r.SetAddress(ctx, "contract/A", common.HexToAddress("0x01"))
		assert.ErrorIs(t, err, domain.ErrTransactionReverted)
	})
}

func TestRegistrar_NotDeployed(t *testing.T) {
	chain := newRegistrarChain()
	chain.deployed = false
	r := New(registrarAddress, chain, &mockWaiter{}, testLogger())

	_, err := r.GetAddress(context.Background(), "contract/A")
	assert.ErrorContains(t, err, "returned no data")
}

func TestNewRegistrar(t *testing.T) {
	_, err := NewRegistrar(&config.RuntimeConfig{}, newRegistrarChain(), &mockWaiter{}, testLogger())
	assert.ErrorIs(t, err, ErrNoRegistrar)

	r, err := NewRegistrar(&config.RuntimeConfig{Network: &config.Network{Registrar: registrarAddress.Hex()}},
		newRegistrarChain(), &mockWaiter{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, registrarAddress, r.Address())
}

func TestMigrationRecord(t *testing.T) {
	ctx := context.Background()
	chain := newRegistrarChain()
	waiter := &mockWaiter{}
	waiter.On("Wait", mock.Anything, mock.Anything).Return(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)
	record := NewMigrationRecord(New(registrarAddress, chain, waiter, testLogger()))

	done, err := record.IsComplete(ctx, "0001_initial")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, record.MarkComplete(ctx, "0001_initial"))
	assert.True(t, chain.bools["migration/0001_initial"])

	done, err = record.IsComplete(ctx, "0001_initial")
	require.NoError(t, err)
	assert.True(t, done)
}
