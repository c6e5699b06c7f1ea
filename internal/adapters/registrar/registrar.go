package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

var (
	funcGetAddress = w3.MustNewFunc("getAddress(string)", "address")
	funcSetAddress = w3.MustNewFunc("setAddress(string,address)", "")
	funcGetBool    = w3.MustNewFunc("getBool(string)", "bool")
	funcSetBool    = w3.MustNewFunc("setBool(string,bool)", "")
)

// ErrNoRegistrar is returned when the selected network has no registrar address
var ErrNoRegistrar = errors.New("no registrar configured for this network")

// Registrar talks to the on-chain string-key registrar contract. Reads go
// straight to the chain on every call; writes block until mined.
type Registrar struct {
	address common.Address
	chain   usecase.ChainClient
	waiter  usecase.TransactionWaiter
	log     *slog.Logger
}

// NewRegistrar creates a registrar bound to the network's registrar address
func NewRegistrar(
	cfg *config.RuntimeConfig,
	chain usecase.ChainClient,
	waiter usecase.TransactionWaiter,
	log *slog.Logger,
) (*Registrar, error) {
	if cfg.Network == nil || cfg.Network.Registrar == "" {
		return nil, ErrNoRegistrar
	}
	return New(common.HexToAddress(cfg.Network.Registrar), chain, waiter, log), nil
}

// New creates a registrar at address
func New(address common.Address, chain usecase.ChainClient, waiter usecase.TransactionWaiter, log *slog.Logger) *Registrar {
	return &Registrar{
		address: address,
		chain:   chain,
		waiter:  waiter,
		log:     log,
	}
}

// Address returns the registrar contract address
func (r *Registrar) Address() common.Address {
	return r.address
}

// GetAddress returns the address stored under key, zero when unset
func (r *Registrar) GetAddress(ctx context.Context, key string) (common.Address, error) {
	var addr common.Address
	if err := r.call(ctx, funcGetAddress, &addr, key); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// SetAddress stores value under key and waits for the transaction to be mined
func (r *Registrar) SetAddress(ctx context.Context, key string, value common.Address) error {
	return r.transact(ctx, funcSetAddress, fmt.Sprintf("set registrar %s", key), key, value)
}

// GetBool returns the bool stored under key, false when unset
func (r *Registrar) GetBool(ctx context.Context, key string) (bool, error) {
	var value bool
	if err := r.call(ctx, funcGetBool, &value, key); err != nil {
		return false, err
	}
	return value, nil
}

// SetBool stores value under key and waits for the transaction to be mined
func (r *Registrar) SetBool(ctx context.Context, key string, value bool) error {
	return r.transact(ctx, funcSetBool, fmt.Sprintf("set registrar %s", key), key, value)
}

func (r *Registrar) call(ctx context.Context, fn *w3.Func, out any, key string) error {
	input, err := fn.EncodeArgs(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", fn.Signature, err)
	}

	output, err := r.chain.CallContract(ctx, r.address, input)
	if err != nil {
		return fmt.Errorf("registrar call %s(%q): %w", fn.Signature, key, err)
	}
	if len(output) == 0 {
		return fmt.Errorf("registrar at %s returned no data (is it deployed?)", r.address.Hex())
	}

	if err := fn.DecodeReturns(output, out); err != nil {
		return fmt.Errorf("decode %s: %w", fn.Signature, err)
	}
	r.log.Debug("registrar read", "key", key, "value", out)
	return nil
}

func (r *Registrar) transact(ctx context.Context, fn *w3.Func, action string, args ...any) error {
	input, err := fn.EncodeArgs(args...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", fn.Signature, err)
	}

	to := r.address
	hash, err := r.chain.SendTransaction(ctx, usecase.TxRequest{To: &to, Data: input})
	if err != nil {
		return &domain.TransactionError{Action: action, Err: err}
	}

	if _, err := r.waiter.Wait(ctx, hash); err != nil {
		return err
	}
	r.log.Debug("registrar write confirmed", "action", action, "tx", hash)
	return nil
}

// Ensure Registrar implements usecase.Registrar
var _ usecase.Registrar = (*Registrar)(nil)
