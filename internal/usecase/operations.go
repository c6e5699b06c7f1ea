package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// deployContract builds the factory, submits the creation transaction and
// records the new address for later migrations of this run
func (uc *RunMigrations) deployContract(ctx context.Context, op models.DeployContract, run *RunState) (*OperationResult, error) {
	factory, err := uc.builder.Build(ctx, op.Contract, op.Overrides, run)
	if err != nil {
		return nil, err
	}

	parsed, err := factory.ParsedABI()
	if err != nil {
		return nil, err
	}
	args, err := CoerceArgs(parsed.Constructor.Inputs, op.Args)
	if err != nil {
		return nil, fmt.Errorf("invalid constructor arguments for %s: %w", op.Contract, err)
	}

	data, err := factory.DeployTx(args...)
	if err != nil {
		return nil, err
	}

	hash, err := uc.send(ctx, "deploy "+op.Contract, TxRequest{Data: data})
	if err != nil {
		return nil, err
	}

	receipt, err := uc.waiter.Wait(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, &domain.TransactionError{Action: "deploy " + op.Contract, Hash: hash, Err: domain.ErrNoContractAddress}
	}

	run.Record(op.Contract, receipt.ContractAddress)
	uc.log.Info("deployed contract", "contract", op.Contract, "address", receipt.ContractAddress, "tx", hash)

	if op.Register {
		if err := uc.registrar.SetAddress(ctx, models.ContractKey(op.Contract), receipt.ContractAddress); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", op.Contract, err)
		}
	}

	return &OperationResult{
		Operation: op,
		TxHash:    hash,
		Address:   receipt.ContractAddress,
	}, nil
}

// transactContract calls a state-changing method on a known contract
func (uc *RunMigrations) transactContract(ctx context.Context, op models.TransactContract, run *RunState) (*OperationResult, error) {
	target, err := uc.resolver.Resolve(ctx, op.Contract, op.Overrides, run)
	if err != nil {
		return nil, err
	}

	artifact, err := uc.builder.Artifact(ctx, op.Contract)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", op.Contract, err)
	}

	method, ok := parsed.Methods[op.Method]
	if !ok {
		return nil, fmt.Errorf("contract %s has no method %q (available: %s)",
			op.Contract, op.Method, strings.Join(methodNames(parsed), ", "))
	}
	args, err := CoerceArgs(method.Inputs, op.Args)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments for %s.%s: %w", op.Contract, op.Method, err)
	}
	data, err := parsed.Pack(op.Method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call to %s.%s: %w", op.Contract, op.Method, err)
	}

	to := target.Address
	hash, err := uc.send(ctx, fmt.Sprintf("call %s.%s", op.Contract, op.Method), TxRequest{To: &to, Data: data})
	if err != nil {
		return nil, err
	}
	if _, err := uc.waiter.Wait(ctx, hash); err != nil {
		return nil, err
	}

	return &OperationResult{Operation: op, TxHash: hash}, nil
}

// registerAddress writes a registrar entry for an explicit or resolved address
func (uc *RunMigrations) registerAddress(ctx context.Context, op models.RegisterAddress, run *RunState) (*OperationResult, error) {
	var address common.Address
	switch {
	case op.Address != "":
		if !common.IsHexAddress(op.Address) {
			return nil, &domain.MalformedAddressError{Name: op.RegistrarKey(), Value: op.Address}
		}
		address = common.HexToAddress(op.Address)
	case op.Contract != "":
		resolved, err := uc.resolver.Resolve(ctx, op.Contract, nil, run)
		if err != nil {
			return nil, err
		}
		address = resolved.Address
	default:
		return nil, fmt.Errorf("register operation needs an address or a contract")
	}

	if err := uc.registrar.SetAddress(ctx, op.RegistrarKey(), address); err != nil {
		return nil, fmt.Errorf("failed to write registrar key %s: %w", op.RegistrarKey(), err)
	}

	return &OperationResult{Operation: op, Address: address}, nil
}

func (uc *RunMigrations) send(ctx context.Context, action string, req TxRequest) (common.Hash, error) {
	hash, err := uc.chain.SendTransaction(ctx, req)
	if err != nil {
		return common.Hash{}, &domain.TransactionError{Action: action, Err: err}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageWaitingForReceipt,
		Message: fmt.Sprintf("%s (%s)", action, hash.Hex()),
		Spinner: true,
	})
	return hash, nil
}

func methodNames(parsed abi.ABI) []string {
	names := lo.Keys(parsed.Methods)
	sort.Strings(names)
	return names
}
