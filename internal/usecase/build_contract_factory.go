package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/linker"
)

// ContractFactoryBuilder turns compiled artifacts into linked, verified
// contract factories.
type ContractFactoryBuilder struct {
	artifacts ArtifactRepository
	resolver  *AddressResolver
	chain     ChainClient
	log       *slog.Logger

	mu    sync.Mutex
	table *models.ArtifactTable
}

// NewContractFactoryBuilder creates a new contract factory builder
func NewContractFactoryBuilder(
	artifacts ArtifactRepository,
	resolver *AddressResolver,
	chain ChainClient,
	log *slog.Logger,
) *ContractFactoryBuilder {
	return &ContractFactoryBuilder{
		artifacts: artifacts,
		resolver:  resolver,
		chain:     chain,
		log:       log,
	}
}

// Build returns a deployable factory for the named contract.
//
// Every link dependency is resolved through the AddressResolver. Addresses
// that come from the registrar are only trusted after the code deployed there
// matches the dependency's own expected runtime bytecode, which is obtained by
// building the dependency recursively. A contract without link dependencies
// is returned byte-identical to its artifact.
func (b *ContractFactoryBuilder) Build(
	ctx context.Context,
	name string,
	overrides map[string]string,
	run *RunState,
) (*models.ContractFactory, error) {
	return b.build(ctx, name, overrides, run, nil)
}

func (b *ContractFactoryBuilder) build(
	ctx context.Context,
	name string,
	overrides map[string]string,
	run *RunState,
	path []string,
) (*models.ContractFactory, error) {
	table, err := b.artifactTable(ctx)
	if err != nil {
		return nil, err
	}

	artifact, ok := table.Get(name)
	if !ok {
		return nil, domain.NewMissingCompiledArtifactError(name, table.Names())
	}

	known := append(append([]string{}, artifact.Libraries...), table.Names()...)
	names, err := linker.PlaceholderNames(known, artifact.Bytecode, artifact.BytecodeRuntime)
	if err != nil {
		return nil, fmt.Errorf("failed to read link references of %s: %w", name, err)
	}

	factory := &models.ContractFactory{
		Name:            artifact.Name,
		ABI:             artifact.ABI,
		Bytecode:        artifact.Bytecode,
		BytecodeRuntime: artifact.BytecodeRuntime,
	}
	if len(names) == 0 {
		return factory, nil
	}

	resolved := make([]models.ResolvedAddress, 0, len(names))
	for _, dep := range names {
		addr, err := b.resolver.Resolve(ctx, dep, overrides, run)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, addr)
	}

	path = append(path, name)
	for _, dep := range resolved {
		if !dep.Provenance.RequiresVerification() {
			continue
		}
		if err := b.verify(ctx, dep, overrides, run, path); err != nil {
			return nil, err
		}
	}

	addresses := make(map[string]string, len(resolved))
	for _, dep := range resolved {
		addresses[dep.Name] = dep.Address.Hex()
	}

	if factory.Bytecode, err = linker.Link(artifact.Bytecode, addresses); err != nil {
		return nil, err
	}
	if factory.BytecodeRuntime, err = linker.Link(artifact.BytecodeRuntime, addresses); err != nil {
		return nil, err
	}
	factory.Dependencies = resolved

	b.log.Debug("built contract factory", "contract", name, "dependencies", len(resolved))
	return factory, nil
}

// verify compares the live code at a registrar-sourced address with the
// expected runtime of the dependency
func (b *ContractFactoryBuilder) verify(
	ctx context.Context,
	dep models.ResolvedAddress,
	overrides map[string]string,
	run *RunState,
	path []string,
) error {
	depName := linker.ShortName(dep.Name)
	for _, seen := range path {
		if seen == depName {
			return &domain.GraphError{
				Kind:      domain.GraphCycle,
				Migration: depName,
				Cycle:     append(append([]string{}, path...), depName),
			}
		}
	}

	depFactory, err := b.build(ctx, depName, overrides, run, path)
	if err != nil {
		return err
	}
	expected, err := depFactory.RuntimeCode()
	if err != nil {
		return fmt.Errorf("invalid runtime bytecode for %s: %w", depName, err)
	}

	actual, err := b.chain.CodeAt(ctx, dep.Address)
	if err != nil {
		return fmt.Errorf("failed to read code at %s: %w", dep.Address.Hex(), err)
	}

	expected = withSelfAddress(expected, dep.Address)
	if !bytes.Equal(expected, actual) {
		return &domain.BytecodeMismatchError{
			Name:        depName,
			Address:     dep.Address,
			ExpectedLen: len(expected),
			ActualLen:   len(actual),
		}
	}

	b.log.Debug("verified registrar dependency", "name", depName, "address", dep.Address)
	return nil
}

// withSelfAddress fills the call protection guard of a library runtime.
// Libraries compiled by solc >=0.5 start with PUSH20 of the zero address,
// which the EVM replaces with the library's own address at deployment.
func withSelfAddress(runtime []byte, address common.Address) []byte {
	const push20 = 0x73
	if len(runtime) < 1+common.AddressLength || runtime[0] != push20 {
		return runtime
	}
	guard := runtime[1 : 1+common.AddressLength]
	if !bytes.Equal(guard, common.Address{}.Bytes()) {
		return runtime
	}
	patched := append([]byte{}, runtime...)
	copy(patched[1:], address.Bytes())
	return patched
}

func (b *ContractFactoryBuilder) artifactTable(ctx context.Context) (*models.ArtifactTable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.table != nil {
		return b.table, nil
	}
	table, err := b.artifacts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load compiled artifacts: %w", err)
	}
	b.table = table
	return table, nil
}

// Artifact returns the unlinked compiled artifact for name
func (b *ContractFactoryBuilder) Artifact(ctx context.Context, name string) (*models.CompiledArtifact, error) {
	table, err := b.artifactTable(ctx)
	if err != nil {
		return nil, err
	}
	artifact, ok := table.Get(name)
	if !ok {
		return nil, domain.NewMissingCompiledArtifactError(name, table.Names())
	}
	return artifact, nil
}
