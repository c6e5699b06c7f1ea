package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// ShowContractFactory builds a single factory outside of a migration run
type ShowContractFactory struct {
	builder *ContractFactoryBuilder
}

// NewShowContractFactory creates a new show contract factory use case
func NewShowContractFactory(builder *ContractFactoryBuilder) *ShowContractFactory {
	return &ShowContractFactory{builder: builder}
}

// ShowContractFactoryParams contains parameters for building a factory
type ShowContractFactoryParams struct {
	Contract string
	// Links are explicit link addresses, e.g. {"Library13": "0x..."}
	Links map[string]string
}

// ShowContractFactoryResult contains the built factory and the unlinked artifact
type ShowContractFactoryResult struct {
	Factory  *models.ContractFactory
	Artifact *models.CompiledArtifact
	// Linked is false when the artifact had no link placeholders
	Linked bool
}

// Run builds the factory with an empty run state so that dependencies
// come only from links and the registrar
func (uc *ShowContractFactory) Run(ctx context.Context, params ShowContractFactoryParams) (*ShowContractFactoryResult, error) {
	artifact, err := uc.builder.Artifact(ctx, params.Contract)
	if err != nil {
		return nil, err
	}

	factory, err := uc.builder.Build(ctx, params.Contract, params.Links, NewRunState())
	if err != nil {
		return nil, err
	}

	return &ShowContractFactoryResult{
		Factory:  factory,
		Artifact: artifact,
		Linked:   len(factory.Dependencies) > 0,
	}, nil
}
