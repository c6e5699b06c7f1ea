package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/linker"
)

// AddressResolver resolves link dependency names to addresses. Sources are
// consulted in strict order: explicit overrides, contracts deployed earlier
// in the current run, then the on-chain registrar. Registrar reads are never
// cached so that writes confirmed earlier in the run are always observed.
type AddressResolver struct {
	registrar Registrar
	log       *slog.Logger
}

// NewAddressResolver creates a new address resolver
func NewAddressResolver(registrar Registrar, log *slog.Logger) *AddressResolver {
	return &AddressResolver{
		registrar: registrar,
		log:       log,
	}
}

// Resolve returns the address for name. name may be fully qualified
// ("path:Name"); overrides are matched on the qualified and the short name,
// in-run state and registrar on the short name.
func (r *AddressResolver) Resolve(
	ctx context.Context,
	name string,
	overrides map[string]string,
	run *RunState,
) (models.ResolvedAddress, error) {
	short := linker.ShortName(name)

	for _, key := range []string{name, short} {
		value, ok := overrides[key]
		if !ok {
			continue
		}
		if !common.IsHexAddress(value) {
			return models.ResolvedAddress{}, &domain.MalformedAddressError{Name: key, Value: value}
		}
		r.log.Debug("resolved link dependency", "name", name, "source", models.ProvenanceOverride, "address", value)
		return models.ResolvedAddress{
			Name:       name,
			Address:    common.HexToAddress(value),
			Provenance: models.ProvenanceOverride,
		}, nil
	}

	if address, ok := run.Lookup(short); ok {
		r.log.Debug("resolved link dependency", "name", name, "source", models.ProvenanceInRunMigration, "address", address)
		return models.ResolvedAddress{
			Name:       name,
			Address:    address,
			Provenance: models.ProvenanceInRunMigration,
		}, nil
	}

	if r.registrar != nil {
		key := models.ContractKey(short)
		address, err := r.registrar.GetAddress(ctx, key)
		if err != nil {
			return models.ResolvedAddress{}, fmt.Errorf("failed to read registrar key %s: %w", key, err)
		}
		if address != (common.Address{}) {
			r.log.Debug("resolved link dependency", "name", name, "source", models.ProvenanceRegistrar, "address", address)
			return models.ResolvedAddress{
				Name:       name,
				Address:    address,
				Provenance: models.ProvenanceRegistrar,
			}, nil
		}
	}

	return models.ResolvedAddress{}, &domain.NoKnownAddressError{Name: short}
}
