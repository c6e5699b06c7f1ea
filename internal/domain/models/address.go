package models

import "github.com/ethereum/go-ethereum/common"

// Provenance records where a resolved dependency address came from
type Provenance string

const (
	ProvenanceOverride       Provenance = "override"
	ProvenanceInRunMigration Provenance = "in-run-migration"
	ProvenanceRegistrar      Provenance = "registrar"
)

// RequiresVerification reports whether an address with this provenance must
// be checked against live chain code before it is trusted.
func (p Provenance) RequiresVerification() bool {
	return p == ProvenanceRegistrar
}

// ResolvedAddress is a dependency name bound to an address
type ResolvedAddress struct {
	Name       string         `json:"name"`
	Address    common.Address `json:"address"`
	Provenance Provenance     `json:"provenance"`
}

const (
	contractKeyPrefix  = "contract/"
	migrationKeyPrefix = "migration/"
)

// ContractKey is the registrar key under which a contract address is stored
func ContractKey(name string) string {
	return contractKeyPrefix + name
}

// MigrationKey is the registrar key holding a migration's completion marker
func MigrationKey(name string) string {
	return migrationKeyPrefix + name
}
