package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrReceiptTimeout is returned when a transaction is not confirmed before the deadline
	ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

	// ErrTransactionReverted is returned when a confirmed transaction has a failed status
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrNoContractAddress is returned when a deployment receipt carries no contract address
	ErrNoContractAddress = errors.New("receipt has no contract address")
)

// MissingLinkDependencyError is returned by the linker when a placeholder in
// a bytecode template has no address in the supplied mapping.
type MissingLinkDependencyError struct {
	Name string
}

func (e *MissingLinkDependencyError) Error() string {
	return fmt.Sprintf("missing link dependency: no address supplied for placeholder %q", e.Name)
}

// MalformedAddressError is returned when a value supplied for linking is not
// a 20-byte hex address.
type MalformedAddressError struct {
	Name  string
	Value string
}

func (e *MalformedAddressError) Error() string {
	return fmt.Sprintf("malformed address %q for %s", e.Value, e.Name)
}

func (e *MalformedAddressError) Unwrap() error {
	return ErrInvalidAddress
}

// NoKnownAddressError is returned when no override, in-run deployment or
// registrar entry exists for a dependency.
type NoKnownAddressError struct {
	Name string
}

func (e *NoKnownAddressError) Error() string {
	return fmt.Sprintf("no known address for %s (checked overrides, this run's migrations and registrar key %q)",
		e.Name, "contract/"+e.Name)
}

// MissingCompiledArtifactError is returned when a contract, or one of its
// transitive link dependencies, is absent from the artifact table.
type MissingCompiledArtifactError struct {
	Name        string
	Suggestions []string
}

// NewMissingCompiledArtifactError builds the error with close matches from known names
func NewMissingCompiledArtifactError(name string, known []string) *MissingCompiledArtifactError {
	var suggestions []string
	for _, match := range fuzzy.Find(name, known) {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == 3 {
			break
		}
	}
	return &MissingCompiledArtifactError{Name: name, Suggestions: suggestions}
}

func (e *MissingCompiledArtifactError) Error() string {
	msg := fmt.Sprintf("no compiled artifact for contract %s", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *MissingCompiledArtifactError) Unwrap() error {
	return ErrNotFound
}

// BytecodeMismatchError is returned when the code deployed at a
// registrar-sourced address differs from the dependency's expected runtime.
type BytecodeMismatchError struct {
	Name        string
	Address     common.Address
	ExpectedLen int
	ActualLen   int
}

func (e *BytecodeMismatchError) Error() string {
	if e.ActualLen == 0 {
		return fmt.Sprintf("bytecode mismatch for %s at %s: no code deployed", e.Name, e.Address.Hex())
	}
	return fmt.Sprintf("bytecode mismatch for %s at %s: deployed code (%d bytes) does not match compiled runtime (%d bytes)",
		e.Name, e.Address.Hex(), e.ActualLen, e.ExpectedLen)
}

// GraphErrorKind classifies migration graph errors
type GraphErrorKind string

const (
	GraphCycle             GraphErrorKind = "cycle"
	GraphMissingDependency GraphErrorKind = "missing-dependency"
	GraphDuplicate         GraphErrorKind = "duplicate"
)

// GraphError is returned when the migration or link dependency graph cannot be ordered
type GraphError struct {
	Kind       GraphErrorKind
	Migration  string
	Dependency string
	Cycle      []string
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case GraphCycle:
		return fmt.Sprintf("circular dependency detected involving: %s", strings.Join(e.Cycle, " -> "))
	case GraphMissingDependency:
		return fmt.Sprintf("migration '%s' depends on non-existent migration '%s'", e.Migration, e.Dependency)
	case GraphDuplicate:
		return fmt.Sprintf("migration '%s' is defined more than once", e.Migration)
	default:
		return fmt.Sprintf("invalid migration graph at '%s'", e.Migration)
	}
}

// TransactionError wraps a failed submission, reverted transaction or
// confirmation timeout.
type TransactionError struct {
	Action string
	Hash   common.Hash
	Err    error
}

func (e *TransactionError) Error() string {
	if e.Hash == (common.Hash{}) {
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s (tx %s): %v", e.Action, e.Hash.Hex(), e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// MigrationFailedError reports the first failing migration of a run
type MigrationFailedError struct {
	Migration      string
	OperationIndex int // -1 when the failure happened while recording completion
	Operation      string
	Err            error
}

func (e *MigrationFailedError) Error() string {
	if e.OperationIndex < 0 {
		return fmt.Sprintf("migration %s failed: %s: %v", e.Migration, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration %s failed at operation %d (%s): %v",
		e.Migration, e.OperationIndex+1, e.Operation, e.Err)
}

func (e *MigrationFailedError) Unwrap() error {
	return e.Err
}
