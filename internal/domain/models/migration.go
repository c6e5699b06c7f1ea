package models

import (
	"fmt"
	"strings"
)

// MigrationStatus is the lifecycle state of a migration within a run
type MigrationStatus string

const (
	MigrationPending  MigrationStatus = "PENDING"
	MigrationRunning  MigrationStatus = "RUNNING"
	MigrationComplete MigrationStatus = "COMPLETE"
	MigrationFailed   MigrationStatus = "FAILED"
)

// OperationKind identifies the type of a migration operation
type OperationKind string

const (
	OperationDeployContract   OperationKind = "deploy"
	OperationTransactContract OperationKind = "transact"
	OperationRegisterAddress  OperationKind = "register"
)

// Migration is a named unit of deployment work
type Migration struct {
	Name         string      `json:"name" yaml:"name"`
	Dependencies []string    `json:"dependencies,omitempty" yaml:"deps,omitempty"`
	Operations   []Operation `json:"-" yaml:"-"`
}

// Operation is a single step of a migration
type Operation interface {
	Kind() OperationKind
	String() string
}

// DeployContract deploys a contract built by the factory builder
type DeployContract struct {
	Contract string
	// Overrides are explicit link addresses, highest resolution priority
	Overrides map[string]string
	// Args are constructor arguments, coerced to the constructor ABI types
	Args []any
	// Register writes the deployed address to the registrar under "contract/<Contract>"
	Register bool
}

func (DeployContract) Kind() OperationKind { return OperationDeployContract }

func (o DeployContract) String() string {
	if len(o.Args) == 0 {
		return fmt.Sprintf("deploy %s", o.Contract)
	}
	return fmt.Sprintf("deploy %s(%s)", o.Contract, formatArgs(o.Args))
}

// TransactContract sends a state-changing call to an already known contract
type TransactContract struct {
	Contract string
	Method   string
	Args     []any
	// Overrides pin the target address; resolution otherwise follows the
	// usual override, in-run, registrar order.
	Overrides map[string]string
}

func (TransactContract) Kind() OperationKind { return OperationTransactContract }

func (o TransactContract) String() string {
	return fmt.Sprintf("transact %s.%s(%s)", o.Contract, o.Method, formatArgs(o.Args))
}

// RegisterAddress writes a registrar entry. Address takes precedence; when
// empty the address is resolved from Contract.
type RegisterAddress struct {
	Key      string
	Contract string
	Address  string
}

func (RegisterAddress) Kind() OperationKind { return OperationRegisterAddress }

func (o RegisterAddress) String() string {
	target := o.Address
	if target == "" {
		target = o.Contract
	}
	return fmt.Sprintf("register %s -> %s", o.RegistrarKey(), target)
}

// RegistrarKey returns the key written by this operation
func (o RegisterAddress) RegistrarKey() string {
	if o.Key != "" {
		return o.Key
	}
	return ContractKey(o.Contract)
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, ", ")
}
