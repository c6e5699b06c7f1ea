package usecase

import (
	"github.com/ethereum/go-ethereum/common"
)

// RunState records contracts deployed by migrations earlier in the current
// run. It lives only as long as one RunMigrations execution and is not safe
// for concurrent use; runs are strictly sequential.
type RunState struct {
	deployed map[string]common.Address
	order    []string
}

// NewRunState creates an empty run state
func NewRunState() *RunState {
	return &RunState{deployed: make(map[string]common.Address)}
}

// Record stores the address of a contract deployed in this run. A later
// deployment of the same contract replaces the earlier one.
func (s *RunState) Record(contract string, address common.Address) {
	if _, exists := s.deployed[contract]; !exists {
		s.order = append(s.order, contract)
	}
	s.deployed[contract] = address
}

// Lookup returns the address deployed in this run for contract
func (s *RunState) Lookup(contract string) (common.Address, bool) {
	if s == nil {
		return common.Address{}, false
	}
	address, ok := s.deployed[contract]
	return address, ok
}

// Deployed returns the recorded contracts in first-deployment order
func (s *RunState) Deployed() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns a copy of the recorded addresses keyed by contract name
func (s *RunState) Snapshot() map[string]common.Address {
	out := make(map[string]common.Address)
	if s == nil {
		return out
	}
	for k, v := range s.deployed {
		out[k] = v
	}
	return out
}
