package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ContractFactory is a fully linked, deployable contract definition.
// Bytecode and BytecodeRuntime never contain link placeholders.
type ContractFactory struct {
	Name            string          `json:"name"`
	ABI             json.RawMessage `json:"abi"`
	Bytecode        string          `json:"bytecode"`
	BytecodeRuntime string          `json:"bytecode_runtime"`

	// Dependencies lists the addresses linked into the bytecode, in the
	// order they were resolved.
	Dependencies []ResolvedAddress `json:"dependencies,omitempty"`

	parsed *abi.ABI
}

// ParsedABI decodes the factory ABI, caching the result
func (f *ContractFactory) ParsedABI() (*abi.ABI, error) {
	if f.parsed != nil {
		return f.parsed, nil
	}
	raw := f.ABI
	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", f.Name, err)
	}
	f.parsed = &parsed
	return f.parsed, nil
}

// Code returns the linked creation bytecode as bytes
func (f *ContractFactory) Code() ([]byte, error) {
	return DecodeHex(f.Bytecode)
}

// RuntimeCode returns the linked runtime bytecode as bytes
func (f *ContractFactory) RuntimeCode() ([]byte, error) {
	return DecodeHex(f.BytecodeRuntime)
}

// DeployTx builds the data field of a contract-creation transaction:
// creation bytecode followed by the ABI-encoded constructor arguments.
func (f *ContractFactory) DeployTx(args ...any) ([]byte, error) {
	code, err := f.Code()
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode for %s: %w", f.Name, err)
	}

	parsed, err := f.ParsedABI()
	if err != nil {
		return nil, err
	}

	if len(args) == 0 && len(parsed.Constructor.Inputs) == 0 {
		return code, nil
	}

	encoded, err := parsed.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments for %s: %w", f.Name, err)
	}

	data := make([]byte, 0, len(code)+len(encoded))
	data = append(data, code...)
	return append(data, encoded...), nil
}

// DecodeHex decodes a hex string with or without a 0x prefix
func DecodeHex(s string) ([]byte, error) {
	if !has0xPrefix(s) {
		s = "0x" + s
	}
	if s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
