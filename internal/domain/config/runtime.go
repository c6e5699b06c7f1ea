package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string

	// Network is nil if not specified
	Network *Network

	// Execution settings
	Debug          bool
	NonInteractive bool
	Yes            bool // Skip broadcast confirmation
	DryRun         bool
	Timeout        time.Duration

	// Project inputs, absolute paths
	ArtifactsPath  string
	MigrationsPath string

	// Receipt polling
	PollInterval   time.Duration
	ReceiptTimeout time.Duration

	// Resolved configuration file
	Project *ProjectConfig
}

// Network represents network configuration
type Network struct {
	Name    string
	ChainID uint64 // 0 accepts whatever the node reports
	RPCURL  string
	// Registrar is the hex address of the on-chain registrar contract
	Registrar string
	// PrivateKey signs transactions; empty for read-only use
	PrivateKey string
	// Local networks are never prompted for confirmation
	Local bool
}

// ProjectConfig mirrors migrate.toml
type ProjectConfig struct {
	Project  ProjectSection           `toml:"project"`
	Networks map[string]NetworkConfig `toml:"networks"`
}

// ProjectSection holds project-wide settings
type ProjectSection struct {
	Artifacts      string `toml:"artifacts"`
	Migrations     string `toml:"migrations"`
	DefaultNetwork string `toml:"default_network"`
	PollInterval   string `toml:"poll_interval"`
	ReceiptTimeout string `toml:"receipt_timeout"`
}

// NetworkConfig is a [networks.<name>] table
type NetworkConfig struct {
	RPCURL     string `toml:"rpc_url"`
	ChainID    uint64 `toml:"chain_id"`
	Registrar  string `toml:"registrar"`
	PrivateKey string `toml:"private_key"`
	Local      bool   `toml:"local"`
}
