package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

const (
	// ProjectFileName marks the project root
	ProjectFileName = "migrate.toml"

	defaultArtifactsPath  = "build/contracts"
	defaultMigrationsPath = "migrations"
)

// loadEnvFiles loads .env and .env.local so that ${VAR} references in
// migrate.toml can be expanded
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadProjectConfig reads migrate.toml from the project root, expanding
// environment variables in network settings
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	loadEnvFiles(projectRoot)

	var cfg config.ProjectConfig
	path := filepath.Join(projectRoot, ProjectFileName)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}

	if cfg.Project.Artifacts == "" {
		cfg.Project.Artifacts = defaultArtifactsPath
	}
	if cfg.Project.Migrations == "" {
		cfg.Project.Migrations = defaultMigrationsPath
	}

	networks := make(map[string]config.NetworkConfig, len(cfg.Networks))
	for name, network := range cfg.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.Registrar = os.ExpandEnv(network.Registrar)
		network.PrivateKey = os.ExpandEnv(network.PrivateKey)
		networks[name] = network
	}
	cfg.Networks = networks

	return &cfg, nil
}

// foundryTOML is the subset of foundry.toml used as a fallback for RPC endpoints
type foundryTOML struct {
	RpcEndpoints map[string]string `toml:"rpc_endpoints"`
}

// loadFoundryRPCEndpoints returns the expanded [rpc_endpoints] of foundry.toml,
// or an empty map when the project has none
func loadFoundryRPCEndpoints(projectRoot string) (map[string]string, error) {
	endpoints := make(map[string]string)

	foundryPath := filepath.Join(projectRoot, "foundry.toml")
	if _, err := os.Stat(foundryPath); errors.Is(err, os.ErrNotExist) {
		return endpoints, nil
	}

	var raw foundryTOML
	if _, err := toml.DecodeFile(foundryPath, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}
	for name, url := range raw.RpcEndpoints {
		endpoints[name] = os.ExpandEnv(url)
	}
	return endpoints, nil
}
