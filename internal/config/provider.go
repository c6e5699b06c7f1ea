package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

const (
	defaultPollInterval   = time.Second
	defaultReceiptTimeout = 2 * time.Minute
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	// Get project root from viper
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		// Try to find project root
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	project, err := LoadProjectConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Yes:            v.GetBool("yes"),
		DryRun:         v.GetBool("dry_run"),
		Timeout:        v.GetDuration("timeout"),
		ArtifactsPath:  projectPath(projectRoot, v.GetString("artifacts"), project.Project.Artifacts),
		MigrationsPath: projectPath(projectRoot, v.GetString("migrations"), project.Project.Migrations),
		Project:        project,
	}

	if cfg.PollInterval, err = durationSetting(v, "poll_interval", project.Project.PollInterval, defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.ReceiptTimeout, err = durationSetting(v, "receipt_timeout", project.Project.ReceiptTimeout, defaultReceiptTimeout); err != nil {
		return nil, err
	}

	// Resolve network if specified
	networkName := v.GetString("network")
	if networkName == "" {
		networkName = project.Project.DefaultNetwork
	}
	if networkName != "" {
		endpoints, err := loadFoundryRPCEndpoints(projectRoot)
		if err != nil {
			return nil, err
		}
		network, err := ResolveNetwork(project, networkName, endpoints)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		if key := v.GetString("private_key"); key != "" {
			network.PrivateKey = key
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find migrate.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root without finding migrate.toml
			return "", fmt.Errorf("not in a migration project (%s not found)", ProjectFileName)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".treb"))

	// Set up environment variables
	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return v
}

// projectPath picks the override or the project file value, relative to the root
func projectPath(projectRoot, override, fromFile string) string {
	path := fromFile
	if override != "" {
		path = override
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}

func durationSetting(v *viper.Viper, key, fromFile string, fallback time.Duration) (time.Duration, error) {
	if v.IsSet(key) {
		return v.GetDuration(key), nil
	}
	if fromFile == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(fromFile)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q in %s: %w", key, fromFile, ProjectFileName, err)
	}
	return d, nil
}
