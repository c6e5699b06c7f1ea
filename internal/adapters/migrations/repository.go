package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Repository discovers migration definitions written in YAML. The
// migrations path is either a directory, read in file name order, or a
// single file.
//
// A file holds one migration (named after the file when name is omitted)
// or a list under the migrations key:
//
//	name: 002_multiply
//	deps: [001_library]
//	operations:
//	  - deploy: Multiply13
//	    register: true
//	  - transact:
//	      contract: Store
//	      method: setValue
//	      args: [42]
//	  - register:
//	      key: contract/Token
//	      address: "0x..."
type Repository struct {
	path string
	log  *slog.Logger
}

// NewRepository creates a repository reading from the configured migrations path
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{path: cfg.MigrationsPath, log: log}
}

// Load returns every migration in discovery order
func (r *Repository) Load(ctx context.Context) ([]models.Migration, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, fmt.Errorf("migrations not found at %s: %w", r.path, err)
	}

	files := []string{r.path}
	if info.IsDir() {
		files, err = migrationFiles(r.path)
		if err != nil {
			return nil, err
		}
	}

	var migrations []models.Migration
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := parseFile(file)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, loaded...)
	}

	r.log.Debug("discovered migrations", "path", r.path, "count", len(migrations))
	return migrations, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func parseFile(path string) ([]models.Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file migrationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	defs := file.Migrations
	if len(defs) == 0 {
		if file.Operations == nil && file.Name == "" {
			return nil, nil
		}
		single := file.migrationConfig
		if single.Name == "" {
			single.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		defs = []*migrationConfig{&single}
	}

	migrations := make([]models.Migration, 0, len(defs))
	for _, def := range defs {
		migration, err := def.toMigration()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		migrations = append(migrations, migration)
	}
	return migrations, nil
}

// Migration file types

type migrationsFile struct {
	migrationConfig `yaml:",inline"`
	Migrations      []*migrationConfig `yaml:"migrations,omitempty"`
}

type migrationConfig struct {
	Name       string             `yaml:"name"`
	Deps       []string           `yaml:"deps,omitempty"`
	Operations []*operationConfig `yaml:"operations"`
}

// operationConfig is keyed by operation kind. The register key is a flag
// on deploy and a mapping when it is the operation itself.
type operationConfig struct {
	Deploy   string            `yaml:"deploy,omitempty"`
	Args     []any             `yaml:"args,omitempty"`
	Link     map[string]string `yaml:"link,omitempty"`
	Transact *transactConfig   `yaml:"transact,omitempty"`
	Register yaml.Node         `yaml:"register,omitempty"`
}

type transactConfig struct {
	Contract string            `yaml:"contract"`
	Method   string            `yaml:"method"`
	Args     []any             `yaml:"args,omitempty"`
	Link     map[string]string `yaml:"link,omitempty"`
}

type registerConfig struct {
	Key      string `yaml:"key"`
	Contract string `yaml:"contract"`
	Address  string `yaml:"address"`
}

func (c *migrationConfig) toMigration() (models.Migration, error) {
	if c.Name == "" {
		return models.Migration{}, fmt.Errorf("migration without a name")
	}

	ops := make([]models.Operation, 0, len(c.Operations))
	for i, op := range c.Operations {
		if op == nil {
			return models.Migration{}, fmt.Errorf("migration %s: operation %d is empty", c.Name, i)
		}
		parsed, err := op.toOperation()
		if err != nil {
			return models.Migration{}, fmt.Errorf("migration %s: operation %d: %w", c.Name, i, err)
		}
		ops = append(ops, parsed)
	}

	return models.Migration{
		Name:         c.Name,
		Dependencies: c.Deps,
		Operations:   ops,
	}, nil
}

func (o *operationConfig) toOperation() (models.Operation, error) {
	kinds := 0
	if o.Deploy != "" {
		kinds++
	}
	if o.Transact != nil {
		kinds++
	}
	if o.Register.Kind == yaml.MappingNode {
		kinds++
	}
	if kinds != 1 {
		return nil, fmt.Errorf("expected exactly one of deploy, transact or register")
	}

	switch {
	case o.Deploy != "":
		register := false
		if o.Register.Kind == yaml.ScalarNode {
			if err := o.Register.Decode(&register); err != nil {
				return nil, fmt.Errorf("register must be a boolean on deploy: %w", err)
			}
		}
		return models.DeployContract{
			Contract:  o.Deploy,
			Overrides: o.Link,
			Args:      o.Args,
			Register:  register,
		}, nil

	case o.Transact != nil:
		t := o.Transact
		if t.Contract == "" || t.Method == "" {
			return nil, fmt.Errorf("transact requires contract and method")
		}
		return models.TransactContract{
			Contract:  t.Contract,
			Method:    t.Method,
			Args:      t.Args,
			Overrides: t.Link,
		}, nil

	default:
		var reg registerConfig
		if err := o.Register.Decode(&reg); err != nil {
			return nil, fmt.Errorf("invalid register operation: %w", err)
		}
		if reg.Key == "" && reg.Contract == "" {
			return nil, fmt.Errorf("register requires a key or a contract")
		}
		if reg.Address == "" && reg.Contract == "" {
			return nil, fmt.Errorf("register requires an address or a contract")
		}
		return models.RegisterAddress{
			Key:      reg.Key,
			Contract: reg.Contract,
			Address:  reg.Address,
		}, nil
	}
}

// Ensure Repository implements MigrationRepository
var _ usecase.MigrationRepository = (*Repository)(nil)
