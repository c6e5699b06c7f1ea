package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/compiler"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/linker"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// Repository loads compiled artifacts from disk. The artifacts path may be
// a directory of per-contract JSON files (including a Foundry out/ tree) or
// a single solc --combined-json output file.
type Repository struct {
	path string
	log  *slog.Logger
}

// NewRepository creates a repository reading from the configured artifacts path
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{path: cfg.ArtifactsPath, log: log}
}

// Load reads every artifact into a table
func (r *Repository) Load(ctx context.Context) (*models.ArtifactTable, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, fmt.Errorf("artifacts not found at %s: %w", r.path, err)
	}

	var artifacts []*models.CompiledArtifact
	if info.IsDir() {
		artifacts, err = r.loadDir(ctx)
	} else {
		artifacts, err = r.loadFile(r.path)
	}
	if err != nil {
		return nil, err
	}

	r.log.Debug("loaded compiled artifacts", "path", r.path, "count", len(artifacts))
	return models.NewArtifactTable(artifacts...), nil
}

func (r *Repository) loadDir(ctx context.Context) ([]*models.CompiledArtifact, error) {
	var artifacts []*models.CompiledArtifact

	err := filepath.WalkDir(r.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Foundry writes compiler metadata next to artifacts
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		loaded, err := r.loadFile(path)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read artifacts from %s: %w", r.path, err)
	}

	return artifacts, nil
}

func (r *Repository) loadFile(path string) ([]*models.CompiledArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var probe struct {
		Contracts json.RawMessage `json:"contracts"`
		ABI       json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		r.log.Debug("skipping non-artifact file", "path", path, "error", err)
		return nil, nil
	}

	switch {
	case len(probe.Contracts) > 0:
		return parseCombinedJSON(data)
	case len(probe.ABI) > 0:
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		artifact, err := parseArtifact(data, stem)
		if err != nil {
			return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
		}
		artifact.SourcePath = path
		return []*models.CompiledArtifact{artifact}, nil
	default:
		r.log.Debug("skipping non-artifact file", "path", path)
		return nil, nil
	}
}

// artifactFile accepts both the flat format and Foundry's nested bytecode objects
type artifactFile struct {
	Name             string          `json:"name"`
	ContractName     string          `json:"contractName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         json.RawMessage `json:"bytecode"`
	BytecodeRuntime  json.RawMessage `json:"bytecode_runtime"`
	DeployedBytecode json.RawMessage `json:"deployedBytecode"`
	Libraries        []string        `json:"libraries"`
}

type bytecodeObject struct {
	Object         string                                 `json:"object"`
	LinkReferences map[string]map[string][]json.RawMessage `json:"linkReferences"`
}

func parseArtifact(data []byte, fallbackName string) (*models.CompiledArtifact, error) {
	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	name := lo.CoalesceOrEmpty(file.Name, file.ContractName, fallbackName)

	code, codeLibs, err := parseBytecode(file.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	runtimeRaw := file.BytecodeRuntime
	if len(runtimeRaw) == 0 {
		runtimeRaw = file.DeployedBytecode
	}
	runtime, runtimeLibs, err := parseBytecode(runtimeRaw)
	if err != nil {
		return nil, fmt.Errorf("runtime bytecode: %w", err)
	}

	libraries := lo.Uniq(append(append(file.Libraries, codeLibs...), runtimeLibs...))
	sort.Strings(libraries)

	return &models.CompiledArtifact{
		Name:            name,
		ABI:             compactJSON(file.ABI),
		Bytecode:        code,
		BytecodeRuntime: runtime,
		Libraries:       libraries,
	}, nil
}

// parseBytecode reads a bytecode field that is either a hex string or a
// {"object", "linkReferences"} object, returning the fully qualified names
// of referenced libraries
func parseBytecode(raw json.RawMessage) (string, []string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil, nil
	}

	if raw[0] == '"' {
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			return "", nil, err
		}
		return code, nil, nil
	}

	var obj bytecodeObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", nil, err
	}
	var libraries []string
	for file, names := range obj.LinkReferences {
		for name := range names {
			libraries = append(libraries, file+":"+name)
		}
	}
	return obj.Object, libraries, nil
}

// parseCombinedJSON reads solc --combined-json output. Every contract in the
// file is a candidate library for hashed placeholders.
func parseCombinedJSON(data []byte) ([]*models.CompiledArtifact, error) {
	contracts, err := compiler.ParseCombinedJSON(data, "", "", "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse combined JSON: %w", err)
	}

	fqNames := lo.Keys(contracts)
	sort.Strings(fqNames)

	artifacts := make([]*models.CompiledArtifact, 0, len(contracts))
	for _, fqName := range fqNames {
		contract := contracts[fqName]
		abiJSON, err := json.Marshal(contract.Info.AbiDefinition)
		if err != nil {
			return nil, fmt.Errorf("invalid ABI for %s: %w", fqName, err)
		}
		artifacts = append(artifacts, &models.CompiledArtifact{
			Name:            linker.ShortName(fqName),
			ABI:             abiJSON,
			Bytecode:        contract.Code,
			BytecodeRuntime: contract.RuntimeCode,
			Libraries:       fqNames,
			SourcePath:      strings.SplitN(fqName, ":", 2)[0],
		})
	}
	return artifacts, nil
}

func compactJSON(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Ensure Repository implements ArtifactRepository
var _ usecase.ArtifactRepository = (*Repository)(nil)
