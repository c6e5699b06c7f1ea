package models

import (
	"encoding/json"
	"sort"
)

// CompiledArtifact is the compiler output for a single contract. Bytecode and
// BytecodeRuntime are hex templates that may still contain link placeholders.
type CompiledArtifact struct {
	Name            string          `json:"name"`
	ABI             json.RawMessage `json:"abi"`
	Bytecode        string          `json:"bytecode"`
	BytecodeRuntime string          `json:"bytecode_runtime"`

	// Libraries lists fully qualified library names ("path:Name") referenced
	// through hashed placeholders. Legacy placeholders carry their name inline.
	Libraries []string `json:"libraries,omitempty"`

	// SourcePath is informational only
	SourcePath string `json:"sourcePath,omitempty"`
}

// ArtifactTable is the name-indexed set of compiled artifacts for a project.
// It is immutable once built.
type ArtifactTable struct {
	artifacts map[string]*CompiledArtifact
}

// NewArtifactTable indexes artifacts by name. Later entries with a duplicate
// name replace earlier ones.
func NewArtifactTable(artifacts ...*CompiledArtifact) *ArtifactTable {
	table := &ArtifactTable{artifacts: make(map[string]*CompiledArtifact, len(artifacts))}
	for _, artifact := range artifacts {
		if artifact == nil || artifact.Name == "" {
			continue
		}
		table.artifacts[artifact.Name] = artifact
	}
	return table
}

// Get returns the artifact for name
func (t *ArtifactTable) Get(name string) (*CompiledArtifact, bool) {
	if t == nil {
		return nil, false
	}
	artifact, ok := t.artifacts[name]
	return artifact, ok
}

// Names returns all contract names in sorted order
func (t *ArtifactTable) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.artifacts))
	for name := range t.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of artifacts in the table
func (t *ArtifactTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.artifacts)
}
