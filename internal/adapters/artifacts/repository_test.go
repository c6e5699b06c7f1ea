package artifacts

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/linker"
)

func newTestRepository(path string) *Repository {
	return NewRepository(&config.RuntimeConfig{ArtifactsPath: path}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRepository_FlatArtifacts(t *testing.T) {
	dir := t.TempDir()
	placeholder := linker.LegacyPlaceholder("Library13")

	write(t, filepath.Join(dir, "Library13.json"), `{
  "name": "Library13",
  "abi": [ ],
  "bytecode": "0x60136000",
  "bytecode_runtime": "0x6013"
}`)
	write(t, filepath.Join(dir, "nested", "Multiply13.json"), `{
  "contractName": "Multiply13",
  "abi": [{"type":"function","name":"multiply13","inputs":[{"name":"v","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"pure"}],
  "bytecode": "0x60`+placeholder+`",
  "deployedBytecode": "0x61`+placeholder+`"
}`)
	write(t, filepath.Join(dir, "notes.txt"), "ignored")
	write(t, filepath.Join(dir, "package.json"), `{"name": "not-an-artifact"}`)

	table, err := newTestRepository(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Library13", "Multiply13"}, table.Names())

	lib, ok := table.Get("Library13")
	require.True(t, ok)
	assert.Equal(t, "0x60136000", lib.Bytecode)
	assert.Equal(t, "0x6013", lib.BytecodeRuntime)
	assert.Equal(t, "[]", string(lib.ABI))

	mul, ok := table.Get("Multiply13")
	require.True(t, ok)
	assert.Equal(t, "0x61"+placeholder, mul.BytecodeRuntime)
	assert.Contains(t, string(mul.ABI), "multiply13")
}

func TestRepository_FoundryOutput(t *testing.T) {
	dir := t.TempDir()
	fq := "src/Library13.sol:Library13"
	hashed := linker.HashedPlaceholder(fq)

	write(t, filepath.Join(dir, "Multiply13.sol", "Multiply13.json"), `{
  "abi": [],
  "bytecode": {
    "object": "0x60`+hashed+`",
    "linkReferences": {"src/Library13.sol": {"Library13": [{"start": 1, "length": 20}]}}
  },
  "deployedBytecode": {
    "object": "0x61`+hashed+`",
    "linkReferences": {"src/Library13.sol": {"Library13": [{"start": 1, "length": 20}]}}
  }
}`)
	write(t, filepath.Join(dir, "build-info", "abc.json"), `{"id": "abc", "abi": "skipped"}`)

	table, err := newTestRepository(dir).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	mul, ok := table.Get("Multiply13")
	require.True(t, ok)
	assert.Equal(t, []string{fq}, mul.Libraries)

	names, err := linker.PlaceholderNames(mul.Libraries, mul.Bytecode, mul.BytecodeRuntime)
	require.NoError(t, err)
	assert.Equal(t, []string{fq}, names)
}

func TestRepository_CombinedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combined.json")
	fq := "contracts/Library13.sol:Library13"

	write(t, path, `{
  "contracts": {
    "`+fq+`": {
      "abi": [],
      "bin": "60136000",
      "bin-runtime": "6013"
    },
    "contracts/Multiply13.sol:Multiply13": {
      "abi": [],
      "bin": "60`+linker.HashedPlaceholder(fq)+`",
      "bin-runtime": "61`+linker.HashedPlaceholder(fq)+`"
    }
  },
  "version": "0.8.24+commit.e11b9ed9"
}`)

	table, err := newTestRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Library13", "Multiply13"}, table.Names())

	lib, _ := table.Get("Library13")
	assert.Equal(t, "0x60136000", lib.Bytecode)
	assert.Equal(t, "0x6013", lib.BytecodeRuntime)

	mul, _ := table.Get("Multiply13")
	names, err := linker.PlaceholderNames(mul.Libraries, mul.Bytecode)
	require.NoError(t, err)
	assert.Equal(t, []string{fq}, names)
}

func TestRepository_MissingPath(t *testing.T) {
	_, err := newTestRepository(filepath.Join(t.TempDir(), "missing")).Load(context.Background())
	assert.ErrorContains(t, err, "artifacts not found")
}
