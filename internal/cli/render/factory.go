package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// FactoryRenderer renders a linked contract factory
type FactoryRenderer struct {
	out io.Writer
	// Full prints the complete bytecode instead of a size summary
	Full bool
}

// NewFactoryRenderer creates a new factory renderer
func NewFactoryRenderer(out io.Writer, full bool) *FactoryRenderer {
	return &FactoryRenderer{out: out, Full: full}
}

// Render displays the factory and where each linked address came from
func (r *FactoryRenderer) Render(result *usecase.ShowContractFactoryResult) error {
	factory := result.Factory

	color.New(color.Bold).Fprintf(r.out, "Contract factory: ")
	color.New(color.FgCyan, color.Bold).Fprintln(r.out, factory.Name)

	if !result.Linked {
		color.New(color.FgHiBlack).Fprintln(r.out, "No link dependencies, bytecode is taken from the artifact as is")
	} else {
		fmt.Fprintln(r.out)
		t := newTable()
		t.AppendHeader(table.Row{"Dependency", "Address", "Source"})
		for _, dep := range factory.Dependencies {
			t.AppendRow(table.Row{dep.Name, dep.Address.Hex(), titleCase(string(dep.Provenance))})
		}
		fmt.Fprintln(r.out, t.Render())
	}

	fmt.Fprintln(r.out)
	r.renderCode("Bytecode", factory.Bytecode)
	r.renderCode("Runtime", factory.BytecodeRuntime)
	return nil
}

func (r *FactoryRenderer) renderCode(label, code string) {
	if r.Full {
		fmt.Fprintf(r.out, "%s:\n%s\n", label, code)
		return
	}
	size := len(code)
	if len(code) >= 2 && code[:2] == "0x" {
		size -= 2
	}
	fmt.Fprintf(r.out, "%s: %d bytes\n", label, size/2)
}

// Ensure FactoryRenderer implements Renderer
var _ Renderer[*usecase.ShowContractFactoryResult] = (*FactoryRenderer)(nil)
