package main

import (
	"fmt"
	"os"

	"github.com/trebuchet-org/treb-migrate/internal/cli"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render.FormatError(err.Error()))
		os.Exit(1)
	}
}
