package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/yunwei-afs/datascreen/internal/cli"
	"github.com/yunwei-afs/datascreen/pkg/dataset"
	"github.com/yunwei-afs/datascreen/pkg/screen"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the fatal error kinds to distinct codes so callers
// can tell a missing input from a bad format or a misused session.
func exitCode(err error) int {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		return 2
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return 3
	case errors.Is(err, screen.ErrNoData), errors.Is(err, screen.ErrNoRules):
		return 4
	}
	return 1
}
