package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pagemill/internal/pipeline"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, pipeline.ErrInterrupted) && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps run outcomes to process exit statuses: 130 for interruption
// so shells see the conventional SIGINT status, 2 when planning itself
// failed, 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrInterrupted), errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, pipeline.ErrUniverse):
		return 2
	default:
		return 1
	}
}
