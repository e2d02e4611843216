package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"slidescribe/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(1)
	}
}

// formatError prefixes err with its failure class so scripts can tell a bad
// flag from a broken ffmpeg install.
func formatError(err error) string {
	return fmt.Sprintf("Error (%s): %v", services.Classify(err), err)
}
