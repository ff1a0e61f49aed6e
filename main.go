// Package main provides the chkodf CLI entrypoint.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fmjrey/chkodf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrLinksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
