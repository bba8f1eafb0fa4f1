// Package main is the entry point for cutterd.
package main

import (
	"os"

	"github.com/finnhorvath/cutterd/cmd/cutterd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
