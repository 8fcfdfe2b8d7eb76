// Package main provides the entry point for the sondhan CLI.
package main

import (
	"os"

	"github.com/sondhan-search/sondhan/cmd/sondhan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
