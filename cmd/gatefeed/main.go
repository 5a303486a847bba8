// Package main is the entry point for the gatefeed CLI.
package main

import (
	"os"

	"github.com/gatefeed/gatefeed/cmd/gatefeed/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
