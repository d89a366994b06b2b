// Package main is the entry point for the notionmigrate CLI tool.
package main

import (
	"os"

	"github.com/takak2166/notionmigrate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
