// Package main is the entry point for the engagectl CLI.
package main

import (
	"os"

	"github.com/ignite/engagement-analytics/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
