// Package main is the entry point for the jassist CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/jassist/cmd"
	"github.com/danielolaszy/jassist/internal/logging"
)

var version = "dev"

// main executes the root command and exits non-zero on failure.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logging.Debug("starting jassist", "version", version, "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		logging.Debug("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
