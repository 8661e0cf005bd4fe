package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/blobcount/internal/config"
	"github.com/ironsheep/blobcount/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("blobcount-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("blobcount-mcp - MCP server for counting objects in images")
			fmt.Println()
			fmt.Println("Usage: blobcount-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  BLOBCOUNT_CONFIG=path        YAML config file (default blobcount.yaml)")
			fmt.Println("  BLOBCOUNT_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println("  BLOBCOUNT_*                  Override any config setting")
			fmt.Println()
			fmt.Println("Variables are also read from a .env file in the working directory.")
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "blobcount-mcp: %v\n", err)
		os.Exit(1)
	}
	path := os.Getenv(config.EnvPrefix + "CONFIG")
	if path == "" {
		path = "blobcount.yaml"
	}
	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "blobcount-mcp: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr; stdout is for MCP protocol
	logger, err := config.NewLogger(cfg.Logging, false, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blobcount-mcp: %v\n", err)
		os.Exit(1)
	}
	if _, err := cfg.Segmentation(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.WithField("commit", GitCommit).Debugf("blobcount MCP server %s (built %s)", Version, BuildTime)

	server.Version = Version
	srv := server.New(cfg, logger)
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
