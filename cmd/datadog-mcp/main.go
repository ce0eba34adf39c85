// datadog-mcp: read-only Datadog MCP server.
//
// Exposes Datadog monitors and logs to any MCP host (Claude Code,
// OpenCode, Gemini CLI, Codex, Cursor, VS Code Copilot) through a
// single dispatcher tool with JSON envelope responses.
//
// Usage:
//
//	datadog-mcp serve      # Start MCP server (stdio transport)
//	datadog-mcp audit [n]  # Print the n most recent journaled dispatches
//	datadog-mcp update     # Update to the latest version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sreloop/datadog-mcp/internal/audit"
	"github.com/sreloop/datadog-mcp/internal/config"
	ddserver "github.com/sreloop/datadog-mcp/internal/server"
	"github.com/sreloop/datadog-mcp/internal/updater"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "audit":
		if err := runAudit(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("datadog-mcp v%s\n", ddserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	// Best-effort .env load; running without one is normal.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	s, cleanup := ddserver.New(cfg)
	defer cleanup()

	// Background version check prints to stderr so it does not
	// interfere with the stdio transport on stdout.
	go checkForUpdates()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runAudit prints recent journal entries without starting the server.
// It needs no Datadog credentials since the journal is local.
func runAudit(args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("audit limit must be a positive integer, got %q", args[0])
		}
		limit = n
	}

	cfg, err := config.AuditSettings()
	if err != nil {
		return err
	}
	if cfg.AuditDisabled {
		return errors.New("the audit journal is disabled in the settings file")
	}

	journal, err := audit.New(cfg.AuditDir)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	dispatches, err := journal.Recent("", limit)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(dispatches, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. This runs in a goroutine during
// "serve" and is best-effort; network failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(ddserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: datadog-mcp update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(ddserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(ddserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart datadog-mcp to use the new version.\n")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `datadog-mcp v%s — read-only Datadog MCP server

Usage:
  datadog-mcp serve      Start the MCP server (stdio transport)
  datadog-mcp audit [n]  Print the n most recent journaled dispatches (default 20)
  datadog-mcp update     Update to the latest version

Environment:
  DATADOG_API_KEY     Datadog API key (required for serve)
  DATADOG_APP_KEY     Datadog application key (required for serve)
  DATADOG_SITE        Datadog site, e.g. datadoghq.eu (default datadoghq.com)
  DATADOG_MCP_CONFIG  Path to an optional YAML settings file

  A .env file in the working directory is loaded automatically.

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "datadog": {
        "command": "datadog-mcp",
        "args": ["serve"],
        "env": {
          "DATADOG_API_KEY": "<api key>",
          "DATADOG_APP_KEY": "<app key>"
        }
      }
    }
  }

Learn more: https://github.com/sreloop/datadog-mcp
`, ddserver.Version)
}
