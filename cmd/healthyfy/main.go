package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hpungsan/healthyfy/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"chat": true, "state": true, "reset": true, "transcript": true,
	"collection": true, "sessions": true, "serve": true, "mcp": true,
	"help": true,
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _                _ _   _            __
  | |__   ___  __ _| | |_| |__  _   _ / _|_   _
  | '_ \ / _ \/ _' | | __| '_ \| | | | |_| | | |
  | | | |  __/ (_| | | |_| | | | |_| |  _| |_| |
  |_| |_|\___|\__,_|_|\__|_| |_|\__, |_|  \__, |
                                |___/     |___/

  Wellness assistant

  Usage: healthyfy chat            interactive chat
         healthyfy <command> [options]
         healthyfy --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	if isCLIMode(os.Args[1:]) {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fmt.Fprintln(os.Stderr, errorMessage(err))
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'healthyfy --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	svc, err := bootstrap(context.Background(), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	err = mcp.Run(svc.sessions, svc.store, svc.cfg, Version)
	svc.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
