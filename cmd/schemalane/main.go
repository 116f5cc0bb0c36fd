// Command schemalane is the standalone CLI for the Schemalane migration
// engine. It is a thin wrapper over package schemalane: every verb below
// parses flags and calls straight into the library; all verbs but init
// build a schemalane.Config first.
package main

import (
	"fmt"
	"os"
)

var commands = map[string]func([]string) int{
	"migrate": runMigrate,
}

func usage() {
	fmt.Fprintf(os.Stderr, `schemalane - forward-only PostgreSQL schema migration toolkit

Usage:
  schemalane migrate <init|up|status|fresh> [options]

Run 'schemalane migrate <verb> -h' for verb-specific help.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(1)
	}

	os.Exit(cmd(os.Args[2:]))
}
