// Command volli-vault demonstrates the offline identity vault and
// emergency-access manager: creating an identity, taking a portable
// backup, recovering it by passphrase, and walking through an emergency
// session activation. Subcommands are dispatched with plain flags and
// a small switch, no CLI framework.
package main

import (
	"fmt"
	"os"

	pkgversion "github.com/volli/core/pkg/version"
)

// Build-time variables (set via -ldflags).
var (
	version   = ""
	buildTime = "unknown"
	gitCommit = "unknown"
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		demoCommand()
	case "version":
		fmt.Printf("volli-vault version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`volli-vault - Hybrid Post-Quantum Identity Vault Demo

USAGE:
    volli-vault <command>

COMMANDS:
    demo      Create an identity, back it up, recover it, and walk an
              emergency-access session through activation and termination
    version   Print version information
    help      Show this help message`)
}
