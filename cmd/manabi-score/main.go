// Command manabi-score computes school ICT policy maturity offline, from a
// JSON or YAML profile file or from the bundled demo dataset, without a
// server or database.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
