// Command optimatime runs the day-planning engine's HTTP API and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/optimatime/optimatime/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
