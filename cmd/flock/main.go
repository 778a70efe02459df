// Command flock runs simulated admin-paths users under the boomer load
// framework.
package main

import (
	"os"

	"github.com/wesleyorama2/flock/internal/cli"
)

func main() {
	// cobra has already printed the error
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
