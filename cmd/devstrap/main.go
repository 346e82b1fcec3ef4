// Command devstrap bootstraps and runs the WhatsApp AI Integration
// development environment.
package main

import (
	"os"

	"github.com/Iron-Ham/devstrap/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
