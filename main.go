// main.go
// Application entry point: hands off to the mcbridge command.
package main

import (
	"os"

	"github.com/erilali/mcbridge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
