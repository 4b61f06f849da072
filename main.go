// The main package for the edeska executable.
package main

import (
	"os"

	"github.com/chudst/edeska-harvester/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
