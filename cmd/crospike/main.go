package main

import (
	"os"

	"crospike/cmd/crospike/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
