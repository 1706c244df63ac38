package main

import (
	"os"

	"github.com/tagwarden/tagwarden/cmd/tagwarden/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
