package main

import (
	"os"

	"github.com/adam936936/bagua-ai/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
