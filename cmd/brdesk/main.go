package main

import (
	"os"

	"github.com/buker/brdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
