package main

import (
	"os"

	"github.com/garyjia/billcraft/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
