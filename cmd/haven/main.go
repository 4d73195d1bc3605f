package main

import (
	"os"

	"github.com/haven-oss/haven/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
