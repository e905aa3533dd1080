package main

import (
	"os"

	"github.com/fikri/chatstore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
