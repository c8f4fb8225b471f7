package main

import (
	"os"

	"holdings/internal/cli"
	"holdings/internal/commands"
)

func main() {
	cli.LoadEnvFile()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
