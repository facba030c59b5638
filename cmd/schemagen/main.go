package main

import (
	"os"

	"github.com/teranos/schemagen/cmd/schemagen/commands"
	"github.com/teranos/schemagen/logger"
)

func main() {
	err := commands.NewRootCmd().Execute()
	logger.Cleanup()
	if err != nil {
		commands.PrintError(err)
		os.Exit(commands.ExitCode(err))
	}
}
