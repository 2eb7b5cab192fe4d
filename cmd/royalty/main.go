package main

import (
	"os"

	"SplitLedger/cmd/royalty/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
