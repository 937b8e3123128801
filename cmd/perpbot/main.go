package main

import (
	"os"

	"perpbot/cmd/perpbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
