package main

import (
	"os"

	"github.com/transitworks/paxassign/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
