package main

import (
	"os"

	"github.com/nfrund/causal/cmd/causal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
