package main

import (
	"os"

	"github.com/matthewbaird/filtereditor/cmd/filterd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
