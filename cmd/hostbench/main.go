package main

import (
	"fmt"
	"os"

	"github.com/psantana5/hostbench/cmd/hostbench/cmd"
)

var version = "v0.3.0"

func main() {
	if err := cmd.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
