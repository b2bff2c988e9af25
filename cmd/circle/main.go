// Package main is the entry point for the circle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/wisdomcircle/circled/internal/circle"
)

var version = "dev"

func main() {
	if err := circle.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
