package main

import (
	"fmt"
	"os"

	"github.com/bnema/keytap/cmd"
	"golang.design/x/mainthread"
)

func main() {
	// macOS delivers listen events on the main run loop
	mainthread.Init(run)
}

func run() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
