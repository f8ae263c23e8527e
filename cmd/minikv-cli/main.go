package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/yndnr/minikv/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		// Error replies are already printed.
		if !errors.Is(err, command.ErrErrorReply) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
