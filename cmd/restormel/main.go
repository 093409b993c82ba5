package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/restormel-dev/restormel/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return cli.ExecuteContext(ctx)
}
