package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"chirp/internal/apperr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chirp:", err)
	}
	os.Exit(apperr.ExitCode(err))
}
