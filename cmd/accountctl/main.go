package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/aussiebroadwan/accountd/internal/accountctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &accountctl.CLI{
		In:       os.Stdin,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Password: os.Getenv("ACCOUNTD_PASSWORD"),
	}

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, accountctl.ErrUsage) {
			fmt.Fprintln(os.Stderr, "accountctl:", err)
		}
		os.Exit(1)
	}
}
