// Command purestore inspects and edits a purestore backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unkn0wn-root/purestore/internal/cli"
	"github.com/unkn0wn-root/purestore/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := cli.Main(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		config.Exitf("purestore: %v", err)
	}
}
