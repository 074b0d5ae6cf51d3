package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"punchcard.org/core/log"
	"punchcard.org/core/server"
)

func main() {
	cmd := &cli.Command{
		Name:  "punchcard",
		Usage: "per-year habit tracking grids",
		Commands: []*cli.Command{
			server.Command(),
		},
	}

	ctx := context.Background()
	logger := log.New("punchcard")
	ctx = log.IntoContext(ctx, logger)

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(-1)
	}
}
