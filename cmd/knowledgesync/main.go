package main

import (
	"context"
	"os"

	"github.com/prodpulse/knowledgesync/cmd/knowledgesync/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
