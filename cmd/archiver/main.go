package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"

	"thirdcoast.systems/archiver/internal/application"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, os.Args[1:], colorable.NewColorableStdout(), colorable.NewColorableStderr(), application.Run)
	stop()
	os.Exit(code)
}
