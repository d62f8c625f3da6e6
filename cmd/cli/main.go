package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ibalodis/fieldsignal/internal/client/cli"
	"github.com/ibalodis/fieldsignal/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup error:", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
