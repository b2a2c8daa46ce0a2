package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"GridPulse/internal/di"
	"GridPulse/internal/usecase"
	"GridPulse/pkg/config"
	"GridPulse/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [stage]\n\nstages: %s, %s\n",
			os.Args[0], strings.Join(usecase.Stages(), ", "), server.StageServe)
		flag.PrintDefaults()
	}
	flag.Parse()

	stage := usecase.StageAll
	if flag.NArg() > 0 {
		stage = flag.Arg(0)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	runErr := app.Run(context.Background(), stage)
	if err := app.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	if runErr != nil {
		log.Printf("app error: %v", runErr)
		os.Exit(1)
	}
}
