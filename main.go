package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"immunoscope/app"
	"immunoscope/internal/config"
	"immunoscope/internal/container"

	"github.com/joho/godotenv"
)

// main runs the pipeline once with configuration taken from the environment
// (and .env when present). See cmd/cli for the flag-driven interface.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := container.New(appConfig, nil)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer c.Close()

	if err := c.InitWithDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialise run ledger: %v", err)
	}

	run, err := c.Pipeline.Run(ctx, appConfig.Cohort, app.PipelineOptions{
		Panel:      appConfig.Signature.MarkerPanel,
		ExportFile: appConfig.Output.ExportFile,
	})
	if run != nil {
		fmt.Print(app.RenderText(run))
	}
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if appConfig.Output.ReportHTML != "" {
		if err := app.WriteHTMLReport(appConfig.Output.ReportHTML, run); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	}
}
