package main

import (
	"fmt"
	"log"

	"github.com/voidkat/voidkat/internal/app"
)

var (
	version   string
	buildTime string
)

func main() {
	fmt.Printf("voidkat %s (built %s)\n", version, buildTime)

	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	if err := application.Start(); err != nil {
		application.Logger.WithError(err).Fatal("Bot failed")
	}
	application.WaitForShutdown()
}
