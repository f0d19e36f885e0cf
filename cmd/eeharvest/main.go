package main

import (
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/canopysat/eeharvest/internal/notification"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// Credentials and webhook urls may come from a local .env.
	_ = godotenv.Load()

	godal.RegisterAll()

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %s", err.Error())
		if nerr := notification.SendDiscordErrorNotification(fmt.Sprintf("eeharvest failed: %s", err.Error())); nerr != nil {
			color.Red("Failed to send notification: %s", nerr.Error())
		}
		os.Exit(1)
	}
}
