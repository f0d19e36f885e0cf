package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/canopysat/eeharvest/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// SendDiscordErrorNotification posts an error embed to the configured
// webhook. A no-op when DISCORD_ERROR_NOTIFICATION_URL is unset.
func SendDiscordErrorNotification(errorMessage string) error {
	url := properties.DiscordErrorNotificationUrl()
	if url == "" {
		return nil
	}
	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "Harvest failed",
				Description: errorMessage,
				Color:       16711680, // Red
			},
		},
	}
	return send(url, message)
}

// SendDiscordSuccessNotification posts a success embed to the configured
// webhook. A no-op when DISCORD_SUCCESS_NOTIFICATION_URL is unset.
func SendDiscordSuccessNotification(successMessage string) error {
	url := properties.DiscordSuccessNotificationUrl()
	if url == "" {
		return nil
	}
	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "Harvest finished",
				Description: successMessage,
				Color:       65280, // Green
			},
		},
	}
	return send(url, message)
}

func send(url string, message DiscordMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
