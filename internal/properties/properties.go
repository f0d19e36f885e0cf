package properties

import "os"

// DataDir is the base directory for cached API responses. Defaults to the
// working directory when EEHARVEST_DATA is unset.
func DataDir() string {
	if dir := os.Getenv("EEHARVEST_DATA"); dir != "" {
		return dir
	}
	return "."
}

func ServiceAccountKeyPath() string {
	return os.Getenv("EE_SERVICE_ACCOUNT_KEY")
}

func DefaultProject() string {
	return os.Getenv("EE_PROJECT")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
