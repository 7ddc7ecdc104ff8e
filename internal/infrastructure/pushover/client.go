package pushover

import (
	"context"
	"fmt"
	"medreminder/internal/pkg/logger"

	"github.com/gregdel/pushover"
)

// Client delivers reminders through the Pushover API.
type Client struct {
	app *pushover.Pushover
	log logger.Logger
}

// NewClient creates a Pushover client for the application token.
func NewClient(apiToken string, log logger.Logger) *Client {
	return &Client{app: pushover.New(apiToken), log: log}
}

// Send delivers title/body to the Pushover user or group key target.
func (c *Client) Send(_ context.Context, target, title, body string) error {
	message := pushover.NewMessageWithTitle(body, title)
	message.Priority = pushover.PriorityHigh

	if _, err := c.app.SendMessage(message, pushover.NewRecipient(target)); err != nil {
		return fmt.Errorf("pushover send: %w", err)
	}
	c.log.Debug("Successfully sent Pushover reminder.")
	return nil
}
