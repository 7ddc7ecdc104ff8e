package line

import (
	"context"
	"fmt"
	"medreminder/internal/pkg/logger"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Client wraps the linebot.Client.
type Client struct {
	*linebot.Client
	log logger.Logger
}

// NewClient creates a LINE Messaging API client from channel credentials.
func NewClient(channelSecret, channelToken string, log logger.Logger) (*Client, error) {
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{Client: bot, log: log}, nil
}

// Send pushes a reminder to the LINE user id target.
func (c *Client) Send(ctx context.Context, target, title, body string) error {
	text := fmt.Sprintf("%s\n%s", title, body)
	if _, err := c.PushMessage(target, linebot.NewTextMessage(text)).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("line push to %s: %w", target, err)
	}
	c.log.Debug(fmt.Sprintf("Successfully pushed reminder to LINE user %s.", target))
	return nil
}

// SendMessages sends one or more messages using the ReplyMessage API.
func (c *Client) SendMessages(replyToken string, messages ...linebot.SendingMessage) error {
	_, err := c.ReplyMessage(replyToken, messages...).Do()
	if err != nil {
		return err
	}
	c.log.Debug("Successfully sent reply message.")
	return nil
}

// ParseRequest parses incoming webhook requests.
func (c *Client) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return c.Client.ParseRequest(r)
}
