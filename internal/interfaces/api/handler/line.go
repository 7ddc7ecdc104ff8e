package handler

import (
	"context"
	"errors"
	"fmt"
	"medreminder/internal/application/dto"
	"medreminder/internal/application/service"
	"medreminder/internal/domain/constant"
	"medreminder/internal/pkg/logger"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// LineMessenger is the part of the LINE client the webhook needs.
type LineMessenger interface {
	ParseRequest(r *http.Request) ([]*linebot.Event, error)
	SendMessages(replyToken string, messages ...linebot.SendingMessage) error
}

// LineHandler handles incoming LINE webhook events. A LINE user is its own
// owner: following the bot registers a line device for that user id.
type LineHandler struct {
	lineClient LineMessenger
	devices    service.DeviceService
	scheduler  service.ReminderScheduler
	log        logger.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(
	lineClient LineMessenger,
	devices service.DeviceService,
	scheduler service.ReminderScheduler,
	log logger.Logger,
) *LineHandler {
	return &LineHandler{
		lineClient: lineClient,
		devices:    devices,
		scheduler:  scheduler,
		log:        log,
	}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	for _, event := range events {
		h.log.Info(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypeFollow:
			h.handleFollowEvent(ctx, event)
		case linebot.EventTypeUnfollow:
			h.handleUnfollowEvent(ctx, event)
		case linebot.EventTypeMessage:
			h.handleMessageEvent(ctx, event)
		default:
			h.log.Info(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}

	return c.String(http.StatusOK, "OK")
}

func lineDevice(userID string) dto.DeviceRequest {
	return dto.DeviceRequest{Provider: string(constant.ProviderLine), Target: userID}
}

// handleFollowEvent registers the follower as a delivery target.
func (h *LineHandler) handleFollowEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	h.log.Info(fmt.Sprintf("User %s followed the bot.", userID))

	if _, err := h.devices.Register(ctx, userID, lineDevice(userID)); err != nil {
		// Error already logged by service
		h.reply(event.ReplyToken, "Could not register this account for reminders. Please block and re-add the bot.")
		return
	}

	h.reply(event.ReplyToken,
		"Medication reminders will be delivered to this chat.",
		fmt.Sprintf("Your owner id is %s. Send \"list\" to see your active medications.", userID),
	)
}

// handleUnfollowEvent removes the delivery target. No reply is possible.
func (h *LineHandler) handleUnfollowEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	h.log.Info(fmt.Sprintf("User %s unfollowed or blocked the bot.", userID))
	_ = h.devices.Unregister(ctx, userID, lineDevice(userID))
}

// handleMessageEvent answers the "list" and "id" text commands.
func (h *LineHandler) handleMessageEvent(ctx context.Context, event *linebot.Event) {
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}
	userID := event.Source.UserID

	switch strings.ToLower(strings.TrimSpace(message.Text)) {
	case "list":
		h.reply(event.ReplyToken, h.describeMedications(ctx, userID))
	case "id":
		h.reply(event.ReplyToken, userID)
	default:
		h.reply(event.ReplyToken, "Commands: \"list\" shows your active medications, \"id\" shows your owner id.")
	}
}

func (h *LineHandler) describeMedications(ctx context.Context, ownerID string) string {
	feed, err := h.scheduler.ListActive(ctx, ownerID)
	if err != nil {
		return "Could not load your medications right now."
	}
	defer feed.Stop()

	var list []string
	select {
	case medications := <-feed.C():
		for _, m := range medications {
			if !m.IsActive {
				continue
			}
			at := make([]string, len(m.Schedule))
			for i, t := range m.Schedule {
				at[i] = t.String()
			}
			list = append(list, fmt.Sprintf("%s (%s, %s) at %s", m.Name, m.Kind, m.Dose, strings.Join(at, ", ")))
		}
	case <-time.After(5 * time.Second):
		return "Could not load your medications right now."
	}

	if len(list) == 0 {
		return "You have no active medications."
	}
	return strings.Join(list, "\n")
}

func (h *LineHandler) reply(replyToken string, texts ...string) {
	if replyToken == "" {
		return
	}
	messages := make([]linebot.SendingMessage, len(texts))
	for i, t := range texts {
		messages[i] = linebot.NewTextMessage(t)
	}
	if err := h.lineClient.SendMessages(replyToken, messages...); err != nil {
		h.log.Error("Failed to send LINE reply", err)
	}
}
