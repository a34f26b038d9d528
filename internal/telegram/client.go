// Package telegram implements the chat transport capability on top of the
// go-telegram/bot library. The bot core depends only on the Client
// interface, so tests can substitute a fake transport.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ChatInfo is the resolved metadata of a chat the bot can reach.
type ChatInfo struct {
	ID    int64
	Type  string
	Title string
}

// UpdateHandler receives one inbound update at a time.
type UpdateHandler func(ctx context.Context, update *models.Update)

// Client is the abstract transport capability the bot core depends on.
// Chat identifiers are passed through as-is: an int64 for direct chats or a
// string ("@name" or a numeric id) for channels.
type Client interface {
	// Username returns the bot account's username.
	Username() string

	// StartPolling runs the long-poll update loop until ctx is canceled.
	StartPolling(ctx context.Context)

	// SetWebhook switches the transport to push mode, delivering updates to url.
	SetWebhook(ctx context.Context, url string) error

	// DeleteWebhook removes a previously configured webhook.
	DeleteWebhook(ctx context.Context) error

	SendText(ctx context.Context, chatID any, text string, markup models.ReplyMarkup) (int, error)
	SendPhoto(ctx context.Context, chatID any, mediaURL, caption string) (int, error)
	SendVideo(ctx context.Context, chatID any, mediaURL, caption string) (int, error)
	SendDocument(ctx context.Context, chatID any, mediaURL, caption string) (int, error)

	// AnswerCallbackQuery acknowledges a callback to dismiss the client-side
	// loading state.
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error

	// GetChat resolves chat metadata, failing when the bot has no access.
	GetChat(ctx context.Context, chatID any) (*ChatInfo, error)
}

// client implements Client using the go-telegram/bot library.
type client struct {
	bot      *tgbot.Bot
	username string
	logger   *slog.Logger
}

// NewClient connects to the Telegram API with the given token and registers
// onUpdate as the sink for every inbound update. Token validation happens
// here: a rejected token fails construction.
func NewClient(ctx context.Context, token string, logger *slog.Logger, onUpdate UpdateHandler, middlewares ...tgbot.Middleware) (Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_client")

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			onUpdate(ctx, update)
		}),
	}
	if len(middlewares) > 0 {
		opts = append(opts, tgbot.WithMiddlewares(middlewares...))
	}

	b, err := tgbot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "bot_id", me.ID, "bot_username", me.Username)

	return &client{
		bot:      b,
		username: me.Username,
		logger:   log,
	}, nil
}

func (c *client) Username() string {
	return c.username
}

func (c *client) StartPolling(ctx context.Context) {
	c.logger.Info("Starting long-poll update loop")
	c.bot.Start(ctx)
	c.logger.Info("Long-poll update loop stopped")
}

func (c *client) SetWebhook(ctx context.Context, url string) error {
	ok, err := c.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: url})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("telegram rejected webhook url %q", url)
	}
	c.logger.Info("Webhook configured", "url", url)
	return nil
}

func (c *client) DeleteWebhook(ctx context.Context) error {
	if _, err := c.bot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

func (c *client) SendText(ctx context.Context, chatID any, text string, markup models.ReplyMarkup) (int, error) {
	msg, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send message to chat %v: %w", chatID, err)
	}
	return msg.ID, nil
}

func (c *client) SendPhoto(ctx context.Context, chatID any, mediaURL, caption string) (int, error) {
	msg, err := c.bot.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: mediaURL},
		Caption: caption,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send photo to chat %v: %w", chatID, err)
	}
	return msg.ID, nil
}

func (c *client) SendVideo(ctx context.Context, chatID any, mediaURL, caption string) (int, error) {
	msg, err := c.bot.SendVideo(ctx, &tgbot.SendVideoParams{
		ChatID:  chatID,
		Video:   &models.InputFileString{Data: mediaURL},
		Caption: caption,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send video to chat %v: %w", chatID, err)
	}
	return msg.ID, nil
}

func (c *client) SendDocument(ctx context.Context, chatID any, mediaURL, caption string) (int, error) {
	msg, err := c.bot.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileString{Data: mediaURL},
		Caption:  caption,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send document to chat %v: %w", chatID, err)
	}
	return msg.ID, nil
}

func (c *client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	if _, err := c.bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
	}); err != nil {
		return fmt.Errorf("failed to answer callback query %s: %w", callbackQueryID, err)
	}
	return nil
}

func (c *client) GetChat(ctx context.Context, chatID any) (*ChatInfo, error) {
	chat, err := c.bot.GetChat(ctx, &tgbot.GetChatParams{ChatID: chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chat %v: %w", chatID, err)
	}
	return &ChatInfo{
		ID:    chat.ID,
		Type:  string(chat.Type),
		Title: chat.Title,
	}, nil
}
