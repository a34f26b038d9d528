package bot

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botboard/internal/database"
)

// HandleUpdate is the single entry point for inbound updates, regardless
// of whether they arrive via long polling or the webhook endpoint.
func (s *Service) HandleUpdate(ctx context.Context, update *models.Update) {
	switch {
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		s.logger.DebugContext(ctx, "Ignoring unsupported update", "update_id", update.ID)
	}
}

// handleMessage records the sender and the message, then routes text
// messages to the command router or the auto-reply matcher.
func (s *Service) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.From == nil {
		s.logger.DebugContext(ctx, "Discarding message without sender", "message_id", msg.ID, "chat_id", msg.Chat.ID)
		return
	}

	user := &database.User{
		TelegramID:   strconv.FormatInt(msg.From.ID, 10),
		Username:     nullString(msg.From.Username),
		FirstName:    msg.From.FirstName,
		LastName:     nullString(msg.From.LastName),
		LanguageCode: nullString(msg.From.LanguageCode),
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert user", "telegram_id", user.TelegramID, "error", err)
		return
	}

	messageType, content := classifyMessage(msg)

	record := &database.Message{
		UserID:            user.ID,
		TelegramMessageID: int64(msg.ID),
		MessageType:       messageType,
		Content:           content,
		IsFromBot:         false,
	}
	if err := s.store.SaveMessage(ctx, record); err != nil {
		// Persistence failure does not block handling the message.
		s.logger.ErrorContext(ctx, "Failed to save message", "user_id", user.ID, "error", err)
	}

	if messageType != database.MessageTypeText {
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		s.dispatchCommand(ctx, msg)
		return
	}

	s.applyAutoReplies(ctx, user, msg)
}

// handleCallbackQuery acknowledges the callback and dispatches its data as
// a menu action. Unrecognized data is acknowledged and dropped.
func (s *Service) handleCallbackQuery(ctx context.Context, query *models.CallbackQuery) {
	client := s.currentClient()
	if client == nil {
		return
	}

	if err := client.AnswerCallbackQuery(ctx, query.ID); err != nil {
		s.logger.WarnContext(ctx, "Failed to answer callback query", "callback_query_id", query.ID, "error", err)
	}

	chatID := callbackChatID(query)
	if chatID == 0 {
		s.logger.DebugContext(ctx, "Callback query without resolvable chat", "callback_query_id", query.ID)
		return
	}

	name := "/" + query.Data
	if query.Data == "main_menu" {
		name = "/start"
	}

	cmd, ok := s.commands[name]
	if !ok {
		s.logger.DebugContext(ctx, "Ignoring unrecognized callback data", "data", query.Data)
		return
	}

	if err := cmd(ctx, chatID, &query.From); err != nil {
		s.logger.ErrorContext(ctx, "Callback action failed", "data", query.Data, "chat_id", chatID, "error", err)
	}
}

// classifyMessage maps a Telegram message onto a stored message type and
// content. Text wins over attachments; attachment types get a synthetic
// content string so every stored row has something to display.
func classifyMessage(msg *models.Message) (string, string) {
	switch {
	case msg.Text != "":
		return database.MessageTypeText, msg.Text
	case len(msg.Photo) > 0:
		return database.MessageTypePhoto, "Photo message"
	case msg.Document != nil:
		if msg.Document.FileName != "" {
			return database.MessageTypeDocument, msg.Document.FileName
		}
		return database.MessageTypeDocument, "Document"
	case msg.Sticker != nil:
		if msg.Sticker.Emoji != "" {
			return database.MessageTypeSticker, msg.Sticker.Emoji
		}
		return database.MessageTypeSticker, "Sticker"
	case msg.Voice != nil:
		return database.MessageTypeVoice, "Voice message"
	case msg.Video != nil:
		return database.MessageTypeVideo, "Video message"
	default:
		return database.MessageTypeText, msg.Text
	}
}

// callbackChatID extracts the chat to answer in, which may come from an
// inaccessible message.
func callbackChatID(query *models.CallbackQuery) int64 {
	if query.Message.Message != nil {
		return query.Message.Message.Chat.ID
	}
	if query.Message.InaccessibleMessage != nil {
		return query.Message.InaccessibleMessage.Chat.ID
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
