package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// dispatchCommand routes a slash command to its handler. The command name
// is the first whitespace-separated token, lowercased, so "/HELP now" and
// "/help" hit the same handler.
func (s *Service) dispatchCommand(ctx context.Context, msg *models.Message) {
	name := strings.ToLower(strings.Fields(msg.Text)[0])

	cmd, ok := s.commands[name]
	if !ok {
		if err := s.send(ctx, msg.Chat.ID, s.cfg.Bot.Messages.UnknownCommand, nil); err != nil {
			s.logger.ErrorContext(ctx, "Failed to send unknown-command reply", "chat_id", msg.Chat.ID, "error", err)
		}
		return
	}

	if err := cmd(ctx, msg.Chat.ID, msg.From); err != nil {
		s.logger.ErrorContext(ctx, "Command handler failed", "command", name, "chat_id", msg.Chat.ID, "error", err)
	}
}

// sendWelcome answers /start with the stored welcome message and the main
// menu keyboard.
func (s *Service) sendWelcome(ctx context.Context, chatID int64, _ *models.User) error {
	text := s.settingOrDefault(ctx, SettingWelcomeMessage, s.cfg.Bot.Messages.Welcome)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📋 Help", CallbackData: "help"},
				{Text: "⚙️ Settings", CallbackData: "settings"},
			},
			{
				{Text: "📊 Stats", CallbackData: "stats"},
				{Text: "ℹ️ About", CallbackData: "about"},
			},
		},
	}

	return s.send(ctx, chatID, text, keyboard)
}

// sendHelp answers /help with the stored help message.
func (s *Service) sendHelp(ctx context.Context, chatID int64, _ *models.User) error {
	text := s.settingOrDefault(ctx, SettingHelpMessage, s.cfg.Bot.Messages.Help)
	return s.send(ctx, chatID, text, nil)
}

// sendSettingsMenu shows the per-user settings submenu.
func (s *Service) sendSettingsMenu(ctx context.Context, chatID int64, _ *models.User) error {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔔 Notifications", CallbackData: "settings_notifications"},
				{Text: "🌐 Language", CallbackData: "settings_language"},
			},
			{
				{Text: "⬅️ Back to Menu", CallbackData: "main_menu"},
			},
		},
	}

	return s.send(ctx, chatID, s.cfg.Bot.Messages.SettingsMenu, keyboard)
}

// sendUserStats answers /stats with the sender's activity summary.
func (s *Service) sendUserStats(ctx context.Context, chatID int64, from *models.User) error {
	if from == nil {
		return s.send(ctx, chatID, s.cfg.Bot.Messages.StatsError, nil)
	}

	user, err := s.store.GetUserByTelegramID(ctx, strconv.FormatInt(from.ID, 10))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load user stats", "telegram_id", from.ID, "error", err)
		return s.send(ctx, chatID, s.cfg.Bot.Messages.StatsError, nil)
	}

	memberSince, lastActive := "Unknown", "Unknown"
	if user != nil {
		memberSince = user.CreatedAt.Format("2006-01-02")
		lastActive = user.LastActive.Format("2006-01-02 15:04")
	}

	text := fmt.Sprintf("📊 Your Statistics:\n\n👤 Member since: %s\n🕒 Last active: %s", memberSince, lastActive)
	return s.send(ctx, chatID, text, nil)
}

// sendAbout answers /about with the static bot description.
func (s *Service) sendAbout(ctx context.Context, chatID int64, _ *models.User) error {
	return s.send(ctx, chatID, s.cfg.Bot.Messages.About, nil)
}
