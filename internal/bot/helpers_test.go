package bot_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botboard/internal/bot"
	"github.com/edgard/botboard/internal/config"
	"github.com/edgard/botboard/internal/database"
	"github.com/edgard/botboard/internal/telegram"
)

// sentMessage records one outbound send through the fake transport.
type sentMessage struct {
	ChatID   string
	Kind     string
	Text     string
	MediaURL string
	Markup   models.ReplyMarkup
}

// fakeClient implements telegram.Client in memory. Sends to chat ids
// listed in failChats return an error.
type fakeClient struct {
	mu        sync.Mutex
	sent      []sentMessage
	answered  []string
	failChats map[string]bool
	chats     map[string]telegram.ChatInfo
	nextID    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		failChats: make(map[string]bool),
		chats:     make(map[string]telegram.ChatInfo),
	}
}

func (f *fakeClient) Username() string                              { return "botboard_test_bot" }
func (f *fakeClient) StartPolling(ctx context.Context)              { <-ctx.Done() }
func (f *fakeClient) SetWebhook(_ context.Context, _ string) error  { return nil }
func (f *fakeClient) DeleteWebhook(_ context.Context) error         { return nil }

func (f *fakeClient) record(chatID any, kind, text, mediaURL string, markup models.ReplyMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fmt.Sprint(chatID)
	if f.failChats[key] {
		return 0, errors.New("delivery failed")
	}

	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: key, Kind: kind, Text: text, MediaURL: mediaURL, Markup: markup})
	return f.nextID, nil
}

func (f *fakeClient) SendText(_ context.Context, chatID any, text string, markup models.ReplyMarkup) (int, error) {
	return f.record(chatID, database.MessageTypeText, text, "", markup)
}

func (f *fakeClient) SendPhoto(_ context.Context, chatID any, mediaURL, caption string) (int, error) {
	return f.record(chatID, database.MessageTypePhoto, caption, mediaURL, nil)
}

func (f *fakeClient) SendVideo(_ context.Context, chatID any, mediaURL, caption string) (int, error) {
	return f.record(chatID, database.MessageTypeVideo, caption, mediaURL, nil)
}

func (f *fakeClient) SendDocument(_ context.Context, chatID any, mediaURL, caption string) (int, error) {
	return f.record(chatID, database.MessageTypeDocument, caption, mediaURL, nil)
}

func (f *fakeClient) AnswerCallbackQuery(_ context.Context, callbackQueryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackQueryID)
	return nil
}

func (f *fakeClient) GetChat(_ context.Context, chatID any) (*telegram.ChatInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, ok := f.chats[fmt.Sprint(chatID)]
	if !ok {
		return nil, fmt.Errorf("chat %v not found", chatID)
	}
	return &info, nil
}

func (f *fakeClient) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeClient) answeredQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.answered))
	copy(out, f.answered)
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			ScheduleInterval:    time.Minute,
			BroadcastInterval:   0,
			RecentMessagesLimit: config.DefaultRecentMessagesLimit,
			Messages: config.MessagesConfig{
				Welcome:        config.DefaultWelcomeMessage,
				Help:           config.DefaultHelpMessage,
				SettingsMenu:   config.DefaultSettingsMenu,
				About:          config.DefaultAboutMessage,
				UnknownCommand: config.DefaultUnknownCommand,
				StatsError:     config.DefaultStatsError,
			},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService wires a Service to an in-memory store and the fake
// transport, stopped. Call startService to bring it up.
func newTestService(t *testing.T) (*bot.Service, *fakeClient, database.Store) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	client := newFakeClient()

	factory := func(_ context.Context, _ string, _ telegram.UpdateHandler) (telegram.Client, error) {
		return client, nil
	}

	svc := bot.New(discardLogger(), testConfig(), store, factory)
	return svc, client, store
}

func startService(t *testing.T, svc *bot.Service) {
	t.Helper()
	require.NoError(t, svc.Start(context.Background(), "123:test-token", ""))
	t.Cleanup(func() { _ = svc.Stop() })
}

// textUpdate builds an inbound plain text message update.
func textUpdate(userID, chatID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Date: int(time.Now().Unix()),
			From: &models.User{ID: userID, FirstName: "Test", Username: "tester"},
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}
