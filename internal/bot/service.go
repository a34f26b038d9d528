// Package bot implements the core of BotBoard: transport lifecycle,
// update handling, command routing, auto-replies, channel posting,
// scheduled post processing, and broadcasts. The package talks to
// Telegram only through the telegram.Client interface and to SQLite only
// through the database.Store interface.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"github.com/edgard/botboard/internal/config"
	"github.com/edgard/botboard/internal/database"
	"github.com/edgard/botboard/internal/logger"
	"github.com/edgard/botboard/internal/telegram"
)

// Well-known settings keys managed through the admin API.
const (
	SettingBotToken       = "bot_token"
	SettingWebhookURL     = "webhook_url"
	SettingWelcomeMessage = "welcome_message"
	SettingHelpMessage    = "help_message"
)

var (
	// ErrNotRunning is returned by operations that need a live transport
	// while the bot is stopped.
	ErrNotRunning = errors.New("bot transport is not running")

	// ErrNoToken is returned when a start is requested without a bot token.
	ErrNoToken = errors.New("bot token is not configured")
)

// ClientFactory builds a transport client for a token. The default factory
// dials Telegram; tests inject a fake.
type ClientFactory func(ctx context.Context, token string, onUpdate telegram.UpdateHandler) (telegram.Client, error)

// Status describes the current transport state.
type Status struct {
	Running bool          `json:"running"`
	Uptime  time.Duration `json:"uptime"`
}

// commandFunc handles one slash command or callback action for a chat.
type commandFunc func(ctx context.Context, chatID int64, from *models.User) error

// Service owns the bot runtime. All lifecycle transitions are serialized
// by mu, so concurrent Start and Stop calls cannot interleave.
type Service struct {
	logger    *slog.Logger
	cfg       *config.Config
	store     database.Store
	newClient ClientFactory
	limiter   *rate.Limiter
	rules     *ruleMatcher
	commands  map[string]commandFunc

	mu        sync.Mutex
	client    telegram.Client
	cancel    context.CancelFunc
	scheduler gocron.Scheduler
	webhook   bool
	startedAt time.Time
}

// New creates a stopped Service. Pass a nil factory to use the real
// Telegram transport.
func New(log *slog.Logger, cfg *config.Config, store database.Store, factory ClientFactory) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		logger:    log.With("component", "bot"),
		cfg:       cfg,
		store:     store,
		newClient: factory,
		limiter:   rate.NewLimiter(rate.Every(cfg.Bot.BroadcastInterval), 1),
		rules:     newRuleMatcher(),
	}
	if s.newClient == nil {
		s.newClient = func(ctx context.Context, token string, onUpdate telegram.UpdateHandler) (telegram.Client, error) {
			return telegram.NewClient(ctx, token, log, onUpdate, logger.Middleware(log))
		}
	}
	s.commands = map[string]commandFunc{
		"/start":    s.sendWelcome,
		"/help":     s.sendHelp,
		"/settings": s.sendSettingsMenu,
		"/stats":    s.sendUserStats,
		"/about":    s.sendAbout,
	}
	return s
}

// Start brings the transport up with the given token. When the bot is
// already running it is stopped first, so Start doubles as restart. With a
// webhook URL updates arrive via the HTTP webhook endpoint, otherwise a
// long-poll loop runs in the background. The due-post scheduler starts
// together with the transport.
func (s *Service) Start(ctx context.Context, token, webhookURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return ErrNoToken
	}

	if s.client != nil {
		s.logger.InfoContext(ctx, "Bot already running, restarting")
		s.stopLocked()
	}

	// The run context outlives the Start call; it is canceled by Stop.
	runCtx, cancel := context.WithCancel(context.Background())

	client, err := s.newClient(runCtx, token, s.HandleUpdate)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to initialize bot transport: %w", err)
	}

	if webhookURL != "" {
		if err := client.SetWebhook(runCtx, webhookURL); err != nil {
			cancel()
			return fmt.Errorf("failed to configure webhook: %w", err)
		}
		s.webhook = true
	} else {
		s.webhook = false
		go client.StartPolling(runCtx)
	}

	scheduler, err := s.startScheduler(runCtx)
	if err != nil {
		cancel()
		return err
	}

	s.client = client
	s.cancel = cancel
	s.scheduler = scheduler
	s.startedAt = time.Now()

	mode := "polling"
	if s.webhook {
		mode = "webhook"
	}
	s.logger.InfoContext(ctx, "Bot started", "mode", mode, "bot_username", client.Username())
	return nil
}

// StartFromSettings starts the bot with the token and webhook URL stored
// in settings.
func (s *Service) StartFromSettings(ctx context.Context) error {
	token, err := s.store.GetSetting(ctx, SettingBotToken)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoToken
	}

	webhookURL, err := s.store.GetSetting(ctx, SettingWebhookURL)
	if err != nil {
		return err
	}

	return s.Start(ctx, token, webhookURL)
}

// Stop shuts the transport and the scheduler down. Stopping a bot that
// never started is a no-op.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		s.logger.Debug("Stop requested but bot is not running")
		return nil
	}

	s.stopLocked()
	return nil
}

// stopLocked tears the running transport down. Callers must hold mu.
func (s *Service) stopLocked() {
	if s.webhook {
		if err := s.client.DeleteWebhook(context.Background()); err != nil {
			s.logger.Warn("Failed to delete webhook during stop", "error", err)
		}
	}

	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Warn("Failed to shut down scheduler", "error", err)
		}
		s.scheduler = nil
	}

	s.cancel()
	s.cancel = nil
	s.client = nil
	s.webhook = false

	s.logger.Info("Bot stopped")
}

// Status reports whether the transport is up and for how long.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return Status{}
	}
	return Status{Running: true, Uptime: time.Since(s.startedAt)}
}

// currentClient returns the live transport, or nil while stopped.
func (s *Service) currentClient() telegram.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// send delivers a text message through the live transport.
func (s *Service) send(ctx context.Context, chatID any, text string, markup models.ReplyMarkup) error {
	client := s.currentClient()
	if client == nil {
		return ErrNotRunning
	}
	_, err := client.SendText(ctx, chatID, text, markup)
	return err
}

// settingOrDefault reads a stored setting, falling back to the configured
// default when the key is absent or the read fails.
func (s *Service) settingOrDefault(ctx context.Context, key, fallback string) string {
	value, err := s.store.GetSetting(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read setting, using default", "key", key, "error", err)
		return fallback
	}
	if value == "" {
		return fallback
	}
	return value
}
