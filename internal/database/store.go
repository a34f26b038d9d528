package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations required by the bot
// core and the HTTP adapter. Methods accept context.Context for cancellation.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// User operations. UpsertUser inserts on first sight of telegram_id and
	// otherwise updates profile fields and last_active, never created_at;
	// the stored row is read back into u.
	UpsertUser(ctx context.Context, u *User) error
	GetUserByTelegramID(ctx context.Context, telegramID string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Message operations.
	SaveMessage(ctx context.Context, m *Message) error
	ListRecentMessages(ctx context.Context, limit int) ([]MessageWithUser, error)
	CountMessages(ctx context.Context) (int64, error)
	CountMessagesSince(ctx context.Context, since time.Time) (int64, error)

	// Auto-reply rule operations. ListActiveAutoReplies returns active rules
	// in evaluation order: most recently created first.
	CreateAutoReply(ctx context.Context, r *AutoReplyRule) error
	ListAutoReplies(ctx context.Context) ([]AutoReplyRule, error)
	ListActiveAutoReplies(ctx context.Context) ([]AutoReplyRule, error)
	UpdateAutoReply(ctx context.Context, r *AutoReplyRule) error
	DeleteAutoReply(ctx context.Context, id int64) error

	// Channel operations. CreateChannel is idempotent on channel_id.
	CreateChannel(ctx context.Context, c *Channel) error
	ListChannels(ctx context.Context) ([]Channel, error)
	ListActiveChannels(ctx context.Context) ([]Channel, error)
	UpdateChannel(ctx context.Context, id int64, channelName string, isActive bool) error
	DeleteChannel(ctx context.Context, id int64) error

	// Scheduled post operations. The Mark* transitions only apply to posts
	// still in the pending state, so a post leaves pending exactly once.
	CreateScheduledPost(ctx context.Context, p *ScheduledPost) error
	ListScheduledPosts(ctx context.Context) ([]ScheduledPost, error)
	ListDueScheduledPosts(ctx context.Context, now time.Time) ([]ScheduledPost, error)
	MarkScheduledPostSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkScheduledPostFailed(ctx context.Context, id int64) error
	DeleteScheduledPost(ctx context.Context, id int64) error

	// Settings operations. GetSetting returns "" when the key is absent.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

func (s *sqlxStore) UpsertUser(ctx context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("cannot upsert nil user")
	}
	if u.TelegramID == "" {
		return fmt.Errorf("user must have a non-empty telegram_id")
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastActive = now

	query := `
        INSERT INTO users (telegram_id, username, first_name, last_name, language_code, is_blocked, created_at, last_active)
        VALUES (:telegram_id, :username, :first_name, :last_name, :language_code, :is_blocked, :created_at, :last_active)
        ON CONFLICT (telegram_id) DO UPDATE SET
            username = excluded.username,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            language_code = excluded.language_code,
            last_active = excluded.last_active;
    `

	if _, err := s.db.NamedExecContext(ctx, query, u); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "telegram_id", u.TelegramID, "error", err)
		return fmt.Errorf("failed to upsert user %s: %w", u.TelegramID, err)
	}

	// Read the stored row back so the caller sees the real id and created_at.
	stored, err := s.GetUserByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("user %s missing after upsert", u.TelegramID)
	}
	*u = *stored

	s.logger.DebugContext(ctx, "User upserted", "telegram_id", u.TelegramID, "user_id", u.ID)
	return nil
}

func (s *sqlxStore) GetUserByTelegramID(ctx context.Context, telegramID string) (*User, error) {
	var u User
	query := `SELECT id, telegram_id, username, first_name, last_name, language_code, is_blocked, created_at, last_active
	          FROM users WHERE telegram_id = ?`

	err := s.db.GetContext(ctx, &u, query, telegramID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("failed to get user %s: %w", telegramID, err)
	}
	return &u, nil
}

func (s *sqlxStore) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT id, telegram_id, username, first_name, last_name, language_code, is_blocked, created_at, last_active
	          FROM users ORDER BY created_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *sqlxStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// --- Messages ---

func (s *sqlxStore) SaveMessage(ctx context.Context, m *Message) error {
	if m == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if m.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}

	m.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (user_id, telegram_message_id, message_type, content, is_from_bot, created_at)
        VALUES (:user_id, :telegram_message_id, :message_type, :content, :is_from_bot, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, m)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "user_id", m.UserID, "error", err)
		return fmt.Errorf("failed to save message for user %d: %w", m.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		m.ID = id
	}

	s.logger.DebugContext(ctx, "Message saved", "user_id", m.UserID, "message_type", m.MessageType, "message_id", m.ID)
	return nil
}

func (s *sqlxStore) ListRecentMessages(ctx context.Context, limit int) ([]MessageWithUser, error) {
	if limit <= 0 {
		limit = 50
	}

	var messages []MessageWithUser
	query := `
        SELECT m.id, m.user_id, m.telegram_message_id, m.message_type, m.content, m.is_from_bot, m.created_at,
               TRIM(u.first_name || ' ' || COALESCE(u.last_name, '')) AS user_name,
               u.username
        FROM messages m
        JOIN users u ON u.id = m.user_id
        ORDER BY m.created_at DESC, m.id DESC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &messages, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error listing recent messages", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return messages, nil
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) CountMessagesSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE created_at >= ?`, since); err != nil {
		return 0, fmt.Errorf("failed to count messages since %s: %w", since, err)
	}
	return count, nil
}

// --- Auto-reply rules ---

func (s *sqlxStore) CreateAutoReply(ctx context.Context, r *AutoReplyRule) error {
	if r == nil {
		return fmt.Errorf("cannot create nil auto-reply rule")
	}

	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	query := `
        INSERT INTO auto_replies (keyword, response, match_type, is_active, created_at, updated_at)
        VALUES (:keyword, :response, :match_type, :is_active, :created_at, :updated_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating auto-reply rule", "keyword", r.Keyword, "error", err)
		return fmt.Errorf("failed to create auto-reply rule: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		r.ID = id
	}
	return nil
}

func (s *sqlxStore) ListAutoReplies(ctx context.Context) ([]AutoReplyRule, error) {
	var rules []AutoReplyRule
	query := `SELECT id, keyword, response, match_type, is_active, created_at, updated_at
	          FROM auto_replies ORDER BY created_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &rules, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing auto-reply rules", "error", err)
		return nil, fmt.Errorf("failed to list auto-reply rules: %w", err)
	}
	return rules, nil
}

func (s *sqlxStore) ListActiveAutoReplies(ctx context.Context) ([]AutoReplyRule, error) {
	var rules []AutoReplyRule
	query := `SELECT id, keyword, response, match_type, is_active, created_at, updated_at
	          FROM auto_replies WHERE is_active = 1 ORDER BY created_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &rules, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing active auto-reply rules", "error", err)
		return nil, fmt.Errorf("failed to list active auto-reply rules: %w", err)
	}
	return rules, nil
}

func (s *sqlxStore) UpdateAutoReply(ctx context.Context, r *AutoReplyRule) error {
	if r == nil || r.ID == 0 {
		return fmt.Errorf("auto-reply rule must have an id")
	}

	r.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE auto_replies SET
            keyword = :keyword,
            response = :response,
            match_type = :match_type,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id;
    `

	if _, err := s.db.NamedExecContext(ctx, query, r); err != nil {
		s.logger.ErrorContext(ctx, "Error updating auto-reply rule", "rule_id", r.ID, "error", err)
		return fmt.Errorf("failed to update auto-reply rule %d: %w", r.ID, err)
	}
	return nil
}

func (s *sqlxStore) DeleteAutoReply(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auto_replies WHERE id = ?`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting auto-reply rule", "rule_id", id, "error", err)
		return fmt.Errorf("failed to delete auto-reply rule %d: %w", id, err)
	}
	return nil
}

// --- Channels ---

func (s *sqlxStore) CreateChannel(ctx context.Context, c *Channel) error {
	if c == nil {
		return fmt.Errorf("cannot create nil channel")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("channel must have a non-empty channel_id")
	}

	c.AddedAt = time.Now().UTC()

	// Re-adding an existing channel_id is a no-op.
	query := `
        INSERT INTO channels (channel_id, channel_name, channel_type, is_active, added_at)
        VALUES (:channel_id, :channel_name, :channel_type, :is_active, :added_at)
        ON CONFLICT (channel_id) DO NOTHING;
    `

	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		s.logger.ErrorContext(ctx, "Error creating channel", "channel_id", c.ChannelID, "error", err)
		return fmt.Errorf("failed to create channel %s: %w", c.ChannelID, err)
	}

	s.logger.DebugContext(ctx, "Channel recorded", "channel_id", c.ChannelID)
	return nil
}

func (s *sqlxStore) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	query := `SELECT id, channel_id, channel_name, channel_type, is_active, added_at
	          FROM channels ORDER BY added_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &channels, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing channels", "error", err)
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

func (s *sqlxStore) ListActiveChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	query := `SELECT id, channel_id, channel_name, channel_type, is_active, added_at
	          FROM channels WHERE is_active = 1 ORDER BY added_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &channels, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing active channels", "error", err)
		return nil, fmt.Errorf("failed to list active channels: %w", err)
	}
	return channels, nil
}

func (s *sqlxStore) UpdateChannel(ctx context.Context, id int64, channelName string, isActive bool) error {
	query := `UPDATE channels SET channel_name = ?, is_active = ? WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, channelName, isActive, id); err != nil {
		s.logger.ErrorContext(ctx, "Error updating channel", "channel_id", id, "error", err)
		return fmt.Errorf("failed to update channel %d: %w", id, err)
	}
	return nil
}

func (s *sqlxStore) DeleteChannel(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting channel", "channel_id", id, "error", err)
		return fmt.Errorf("failed to delete channel %d: %w", id, err)
	}
	return nil
}

// --- Scheduled posts ---

func (s *sqlxStore) CreateScheduledPost(ctx context.Context, p *ScheduledPost) error {
	if p == nil {
		return fmt.Errorf("cannot create nil scheduled post")
	}
	if p.ChannelID == "" {
		return fmt.Errorf("scheduled post must have a non-empty channel_id")
	}

	p.Status = StatusPending
	p.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO scheduled_posts (channel_id, content, media_url, media_type, scheduled_time, status, created_at)
        VALUES (:channel_id, :content, :media_url, :media_type, :scheduled_time, :status, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, p)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating scheduled post", "channel_id", p.ChannelID, "error", err)
		return fmt.Errorf("failed to create scheduled post: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		p.ID = id
	}

	s.logger.DebugContext(ctx, "Scheduled post created", "post_id", p.ID, "scheduled_time", p.ScheduledTime)
	return nil
}

func (s *sqlxStore) ListScheduledPosts(ctx context.Context) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	query := `SELECT id, channel_id, content, media_url, media_type, scheduled_time, status, created_at, sent_at
	          FROM scheduled_posts ORDER BY created_at DESC, id DESC`

	if err := s.db.SelectContext(ctx, &posts, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing scheduled posts", "error", err)
		return nil, fmt.Errorf("failed to list scheduled posts: %w", err)
	}
	return posts, nil
}

func (s *sqlxStore) ListDueScheduledPosts(ctx context.Context, now time.Time) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	query := `SELECT id, channel_id, content, media_url, media_type, scheduled_time, status, created_at, sent_at
	          FROM scheduled_posts
	          WHERE status = ? AND scheduled_time <= ?
	          ORDER BY scheduled_time ASC, id ASC`

	if err := s.db.SelectContext(ctx, &posts, query, StatusPending, now); err != nil {
		s.logger.ErrorContext(ctx, "Error listing due scheduled posts", "error", err)
		return nil, fmt.Errorf("failed to list due scheduled posts: %w", err)
	}
	return posts, nil
}

func (s *sqlxStore) MarkScheduledPostSent(ctx context.Context, id int64, sentAt time.Time) error {
	// The pending guard makes the transition out of pending one-shot even
	// with a concurrent processor.
	query := `UPDATE scheduled_posts SET status = ?, sent_at = ? WHERE id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query, StatusSent, sentAt.UTC(), id, StatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking scheduled post sent", "post_id", id, "error", err)
		return fmt.Errorf("failed to mark scheduled post %d sent: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		s.logger.WarnContext(ctx, "Scheduled post no longer pending, sent transition skipped", "post_id", id)
	}
	return nil
}

func (s *sqlxStore) MarkScheduledPostFailed(ctx context.Context, id int64) error {
	query := `UPDATE scheduled_posts SET status = ? WHERE id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query, StatusFailed, id, StatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking scheduled post failed", "post_id", id, "error", err)
		return fmt.Errorf("failed to mark scheduled post %d failed: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		s.logger.WarnContext(ctx, "Scheduled post no longer pending, failed transition skipped", "post_id", id)
	}
	return nil
}

func (s *sqlxStore) DeleteScheduledPost(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_posts WHERE id = ?`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting scheduled post", "post_id", id, "error", err)
		return fmt.Errorf("failed to delete scheduled post %d: %w", id, err)
	}
	return nil
}

// --- Settings ---

func (s *sqlxStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting setting", "key", key, "error", err)
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *sqlxStore) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}

	query := `
        INSERT INTO settings (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error setting value", "key", key, "error", err)
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (s *sqlxStore) ListSettings(ctx context.Context) (map[string]string, error) {
	var settings []Setting
	if err := s.db.SelectContext(ctx, &settings, `SELECT key, value, updated_at FROM settings`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing settings", "error", err)
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}
	return out, nil
}
