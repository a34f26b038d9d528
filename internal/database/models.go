package database

import (
	"database/sql"
	"time"
)

// Message type values stored in messages.message_type.
const (
	MessageTypeText     = "text"
	MessageTypePhoto    = "photo"
	MessageTypeDocument = "document"
	MessageTypeSticker  = "sticker"
	MessageTypeVoice    = "voice"
	MessageTypeVideo    = "video"
)

// Auto-reply match strategies stored in auto_replies.match_type.
const (
	MatchTypeExact      = "exact"
	MatchTypeContains   = "contains"
	MatchTypeStartsWith = "starts_with"
	MatchTypeRegex      = "regex"
)

// Scheduled post statuses. A post leaves StatusPending exactly once.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Channel visibility classes inferred from the Telegram chat type.
const (
	ChannelTypePublic  = "public"
	ChannelTypePrivate = "private"
)

// User represents a Telegram user known to the bot. A user is upserted on
// every inbound message: created_at is set once, last_active on every message.
type User struct {
	ID           int64          `db:"id"`
	TelegramID   string         `db:"telegram_id"`
	Username     sql.NullString `db:"username"`
	FirstName    string         `db:"first_name"`
	LastName     sql.NullString `db:"last_name"`
	LanguageCode sql.NullString `db:"language_code"`
	IsBlocked    bool           `db:"is_blocked"`
	CreatedAt    time.Time      `db:"created_at"`
	LastActive   time.Time      `db:"last_active"`
}

// Message is one stored chat message, inbound or bot-sent. Immutable once
// created; non-text kinds carry a synthesized content label instead of media.
type Message struct {
	ID                int64     `db:"id"`
	UserID            int64     `db:"user_id"`
	TelegramMessageID int64     `db:"telegram_message_id"`
	MessageType       string    `db:"message_type"`
	Content           string    `db:"content"`
	IsFromBot         bool      `db:"is_from_bot"`
	CreatedAt         time.Time `db:"created_at"`
}

// MessageWithUser joins a message with its sender's display fields for listing.
type MessageWithUser struct {
	Message
	UserName string         `db:"user_name"`
	Username sql.NullString `db:"username"`
}

// AutoReplyRule maps a keyword to a canned response using one of the
// match_type strategies. Regex keywords are validated at create/update time.
type AutoReplyRule struct {
	ID        int64     `db:"id"`
	Keyword   string    `db:"keyword"`
	Response  string    `db:"response"`
	MatchType string    `db:"match_type"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Channel is a broadcast destination the bot can post into, unique per
// external channel_id.
type Channel struct {
	ID          int64     `db:"id"`
	ChannelID   string    `db:"channel_id"`
	ChannelName string    `db:"channel_name"`
	ChannelType string    `db:"channel_type"`
	IsActive    bool      `db:"is_active"`
	AddedAt     time.Time `db:"added_at"`
}

// ScheduledPost is a channel message queued for delivery at scheduled_time.
type ScheduledPost struct {
	ID            int64          `db:"id"`
	ChannelID     string         `db:"channel_id"`
	Content       string         `db:"content"`
	MediaURL      sql.NullString `db:"media_url"`
	MediaType     sql.NullString `db:"media_type"`
	ScheduledTime time.Time      `db:"scheduled_time"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	SentAt        sql.NullTime   `db:"sent_at"`
}

// Setting is one key/value configuration entry, last writer wins.
type Setting struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
