package api

import (
	"database/sql"
	"time"

	"github.com/edgard/botboard/internal/database"
)

// Request payloads. Field validation runs through gin's binding layer.

type createAutoReplyRequest struct {
	Keyword   string `json:"keyword" binding:"required"`
	Response  string `json:"response" binding:"required"`
	MatchType string `json:"matchType" binding:"required,oneof=exact contains starts_with regex"`
	IsActive  *bool  `json:"isActive"`
}

type updateAutoReplyRequest struct {
	ID        int64  `json:"id" binding:"required"`
	Keyword   string `json:"keyword" binding:"required"`
	Response  string `json:"response" binding:"required"`
	MatchType string `json:"matchType" binding:"required,oneof=exact contains starts_with regex"`
	IsActive  bool   `json:"isActive"`
}

type broadcastRequest struct {
	Message string   `json:"message" binding:"required"`
	UserIDs []string `json:"userIds"`
}

type addChannelRequest struct {
	ChannelID   string `json:"channelId" binding:"required"`
	ChannelName string `json:"channelName"`
}

type updateChannelRequest struct {
	ID          int64  `json:"id" binding:"required"`
	ChannelName string `json:"channelName" binding:"required"`
	IsActive    bool   `json:"isActive"`
}

type channelPostRequest struct {
	ChannelID string `json:"channelId" binding:"required"`
	Content   string `json:"content" binding:"required"`
	MediaURL  string `json:"mediaUrl"`
	MediaType string `json:"mediaType" binding:"omitempty,oneof=photo video document"`
}

type createScheduledPostRequest struct {
	ChannelID     string    `json:"channelId" binding:"required"`
	Content       string    `json:"content" binding:"required"`
	MediaURL      string    `json:"mediaUrl"`
	MediaType     string    `json:"mediaType" binding:"omitempty,oneof=photo video document"`
	ScheduledTime time.Time `json:"scheduledTime" binding:"required"`
}

// updateSettingsRequest carries partial updates: absent fields keep their
// stored value.
type updateSettingsRequest struct {
	BotToken       *string `json:"botToken"`
	WebhookURL     *string `json:"webhookUrl"`
	WelcomeMessage *string `json:"welcomeMessage"`
	HelpMessage    *string `json:"helpMessage"`
}

// Response payloads. Nullable database columns flatten to plain strings.

type autoReplyResponse struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	Response  string    `json:"response"`
	MatchType string    `json:"matchType"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type channelResponse struct {
	ID          int64     `json:"id"`
	ChannelID   string    `json:"channelId"`
	ChannelName string    `json:"channelName"`
	ChannelType string    `json:"channelType"`
	IsActive    bool      `json:"isActive"`
	AddedAt     time.Time `json:"addedAt"`
}

type scheduledPostResponse struct {
	ID            int64      `json:"id"`
	ChannelID     string     `json:"channelId"`
	Content       string     `json:"content"`
	MediaURL      string     `json:"mediaUrl,omitempty"`
	MediaType     string     `json:"mediaType,omitempty"`
	ScheduledTime time.Time  `json:"scheduledTime"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
}

type userResponse struct {
	ID           int64     `json:"id"`
	TelegramID   string    `json:"telegramId"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName,omitempty"`
	LanguageCode string    `json:"languageCode,omitempty"`
	IsBlocked    bool      `json:"isBlocked"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
}

type messageResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	UserName    string    `json:"userName"`
	Username    string    `json:"username,omitempty"`
	MessageType string    `json:"messageType"`
	Content     string    `json:"content"`
	IsFromBot   bool      `json:"isFromBot"`
	CreatedAt   time.Time `json:"createdAt"`
}

type settingsResponse struct {
	BotToken       string `json:"botToken"`
	WebhookURL     string `json:"webhookUrl"`
	WelcomeMessage string `json:"welcomeMessage"`
	HelpMessage    string `json:"helpMessage"`
}

type statsResponse struct {
	TotalUsers     int64   `json:"totalUsers"`
	TotalMessages  int64   `json:"totalMessages"`
	MessagesToday  int64   `json:"messagesToday"`
	ActiveChannels int     `json:"activeChannels"`
	BotRunning     bool    `json:"botRunning"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}

func toAutoReplyResponse(r database.AutoReplyRule) autoReplyResponse {
	return autoReplyResponse{
		ID:        r.ID,
		Keyword:   r.Keyword,
		Response:  r.Response,
		MatchType: r.MatchType,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toChannelResponse(c database.Channel) channelResponse {
	return channelResponse{
		ID:          c.ID,
		ChannelID:   c.ChannelID,
		ChannelName: c.ChannelName,
		ChannelType: c.ChannelType,
		IsActive:    c.IsActive,
		AddedAt:     c.AddedAt,
	}
}

func toScheduledPostResponse(p database.ScheduledPost) scheduledPostResponse {
	out := scheduledPostResponse{
		ID:            p.ID,
		ChannelID:     p.ChannelID,
		Content:       p.Content,
		MediaURL:      p.MediaURL.String,
		MediaType:     p.MediaType.String,
		ScheduledTime: p.ScheduledTime,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
	}
	if p.SentAt.Valid {
		sentAt := p.SentAt.Time
		out.SentAt = &sentAt
	}
	return out
}

func toUserResponse(u database.User) userResponse {
	return userResponse{
		ID:           u.ID,
		TelegramID:   u.TelegramID,
		Username:     u.Username.String,
		FirstName:    u.FirstName,
		LastName:     u.LastName.String,
		LanguageCode: u.LanguageCode.String,
		IsBlocked:    u.IsBlocked,
		CreatedAt:    u.CreatedAt,
		LastActive:   u.LastActive,
	}
}

func toMessageResponse(m database.MessageWithUser) messageResponse {
	return messageResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		UserName:    m.UserName,
		Username:    m.Username.String,
		MessageType: m.MessageType,
		Content:     m.Content,
		IsFromBot:   m.IsFromBot,
		CreatedAt:   m.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
