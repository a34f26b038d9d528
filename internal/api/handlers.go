package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botboard/internal/bot"
	"github.com/edgard/botboard/internal/database"
)

// --- Auto-replies ---

func (s *Server) listAutoReplies(c *gin.Context) {
	rules, err := s.store.ListAutoReplies(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}

	out := make([]autoReplyResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toAutoReplyResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createAutoReply(c *gin.Context) {
	var req createAutoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := bot.ValidatePattern(req.MatchType, req.Keyword); err != nil {
		badRequest(c, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := &database.AutoReplyRule{
		Keyword:   req.Keyword,
		Response:  req.Response,
		MatchType: req.MatchType,
		IsActive:  isActive,
	}
	if err := s.store.CreateAutoReply(c.Request.Context(), rule); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAutoReplyResponse(*rule))
}

func (s *Server) updateAutoReply(c *gin.Context) {
	var req updateAutoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := bot.ValidatePattern(req.MatchType, req.Keyword); err != nil {
		badRequest(c, err)
		return
	}

	rule := &database.AutoReplyRule{
		ID:        req.ID,
		Keyword:   req.Keyword,
		Response:  req.Response,
		MatchType: req.MatchType,
		IsActive:  req.IsActive,
	}
	if err := s.store.UpdateAutoReply(c.Request.Context(), rule); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAutoReplyResponse(*rule))
}

func (s *Server) deleteAutoReply(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.store.DeleteAutoReply(c.Request.Context(), id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Broadcast ---

func (s *Server) broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.bot.Broadcast(c.Request.Context(), req.Message, req.UserIDs)
	if err != nil {
		if errors.Is(err, bot.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Channels ---

func (s *Server) listChannels(c *gin.Context) {
	channels, err := s.store.ListChannels(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}

	out := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, toChannelResponse(ch))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addChannel(c *gin.Context) {
	var req addChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	channel, err := s.bot.AddChannel(c.Request.Context(), req.ChannelID, req.ChannelName)
	if err != nil {
		if errors.Is(err, bot.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChannelResponse(*channel))
}

func (s *Server) updateChannel(c *gin.Context) {
	var req updateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.store.UpdateChannel(c.Request.Context(), req.ID, req.ChannelName, req.IsActive); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) deleteChannel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.store.DeleteChannel(c.Request.Context(), id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) postToChannel(c *gin.Context) {
	var req channelPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	messageID, err := s.bot.PostToChannel(c.Request.Context(), req.ChannelID, req.Content, req.MediaURL, req.MediaType)
	if err != nil {
		if errors.Is(err, bot.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "messageId": messageID})
}

// --- Scheduled posts ---

func (s *Server) listScheduledPosts(c *gin.Context) {
	posts, err := s.store.ListScheduledPosts(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}

	out := make([]scheduledPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toScheduledPostResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createScheduledPost(c *gin.Context) {
	var req createScheduledPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.ScheduledTime.After(time.Now()) {
		badRequest(c, fmt.Errorf("scheduledTime must be in the future"))
		return
	}
	if req.MediaURL != "" && req.MediaType == "" {
		badRequest(c, fmt.Errorf("mediaType is required when mediaUrl is set"))
		return
	}

	post := &database.ScheduledPost{
		ChannelID:     req.ChannelID,
		Content:       req.Content,
		MediaURL:      nullString(req.MediaURL),
		MediaType:     nullString(req.MediaType),
		ScheduledTime: req.ScheduledTime.UTC(),
	}
	if err := s.store.CreateScheduledPost(c.Request.Context(), post); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toScheduledPostResponse(*post))
}

func (s *Server) deleteScheduledPost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.store.DeleteScheduledPost(c.Request.Context(), id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Settings ---

func (s *Server) getSettings(c *gin.Context) {
	ctx := c.Request.Context()

	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, settingsResponse{
		BotToken:       maskToken(settings[bot.SettingBotToken]),
		WebhookURL:     settings[bot.SettingWebhookURL],
		WelcomeMessage: settings[bot.SettingWelcomeMessage],
		HelpMessage:    settings[bot.SettingHelpMessage],
	})
}

func (s *Server) updateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	updates := map[string]*string{
		bot.SettingBotToken:       req.BotToken,
		bot.SettingWebhookURL:     req.WebhookURL,
		bot.SettingWelcomeMessage: req.WelcomeMessage,
		bot.SettingHelpMessage:    req.HelpMessage,
	}
	for key, value := range updates {
		if value == nil {
			continue
		}
		if err := s.store.SetSetting(ctx, key, *value); err != nil {
			serverError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Users, messages, stats ---

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listMessages(c *gin.Context) {
	limit := s.cfg.Bot.RecentMessagesLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequest(c, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	messages, err := s.store.ListRecentMessages(c.Request.Context(), limit)
	if err != nil {
		serverError(c, err)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, err := s.store.CountUsers(ctx)
	if err != nil {
		serverError(c, err)
		return
	}
	totalMessages, err := s.store.CountMessages(ctx)
	if err != nil {
		serverError(c, err)
		return
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	messagesToday, err := s.store.CountMessagesSince(ctx, midnight)
	if err != nil {
		serverError(c, err)
		return
	}

	channels, err := s.store.ListActiveChannels(ctx)
	if err != nil {
		serverError(c, err)
		return
	}

	status := s.bot.Status()
	c.JSON(http.StatusOK, statsResponse{
		TotalUsers:     totalUsers,
		TotalMessages:  totalMessages,
		MessagesToday:  messagesToday,
		ActiveChannels: len(channels),
		BotRunning:     status.Running,
		UptimeSeconds:  status.Uptime.Seconds(),
	})
}

// --- Lifecycle and webhook ---

// toggle flips the bot between running and stopped using the stored
// settings.
func (s *Server) toggle(c *gin.Context) {
	if s.bot.Status().Running {
		if err := s.bot.Stop(); err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"running": false})
		return
	}

	if err := s.bot.StartFromSettings(c.Request.Context()); err != nil {
		if errors.Is(err, bot.ErrNoToken) {
			badRequest(c, err)
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (s *Server) webhookProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// webhook receives pushed Telegram updates when webhook mode is active.
func (s *Server) webhook(c *gin.Context) {
	var update models.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}

	s.bot.HandleUpdate(c.Request.Context(), &update)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// maskToken hides the secret part of a bot token while leaving enough to
// recognize which token is stored.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return "********" + token[len(token)-4:]
}
