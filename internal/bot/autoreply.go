package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botboard/internal/database"
)

// applyAutoReplies evaluates active rules against a plain text message in
// evaluation order and fires at most one reply. A rule that matches
// consumes the message even if the reply fails to send.
func (s *Service) applyAutoReplies(ctx context.Context, user *database.User, msg *models.Message) {
	client := s.currentClient()
	if client == nil {
		return
	}

	rules, err := s.store.ListActiveAutoReplies(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list auto-reply rules", "error", err)
		return
	}

	text := strings.ToLower(msg.Text)

	for i := range rules {
		rule := &rules[i]
		if !s.rules.Matches(s.logger, rule, text) {
			continue
		}

		s.logger.InfoContext(ctx, "Auto-reply rule matched", "rule_id", rule.ID, "match_type", rule.MatchType, "chat_id", msg.Chat.ID)

		if _, err := client.SendText(ctx, msg.Chat.ID, rule.Response, nil); err != nil {
			s.logger.ErrorContext(ctx, "Failed to send auto-reply", "rule_id", rule.ID, "chat_id", msg.Chat.ID, "error", err)
			return
		}

		reply := &database.Message{
			UserID:      user.ID,
			MessageType: database.MessageTypeText,
			Content:     rule.Response,
			IsFromBot:   true,
		}
		if err := s.store.SaveMessage(ctx, reply); err != nil {
			s.logger.ErrorContext(ctx, "Failed to save auto-reply message", "rule_id", rule.ID, "error", err)
		}
		return
	}
}

// ValidatePattern rejects regex rules whose pattern does not compile.
// Non-regex match types accept any keyword.
func ValidatePattern(matchType, keyword string) error {
	if matchType != database.MatchTypeRegex {
		return nil
	}
	if _, err := regexp.Compile(keyword); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	return nil
}

// compiledPattern caches one rule's compiled regex. A nil re means the
// stored pattern failed to compile and the rule never matches.
type compiledPattern struct {
	updatedAt time.Time
	re        *regexp.Regexp
}

// ruleMatcher evaluates auto-reply rules. Compiled regexes are cached per
// rule id and invalidated when the rule's updated_at changes.
type ruleMatcher struct {
	mu    sync.Mutex
	cache map[int64]compiledPattern
}

func newRuleMatcher() *ruleMatcher {
	return &ruleMatcher{cache: make(map[int64]compiledPattern)}
}

// Matches reports whether a rule matches the already lowercased text.
func (m *ruleMatcher) Matches(log *slog.Logger, rule *database.AutoReplyRule, loweredText string) bool {
	switch rule.MatchType {
	case database.MatchTypeExact:
		return loweredText == strings.ToLower(rule.Keyword)
	case database.MatchTypeContains:
		return strings.Contains(loweredText, strings.ToLower(rule.Keyword))
	case database.MatchTypeStartsWith:
		return strings.HasPrefix(loweredText, strings.ToLower(rule.Keyword))
	case database.MatchTypeRegex:
		re := m.compiled(log, rule)
		return re != nil && re.MatchString(loweredText)
	default:
		return false
	}
}

func (m *ruleMatcher) compiled(log *slog.Logger, rule *database.AutoReplyRule) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.cache[rule.ID]; ok && entry.updatedAt.Equal(rule.UpdatedAt) {
		return entry.re
	}

	re, err := regexp.Compile("(?i)" + rule.Keyword)
	if err != nil {
		log.Warn("Auto-reply rule has an invalid regex pattern, rule disabled", "rule_id", rule.ID, "error", err)
		re = nil
	}

	m.cache[rule.ID] = compiledPattern{updatedAt: rule.UpdatedAt, re: re}
	return re
}
